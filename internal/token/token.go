// Package token issues and verifies the stateless bearer tokens used for
// request authentication and password-reset links. Validity is determined
// purely by signature and expiry; nothing is looked up.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/altenshop/backend/domain"
)

// Claims carried by every issued token. Authorities are the role names of
// the subject at issuance time.
type Claims struct {
	jwt.RegisteredClaims
	Authorities []string `json:"authorities"`
}

// Service signs and parses bearer tokens with a process-wide symmetric key.
// The key is read-only after construction.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue builds an HS256-signed token for the subject embedding its
// authorities. Issued-at is now, expiry now+TTL.
func (s *Service) Issue(subject string, authorities []string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Authorities: authorities,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses the token and checks signature and expiry against the wall
// clock. Failures come back as domain.TokenError.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.WrapError(domain.CodeTokenInvalid, "token expired", err)
		}
		return nil, domain.WrapError(domain.CodeTokenInvalid, "invalid token", err)
	}
	if !token.Valid {
		return nil, domain.TokenError("invalid token")
	}
	return claims, nil
}

// ExtractSubject reads the subject claim without trusting expiry; callers
// must verify separately before relying on the identity.
func (s *Service) ExtractSubject(tokenString string) (string, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", domain.WrapError(domain.CodeTokenInvalid, "malformed token", err)
	}
	return claims.Subject, nil
}

// IsValidFor reports whether the token verifies, is unexpired and was
// issued for the expected subject.
func (s *Service) IsValidFor(tokenString, expectedSubject string) bool {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return false
	}
	return claims.Subject == expectedSubject
}
