// Package account orchestrates the account lifecycle: registration with
// deferred activation, credential verification, and password recovery.
package account

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/altenshop/backend/domain"
	"github.com/altenshop/backend/repository"
	"github.com/altenshop/backend/usecase/activation"
)

// Mailer is the slice of the mail service the orchestrator depends on.
type Mailer interface {
	SendAccountActivation(ctx context.Context, user *domain.User, locale, code string) error
	SendPasswordReset(ctx context.Context, email, token, locale string) error
}

// TokenIssuer issues and reads the bearer tokens used for login sessions
// and password-reset links.
type TokenIssuer interface {
	Issue(subject string, authorities []string) (string, error)
	ExtractSubject(token string) (string, error)
	IsValidFor(token, subject string) bool
}

// Service is the account lifecycle orchestrator.
type Service struct {
	users  repository.UserRepository
	codes  *activation.Manager
	tokens TokenIssuer
	mail   Mailer
	logger *zap.Logger
}

type RegistrationInput struct {
	Firstname string
	Lastname  string
	Email     string
	Password  string
}

func NewService(users repository.UserRepository, codes *activation.Manager, tokens TokenIssuer, mail Mailer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:  users,
		codes:  codes,
		tokens: tokens,
		mail:   mail,
		logger: logger,
	}
}

// Register creates a disabled account and emails an activation code. Email
// dispatch is fire-and-forget: a delivery failure is logged but never fails
// the registration itself.
func (s *Service) Register(ctx context.Context, in RegistrationInput, locale string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := domain.NewUser(in.Firstname, in.Lastname, in.Email, string(hash))
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	s.sendActivation(ctx, user, locale)
	return nil
}

// Authenticate verifies credentials and returns a bearer token embedding
// the user's authorities.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.AuthenticationError("bad credentials")
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", domain.AuthenticationError("bad credentials")
	}
	if !user.Enabled {
		return "", domain.NewError(domain.CodeAccountDisabled, "account is not activated")
	}

	return s.tokens.Issue(user.Email, user.Roles)
}

// ActivateAccount consumes an emailed activation code.
//
// An unknown code fails. A code whose owner is already enabled succeeds as a
// no-op. An expired or consumed code triggers regeneration and a fresh email
// before the failure is reported; those side effects are deliberate and
// survive the error. A usable code enables the account and is consumed in
// the same transaction.
func (s *Service) ActivateAccount(ctx context.Context, value, locale string) error {
	user, code, outcome, err := s.codes.Validate(ctx, value)
	if err != nil {
		return err
	}

	switch outcome {
	case activation.OutcomeNotFound:
		return domain.TokenError("invalid activation code")
	case activation.OutcomeAlreadyActivated:
		return nil
	case activation.OutcomeExpiredOrUsed:
		s.sendActivation(ctx, user, locale)
		return domain.TokenError("activation code expired, a new code has been sent")
	default:
		return s.codes.Consume(ctx, code)
	}
}

// RequestPasswordReset issues a bearer token for the account and emails a
// reset link. Unknown addresses are reported, not silently swallowed.
func (s *Service) RequestPasswordReset(ctx context.Context, email, locale string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.Issue(user.Email, user.Roles)
	if err != nil {
		return err
	}

	if err := s.mail.SendPasswordReset(ctx, user.Email, token, locale); err != nil {
		s.logger.Warn("password reset email dispatch failed",
			zap.String("email", user.Email), zap.Error(err))
	}
	return nil
}

// ChangePassword sets a new password for the subject of a reset token. The
// token is not single-use; it stays valid until expiry.
func (s *Service) ChangePassword(ctx context.Context, token, newPassword string) error {
	subject, err := s.tokens.ExtractSubject(token)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.TokenError("invalid or expired token")
		}
		return err
	}

	if !s.tokens.IsValidFor(token, user.Email) {
		return domain.TokenError("invalid or expired token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

func (s *Service) sendActivation(ctx context.Context, user *domain.User, locale string) {
	code, err := s.codes.IssueOrRetrieve(ctx, user)
	if err != nil {
		s.logger.Error("activation code issue failed",
			zap.String("email", user.Email), zap.Error(err))
		return
	}
	if err := s.mail.SendAccountActivation(ctx, user, locale, code.Code); err != nil {
		s.logger.Warn("activation email dispatch failed",
			zap.String("email", user.Email), zap.Error(err))
	}
}
