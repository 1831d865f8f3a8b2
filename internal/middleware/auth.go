package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/altenshop/backend/api/transport"
	"github.com/altenshop/backend/domain"
	"github.com/altenshop/backend/pkg/httpcontext"
	"github.com/altenshop/backend/repository"
)

// TokenVerifier is the slice of the token service the gate needs.
type TokenVerifier interface {
	ExtractSubject(token string) (string, error)
	IsValidFor(token, subject string) bool
}

// publicPrefixes lists route prefixes served without authentication.
var publicPrefixes = []string{"/auth/", "/health", "/docs"}

// userLookupTimeout bounds the credential-store lookup so a stalled store
// cannot pin the request.
const userLookupTimeout = 3 * time.Second

// Authentication wraps the whole router. Requests carrying a valid bearer
// token get a domain.Identity attached; requests with an invalid or expired
// one are rejected with the uniform envelope. Requests without a header pass
// through so route-level checks can decide.
func Authentication(tokens TokenVerifier, users repository.UserRepository, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Method()) == fasthttp.MethodOptions || isPublic(string(ctx.Path())) {
				next(ctx)
				return
			}
			// Idempotent: a previously attached identity is left alone.
			if _, ok := ctx.UserValue(httpcontext.IdentityUserValue).(domain.Identity); ok {
				next(ctx)
				return
			}

			tokenString, ok := bearerToken(ctx)
			if !ok {
				next(ctx)
				return
			}

			subject, err := tokens.ExtractSubject(tokenString)
			if err != nil {
				reject(ctx, fasthttp.StatusUnauthorized, err)
				return
			}

			lookupCtx, cancel := context.WithTimeout(context.Background(), userLookupTimeout)
			user, err := users.GetByEmail(lookupCtx, subject)
			cancel()
			if err != nil {
				// Only an unknown subject discredits the token. A store
				// failure is a server fault and must not read as a bad token.
				if errors.Is(err, domain.ErrUserNotFound) {
					logger.Warn("token subject unknown", zap.String("subject", subject))
					reject(ctx, fasthttp.StatusUnauthorized, domain.TokenError("invalid or expired token"))
					return
				}
				logger.Error("credential store lookup failed", zap.Error(err))
				reject(ctx, fasthttp.StatusInternalServerError, errors.New("internal server error"))
				return
			}

			if !tokens.IsValidFor(tokenString, user.Email) {
				reject(ctx, fasthttp.StatusUnauthorized, domain.TokenError("invalid or expired token"))
				return
			}

			ctx.SetUserValue(httpcontext.IdentityUserValue, domain.Identity{
				Email: user.Email,
				Roles: user.Roles,
			})
			next(ctx)
		}
	}
}

func isPublic(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func bearerToken(ctx *fasthttp.RequestCtx) (string, bool) {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// reject writes the error envelope. The gate cannot reuse the handler
// helpers without an import cycle, so it marshals the envelope directly.
func reject(ctx *fasthttp.RequestCtx, status int, err error) {
	resp := transport.NewErrorResponse(string(ctx.Path()), err)
	body, _ := json.Marshal(resp)
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
