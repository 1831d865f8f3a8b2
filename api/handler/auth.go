package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/altenshop/backend/api/transport"
	"github.com/altenshop/backend/domain"
	"github.com/altenshop/backend/pkg/httpcontext"
	accountUC "github.com/altenshop/backend/usecase/account"
)

type AuthHandler struct {
	baseHandler
	accounts *accountUC.Service
}

func NewAuthHandler(accounts *accountUC.Service, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		accounts:    accounts,
	}
}

// @Summary Register a new account
// @Tags auth
// @Router /auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegistrationRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	err := h.accounts.Register(stdCtx, accountUC.RegistrationInput{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Password:  req.Password,
	}, localeParam(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusAccepted, nil)
}

// @Summary Exchange credentials for a bearer token
// @Tags auth
// @Router /auth/authenticate [post]
func (h *AuthHandler) Authenticate(ctx *fasthttp.RequestCtx) {
	var req transport.AuthenticationRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	token, err := h.accounts.Authenticate(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.TokenResponse{Token: token})
}

// @Summary Validate an emailed activation code
// @Tags auth
// @Router /auth/activate-account [get]
func (h *AuthHandler) ActivateAccount(ctx *fasthttp.RequestCtx) {
	code := string(ctx.QueryArgs().Peek("code"))
	if code == "" {
		h.respondError(ctx, domain.TokenError("activation code is required"))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.accounts.ActivateAccount(stdCtx, code, localeParam(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.MessageResponse{Result: "account activated"})
}

// @Summary Email a password-reset link
// @Tags auth
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(ctx *fasthttp.RequestCtx) {
	var req transport.ResetPasswordRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.accounts.RequestPasswordReset(stdCtx, req.Email, localeParam(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.MessageResponse{Result: "reset email sent"})
}

// @Summary Set a new password using a reset token
// @Tags auth
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(ctx *fasthttp.RequestCtx) {
	var req transport.ChangePasswordRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.accounts.ChangePassword(stdCtx, req.Token, req.NewPassword); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.MessageResponse{Result: "password changed"})
}

func localeParam(ctx *fasthttp.RequestCtx) string {
	if locale := string(ctx.QueryArgs().Peek("locale")); locale != "" {
		return locale
	}
	return "en"
}
