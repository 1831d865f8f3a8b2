package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/altenshop/backend/api/transport"
	"github.com/altenshop/backend/domain"
	"github.com/altenshop/backend/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if payload == nil {
		return
	}
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

// respondError maps the business code carried by err onto an HTTP status
// and writes the uniform envelope.
func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status := http.StatusInternalServerError
	if code := domain.CodeOf(err); code != domain.CodeNone {
		status = code.HTTPStatus()
	} else {
		h.logger.Error("unhandled error", zap.String("path", string(ctx.Path())), zap.Error(err))
	}
	h.respondJSON(ctx, status, transport.NewErrorResponse(string(ctx.Path()), err))
}

func (h baseHandler) respondValidation(ctx *fasthttp.RequestCtx, messages []string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewValidationErrorResponse(string(ctx.Path()), messages))
}

func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondValidation(ctx, []string{"malformed request body"})
		return false
	}
	if messages := transport.Validate(dst); len(messages) > 0 {
		h.respondValidation(ctx, messages)
		return false
	}
	return true
}

// requireIdentity enforces that the gate authenticated the request.
func (h baseHandler) requireIdentity(ctx *fasthttp.RequestCtx) (domain.Identity, bool) {
	id, ok := ctx.UserValue(httpcontext.IdentityUserValue).(domain.Identity)
	if !ok {
		h.respondJSON(ctx, http.StatusUnauthorized,
			transport.NewErrorResponse(string(ctx.Path()), domain.TokenError("authentication required")))
		return domain.Identity{}, false
	}
	return id, true
}
