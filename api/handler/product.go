package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/altenshop/backend/api/transport"
	"github.com/altenshop/backend/domain"
	"github.com/altenshop/backend/pkg/httpcontext"
	"github.com/altenshop/backend/repository"
	productUC "github.com/altenshop/backend/usecase/product"
)

type ProductHandler struct {
	baseHandler
	products *productUC.Service
}

func NewProductHandler(products *productUC.Service, adapter *httpcontext.Adapter, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		baseHandler: newBaseHandler(adapter, logger),
		products:    products,
	}
}

// @Summary List products
// @Tags products
// @Router /products [get]
func (h *ProductHandler) List(ctx *fasthttp.RequestCtx) {
	if _, ok := h.requireIdentity(ctx); !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	filter := repository.ProductFilter{
		Category: string(ctx.QueryArgs().Peek("category")),
		Status:   domain.InventoryStatus(ctx.QueryArgs().Peek("status")),
		Query:    string(ctx.QueryArgs().Peek("q")),
		Limit:    queryInt(ctx, "limit"),
		Offset:   queryInt(ctx, "offset"),
	}

	products, err := h.products.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewProductListResponse(products))
}

// @Summary Fetch one product
// @Tags products
// @Router /products/{id} [get]
func (h *ProductHandler) Get(ctx *fasthttp.RequestCtx) {
	if _, ok := h.requireIdentity(ctx); !ok {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	product, err := h.products.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewProductResponse(product))
}

// @Summary Create a product
// @Tags products
// @Router /products [post]
func (h *ProductHandler) Create(ctx *fasthttp.RequestCtx) {
	identity, ok := h.requireIdentity(ctx)
	if !ok {
		return
	}
	var req transport.ProductRequest
	if !h.decode(ctx, &req) {
		return
	}

	product, err := productFromRequest(&req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.products.Create(stdCtx, identity, product)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusCreated, transport.NewProductResponse(created))
}

// @Summary Update a product
// @Tags products
// @Router /products/{id} [put]
func (h *ProductHandler) Update(ctx *fasthttp.RequestCtx) {
	identity, ok := h.requireIdentity(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	var req transport.ProductRequest
	if !h.decode(ctx, &req) {
		return
	}

	product, err := productFromRequest(&req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	product.ID = id

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.products.Update(stdCtx, identity, product)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewProductResponse(updated))
}

// @Summary Delete a product
// @Tags products
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(ctx *fasthttp.RequestCtx) {
	identity, ok := h.requireIdentity(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.products.Delete(stdCtx, identity, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusNoContent, nil)
}

func (h *ProductHandler) pathID(ctx *fasthttp.RequestCtx) (int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.respondValidation(ctx, []string{"id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func productFromRequest(req *transport.ProductRequest) (*domain.Product, error) {
	product := &domain.Product{
		Code:              req.Code,
		Name:              req.Name,
		Description:       req.Description,
		Image:             req.Image,
		Category:          req.Category,
		Price:             req.Price,
		Quantity:          req.Quantity,
		InternalReference: req.InternalReference,
		ShellID:           req.ShellID,
		Rating:            req.Rating,
		Version:           req.Version,
	}
	if req.InventoryStatus != "" {
		status, err := domain.ParseInventoryStatus(req.InventoryStatus)
		if err != nil {
			return nil, err
		}
		product.InventoryStatus = status
	}
	return product, nil
}

func queryInt(ctx *fasthttp.RequestCtx, name string) int {
	value, err := strconv.Atoi(string(ctx.QueryArgs().Peek(name)))
	if err != nil {
		return 0
	}
	return value
}
