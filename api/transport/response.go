package transport

import (
	"time"

	"github.com/altenshop/backend/domain"
)

// ErrorResponse is the uniform failure envelope returned by every endpoint.
type ErrorResponse struct {
	Timestamp        time.Time `json:"timestamp"`
	Path             string    `json:"path"`
	BusinessCode     int       `json:"businessErrorCode,omitempty"`
	BusinessMessage  string    `json:"businessErrorDescription,omitempty"`
	Error            string    `json:"error"`
	ValidationErrors []string  `json:"validationErrors,omitempty"`
}

// NewErrorResponse builds the envelope from a (possibly wrapped) domain error.
func NewErrorResponse(path string, err error) ErrorResponse {
	resp := ErrorResponse{
		Timestamp: time.Now().UTC(),
		Path:      path,
		Error:     err.Error(),
	}
	if code := domain.CodeOf(err); code != domain.CodeNone {
		resp.BusinessCode = int(code)
		resp.BusinessMessage = code.Description()
	}
	return resp
}

// NewValidationErrorResponse builds the envelope for rejected payloads.
func NewValidationErrorResponse(path string, messages []string) ErrorResponse {
	return ErrorResponse{
		Timestamp:        time.Now().UTC(),
		Path:             path,
		Error:            "validation failed",
		ValidationErrors: messages,
	}
}

type TokenResponse struct {
	Token string `json:"token"`
}

type MessageResponse struct {
	Result string `json:"result"`
}

type ProductResponse struct {
	ID                int64   `json:"id"`
	Code              string  `json:"code"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Image             string  `json:"image"`
	Category          string  `json:"category"`
	Price             float64 `json:"price"`
	Quantity          int     `json:"quantity"`
	InternalReference string  `json:"internalReference"`
	ShellID           int64   `json:"shellId"`
	InventoryStatus   string  `json:"inventoryStatus"`
	Rating            float64 `json:"rating"`
	Version           int64   `json:"version"`
	CreatedAt         int64   `json:"createdAt"`
	UpdatedAt         int64   `json:"updatedAt"`
}

func NewProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID,
		Code:              p.Code,
		Name:              p.Name,
		Description:       p.Description,
		Image:             p.Image,
		Category:          p.Category,
		Price:             p.Price,
		Quantity:          p.Quantity,
		InternalReference: p.InternalReference,
		ShellID:           p.ShellID,
		InventoryStatus:   string(p.InventoryStatus),
		Rating:            p.Rating,
		Version:           p.Version,
		CreatedAt:         p.CreatedAt.UnixMilli(),
		UpdatedAt:         p.UpdatedAt.UnixMilli(),
	}
}

type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int               `json:"total"`
}

func NewProductListResponse(products []domain.Product) ProductListResponse {
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, NewProductResponse(&products[i]))
	}
	return ProductListResponse{Items: items, Total: len(items)}
}
