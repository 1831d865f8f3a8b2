package repository

import (
	"context"

	"github.com/altenshop/backend/domain"
)

// ProductFilter narrows catalog listings. At most one of Category, Status
// and Query is applied, mirroring the original search behavior.
type ProductFilter struct {
	Category string
	Status   domain.InventoryStatus
	Query    string
	Limit    int
	Offset   int
}

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	// Update applies an optimistic-lock update; domain.ErrOptimisticLock is
	// returned when the stored version no longer matches product.Version.
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// ProductCache is a read-through cache in front of ProductRepository.GetByID.
type ProductCache interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Invalidate(ctx context.Context, id int64) error
}
