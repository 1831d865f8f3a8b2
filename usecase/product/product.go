// Package product implements the catalog use cases. Reads are open to any
// authenticated user; writes are restricted to the reserved admin identity.
package product

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/altenshop/backend/domain"
	"github.com/altenshop/backend/repository"
)

// Service applies catalog business rules on top of the repository and keeps
// the read cache coherent with writes.
type Service struct {
	repo       repository.ProductRepository
	cache      repository.ProductCache
	adminEmail string
	logger     *zap.Logger
}

func NewService(repo repository.ProductRepository, cache repository.ProductCache, adminEmail string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		cache:      cache,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// authorizeWrite is the single permission check for catalog mutations: the
// ADMIN role plus the reserved admin identity.
func (s *Service) authorizeWrite(id domain.Identity) error {
	decision := domain.Authorize(id, domain.RoleAdmin, func(id domain.Identity) bool {
		return id.Email == s.adminEmail
	})
	if !decision.Allowed {
		return domain.NewError(domain.CodeProductOperationForbidden, decision.Reason)
	}
	return nil
}

func (s *Service) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	if filter.Status != "" {
		status, err := domain.ParseInventoryStatus(string(filter.Status))
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}
	return s.repo.List(ctx, filter)
}

// Get serves reads through the cache; a miss falls back to Postgres and
// repopulates the entry.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, id); err == nil {
			return cached, nil
		}
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, product); err != nil {
			s.logger.Warn("product cache set failed", zap.Int64("id", id), zap.Error(err))
		}
	}
	return product, nil
}

func (s *Service) Create(ctx context.Context, id domain.Identity, product *domain.Product) (*domain.Product, error) {
	if err := s.authorizeWrite(id); err != nil {
		return nil, err
	}

	if product.Code == "" {
		product.Code = domain.NewProductCode()
	} else {
		taken, err := s.repo.ExistsByCode(ctx, product.Code)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrProductCodeExists
		}
	}
	product.NormalizeForCreate()

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) Update(ctx context.Context, id domain.Identity, product *domain.Product) (*domain.Product, error) {
	if err := s.authorizeWrite(id); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	// The SKU is immutable once assigned.
	product.Code = current.Code
	product.NormalizeForUpdate()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx, product.ID)
	return product, nil
}

func (s *Service) Delete(ctx context.Context, id domain.Identity, productID int64) error {
	if err := s.authorizeWrite(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return err
	}
	s.invalidate(ctx, productID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil && !errors.Is(err, domain.ErrProductNotFound) {
		s.logger.Warn("product cache invalidation failed", zap.Int64("id", id), zap.Error(err))
	}
}
