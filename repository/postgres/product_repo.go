package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altenshop/backend/domain"
	"github.com/altenshop/backend/repository"
)

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository instantiates the Postgres-backed catalog store.
func NewProductRepository(pool *pgxpool.Pool) repository.ProductRepository {
	return &productRepository{pool: pool}
}

const productColumns = `
	id, code, name, description, image, category, price, quantity,
	internal_reference, shell_id, inventory_status, rating, version,
	created_at, updated_at
`

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(r.pool.QueryRow(ctx, query, id))
}

func (r *productRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case filter.Category != "":
		where = append(where, "LOWER(category) = LOWER("+arg(filter.Category)+")")
	case filter.Status != "":
		where = append(where, "inventory_status = "+arg(string(filter.Status)))
	case filter.Query != "":
		p := arg("%" + filter.Query + "%")
		where = append(where, "(name ILIKE "+p+" OR code ILIKE "+p+" OR description ILIKE "+p+")")
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	const query = `
		INSERT INTO products (
			code, name, description, image, category, price, quantity,
			internal_reference, shell_id, inventory_status, rating, version,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, NOW(), NOW())
		RETURNING id, version, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		product.Code, product.Name, product.Description, product.Image,
		product.Category, product.Price, product.Quantity,
		product.InternalReference, product.ShellID,
		string(product.InventoryStatus), product.Rating,
	).Scan(&product.ID, &product.Version, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProductCodeExists
		}
		return err
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	// Version bump is the optimistic-lock enforcement: zero rows means the
	// product vanished or was updated concurrently.
	const query = `
		UPDATE products
		SET name = $2, description = $3, image = $4, category = $5,
			price = $6, quantity = $7, internal_reference = $8, shell_id = $9,
			inventory_status = $10, rating = $11,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $12
		RETURNING version, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Image,
		product.Category, product.Price, product.Quantity,
		product.InternalReference, product.ShellID,
		string(product.InventoryStatus), product.Rating, product.Version,
	).Scan(&product.Version, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			exists, exErr := r.existsByID(ctx, product.ID)
			if exErr == nil && !exists {
				return domain.ErrProductNotFound
			}
			return domain.ErrOptimisticLock
		}
		return err
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *productRepository) existsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p      domain.Product
		status string
	)
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.Image, &p.Category,
		&p.Price, &p.Quantity, &p.InternalReference, &p.ShellID,
		&status, &p.Rating, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	p.InventoryStatus = domain.InventoryStatus(status)
	return &p, nil
}
