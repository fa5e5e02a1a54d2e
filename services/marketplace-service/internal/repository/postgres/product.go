package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/repository"
)

// ProductRepo implements repository.ProductRepository.
type ProductRepo struct {
	db  *DB
	now func() time.Time
}

var _ repository.ProductRepository = (*ProductRepo)(nil)

func NewProductRepo(db *DB) *ProductRepo {
	return &ProductRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const productColumns = `id, name, description, price, category, image_url, added_by, created_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageURL, &p.Owner, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	const q = `
INSERT INTO products (id, name, description, price, category, image_url, added_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	p := *product
	p.ID = uuid.NewString()
	p.CreatedAt = r.now()

	if _, err := r.db.Pool.Exec(ctx, q, p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL, p.Owner, p.CreatedAt); err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *ProductRepo) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}

	q := `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	p, err := scanProduct(r.db.Pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return p, err
}

func (r *ProductRepo) ListProducts(ctx context.Context, params repository.ListProductsParams) ([]*model.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, q, int64(params.EffectiveLimit()), int64(params.Offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]*model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (r *ProductRepo) DeleteProduct(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}

	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
