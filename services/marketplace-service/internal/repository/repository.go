package repository

import (
	"context"
	"errors"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/model"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when an insert violates a uniqueness constraint.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNoFieldsToUpdate is returned by partial updates that carry no fields.
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

// UserRepository defines the interface for user-related database operations.
// Every implementation enforces uniqueness of email and username.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, email string, params UpdateUserParams) (*model.User, error)
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated.
type UpdateUserParams struct {
	PasswordHash *string
	Confirmed    *bool
}

// IsEmpty reports whether no field is set.
func (p UpdateUserParams) IsEmpty() bool {
	return p.PasswordHash == nil && p.Confirmed == nil
}

// ProductRepository defines the interface for product-related database operations.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ListProductsParams defines pagination for product listings. Results are newest first.
type ListProductsParams struct {
	Limit  uint64
	Offset uint64
}

// DefaultListLimit applies when ListProductsParams.Limit is zero.
const DefaultListLimit = 50

// EffectiveLimit returns Limit or DefaultListLimit when unset.
func (p ListProductsParams) EffectiveLimit() uint64 {
	if p.Limit == 0 {
		return DefaultListLimit
	}
	return p.Limit
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
