package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/storage"
)

// ProductUsecase manages listings. The owner is always the authenticated account email.
type ProductUsecase interface {
	AddProduct(ctx context.Context, owner string, params AddProductParams) (*model.Product, error)
	ListProducts(ctx context.Context, params repository.ListProductsParams) ([]*model.Product, error)
	DeleteProduct(ctx context.Context, owner, id string) error
}

type AddProductParams struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Image       storage.Object
}

// ImageUploader stores an image and returns the URL it is served from.
type ImageUploader interface {
	Upload(ctx context.Context, obj storage.Object) (string, error)
}

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotProductOwner = errors.New("product belongs to another account")
)

type productUsecase struct {
	productRepo repository.ProductRepository
	images      ImageUploader
}

func NewProductUsecase(productRepo repository.ProductRepository, images ImageUploader) ProductUsecase {
	return &productUsecase{productRepo: productRepo, images: images}
}

func (u *productUsecase) AddProduct(ctx context.Context, owner string, params AddProductParams) (*model.Product, error) {
	imageURL, err := u.images.Upload(ctx, params.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to upload product image: %w", err)
	}

	return u.productRepo.CreateProduct(ctx, &model.Product{
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		Category:    params.Category,
		ImageURL:    imageURL,
		Owner:       owner,
	})
}

func (u *productUsecase) ListProducts(ctx context.Context, params repository.ListProductsParams) ([]*model.Product, error) {
	return u.productRepo.ListProducts(ctx, params)
}

func (u *productUsecase) DeleteProduct(ctx context.Context, owner, id string) error {
	product, err := u.productRepo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	if product.Owner != owner {
		return ErrNotProductOwner
	}

	if err := u.productRepo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	return nil
}
