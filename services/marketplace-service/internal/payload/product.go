package payload

import (
	"time"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/model"
)

type AddProductRequest struct {
	Name        string  `json:"name"        validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Price       float64 `json:"price"       validate:"gte=0"`
	Category    string  `json:"category"    validate:"max=100"`
}

type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Owner:       p.Owner,
		CreatedAt:   p.CreatedAt,
	}
}

type AddProductResponse struct {
	Message string          `json:"message"`
	Product ProductResponse `json:"product"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}
