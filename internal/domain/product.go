package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog. Products are soft-deleted by
// clearing IsActive; rows are never physically removed so order history keeps
// a valid reference.
type Product struct {
	ID          uuid.UUID           `json:"id" db:"id"`
	Name        string              `json:"name" db:"name"`
	Description string              `json:"description" db:"description"`
	Price       decimal.Decimal     `json:"price" db:"price"`
	Category    string              `json:"category" db:"category"`
	Stock       int                 `json:"stock" db:"stock"`
	ImageURL    string              `json:"image_url" db:"image_url"`
	SKU         *string             `json:"sku,omitempty" db:"sku"`
	Brand       *string             `json:"brand,omitempty" db:"brand"`
	Weight      decimal.NullDecimal `json:"weight,omitempty" db:"weight"`
	IsActive    bool                `json:"is_active" db:"is_active"`
	IsFeatured  bool                `json:"is_featured" db:"is_featured"`
	Discount    decimal.Decimal     `json:"discount" db:"discount"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" db:"updated_at"`
}

// FinalPrice returns the price after the discount percentage is applied,
// rounded to 2 decimal places.
func (p *Product) FinalPrice() decimal.Decimal {
	if p.Discount.IsPositive() {
		discountAmount := p.Price.Mul(p.Discount).Div(decimal.NewFromInt(100))
		return p.Price.Sub(discountAmount).Round(2)
	}
	return p.Price.Round(2)
}
