package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultImageURL is served for products that never had an image attached.
const DefaultImageURL = "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcRwm0rdbOAslibv0mLIxWKZ6C6r9m8fujTIBA&s"

// Product represents a product in the catalog.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:60" validate:"required,min=4,max=60"`
	Slug        string          `json:"slug" gorm:"size:80;index"`
	Description string          `json:"description" gorm:"size:255" validate:"required,max=255"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Image       *string         `json:"image" gorm:"size:255"` // relative storage path, nil when no image was uploaded
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ImageURL returns the public URL for the product image, or the default
// placeholder when no image is stored. baseURL is the configured public base
// (e.g. "http://localhost:8080").
func (p *Product) ImageURL(baseURL string) string {
	if p.Image == nil || *p.Image == "" {
		return DefaultImageURL
	}
	return baseURL + "/storage/" + *p.Image
}
