package repositories

import (
	"catalogo/internal/models"
)

// Page is one page of products plus the pagination bookkeeping the API
// envelope is built from.
type Page struct {
	Items   []models.Product
	Total   int64
	Page    int
	PerPage int
}

// LastPage returns the number of the final page for this result set.
func (p *Page) LastPage() int {
	if p.Total == 0 {
		return 1
	}
	last := int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if last < 1 {
		last = 1
	}
	return last
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(page, perPage int) (*Page, error)
	SearchByName(query string, page, perPage int) (*Page, error)
	Autocomplete(query string, limit int) ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
}
