package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"catalogo/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It backs demo mode and tests that don't want a database.
type MockProductRepository struct {
	products map[uint]models.Product
	nextID   uint
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[uint]models.Product),
		nextID:   1,
	}
}

// List returns one page of products ordered by ID.
func (r *MockProductRepository) List(page, perPage int) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sorted()
	return r.paginate(all, page, perPage), nil
}

// SearchByName returns one page of products whose name contains query.
// Matching is case-insensitive, like SQLite's LIKE on ASCII.
func (r *MockProductRepository) SearchByName(query string, page, perPage int) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.match(query)
	return r.paginate(matched, page, perPage), nil
}

// Autocomplete returns up to limit matching products, id and name only.
func (r *MockProductRepository) Autocomplete(query string, limit int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.match(query)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	results := make([]models.Product, 0, len(matched))
	for _, p := range matched {
		results = append(results, models.Product{ID: p.ID, Name: p.Name})
	}
	return results, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %d: %w", id, models.ErrNotFound)
	}
	return &product, nil
}

// Create adds a new product and assigns the next ID.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == 0 {
		product.ID = r.nextID
	}
	if product.ID >= r.nextID {
		r.nextID = product.ID + 1
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %d: %w", product.ID, models.ErrNotFound)
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %d: %w", id, models.ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

func (r *MockProductRepository) sorted() []models.Product {
	all := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func (r *MockProductRepository) match(query string) []models.Product {
	q := strings.ToLower(query)
	var matched []models.Product
	for _, p := range r.sorted() {
		if strings.Contains(strings.ToLower(p.Name), q) {
			matched = append(matched, p)
		}
	}
	return matched
}

func (r *MockProductRepository) paginate(all []models.Product, page, perPage int) *Page {
	total := int64(len(all))
	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return &Page{Items: all[start:end], Total: total, Page: page, PerPage: perPage}
}
