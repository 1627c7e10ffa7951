package repositories

import (
	"errors"
	"fmt"

	"catalogo/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List retrieves one page of products ordered by primary key.
func (r *GORMProductRepository) List(page, perPage int) (*Page, error) {
	return r.paginate(r.db.Model(&models.Product{}), page, perPage)
}

// SearchByName retrieves one page of products whose name contains query.
// Case sensitivity follows the database collation, as LIKE does.
func (r *GORMProductRepository) SearchByName(query string, page, perPage int) (*Page, error) {
	tx := r.db.Model(&models.Product{}).Where("name LIKE ?", "%"+query+"%")
	return r.paginate(tx, page, perPage)
}

// Autocomplete returns up to limit products matching query, id and name only.
func (r *GORMProductRepository) Autocomplete(query string, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Model(&models.Product{}).
		Select("id", "name").
		Where("name LIKE ?", "%"+query+"%").
		Order("id ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to autocomplete products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database. The assigned ID is written
// back to the passed struct.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product) // Save updates all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// GORM's Save doesn't return ErrRecordNotFound when the row is
		// missing, so we check RowsAffected.
		return fmt.Errorf("product with ID %d: %w", product.ID, models.ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *GORMProductRepository) paginate(tx *gorm.DB, page, perPage int) (*Page, error) {
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	offset := (page - 1) * perPage
	if err := tx.Order("id ASC").Limit(perPage).Offset(offset).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &Page{Items: products, Total: total, Page: page, PerPage: perPage}, nil
}
