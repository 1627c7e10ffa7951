package services

import (
	"fmt"
	"time"

	"catalogo/internal/models"
	"catalogo/internal/repositories"
	"catalogo/pkg/logger"
	"catalogo/pkg/rabbitmq"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// DefaultPerPage is used when the caller does not specify a page size.
const DefaultPerPage = 10

// AutocompleteLimit caps the number of autocomplete matches returned.
const AutocompleteLimit = 5

// CreateProductInput is the validated attribute set for a new product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

// UpdateProductInput carries a partial attribute set. Nil fields are left
// unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
}

// ProductService handles the product lifecycle: validation results in,
// repository and blob store calls out.
type ProductService struct {
	repo   repositories.ProductRepository
	images *ImageService
	mq     *rabbitmq.Client
	log    *logger.Logger
}

// NewProductService creates a new ProductService. mq may be nil, in which case
// no events are published.
func NewProductService(repo repositories.ProductRepository, images *ImageService, mq *rabbitmq.Client, log *logger.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		images: images,
		mq:     mq,
		log:    log,
	}
}

// ListProducts retrieves one page of products. perPage defaults to
// DefaultPerPage when not positive; there is no upper bound.
func (s *ProductService) ListProducts(page, perPage int) (*repositories.Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return s.repo.List(page, perPage)
}

// SearchProducts retrieves one page of products whose name contains query.
// An empty result set is reported as ErrNotFound, not as an empty page.
func (s *ProductService) SearchProducts(query string, page, perPage int) (*repositories.Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	result, err := s.repo.SearchByName(query, page, perPage)
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, fmt.Errorf("no products matching %q: %w", query, models.ErrNotFound)
	}
	return result, nil
}

// AutocompleteProducts returns up to AutocompleteLimit products matching
// query, carrying only ID and name. Zero matches is ErrNotFound.
func (s *ProductService) AutocompleteProducts(query string) ([]models.Product, error) {
	matches, err := s.repo.Autocomplete(query, AutocompleteLimit)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no products matching %q: %w", query, models.ErrNotFound)
	}
	return matches, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id uint) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct persists a new product and, when an upload is present, stores
// its image. The row is inserted first so the assigned ID is available for the
// image filename; the image path is then written back in a second update.
// There is no transaction spanning the row and the blob: a failed blob write
// leaves the row with a null image and is returned as an error.
func (s *ProductService) CreateProduct(input CreateProductInput, upload *ImageUpload) (*models.Product, error) {
	product := &models.Product{
		Name:        input.Name,
		Slug:        slug.Make(input.Name),
		Description: input.Description,
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
	}

	if err := s.repo.Create(product); err != nil {
		return nil, err
	}

	if upload != nil {
		path, err := s.images.Store(upload, product.Name, product.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to store image for product %d: %w", product.ID, err)
		}
		product.Image = &path
		if err := s.repo.Update(product); err != nil {
			return nil, err
		}
	}

	s.publish("product.created", product)
	return product, nil
}

// UpdateProduct applies a partial update and optionally replaces the image.
// The old blob is deleted before the new one is written; the new filename is
// derived from the post-update name. A delete failure is logged and ignored.
func (s *ProductService) UpdateProduct(id uint, input UpdateProductInput, upload *ImageUpload) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
		product.Slug = slug.Make(*input.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = input.Price.Round(2)
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}

	if upload != nil {
		if product.Image != nil {
			if err := s.images.Delete(*product.Image); err != nil {
				s.log.Warn().Err(err).Uint("product_id", product.ID).Msg("failed to delete old product image")
			}
		}
		path, err := s.images.Store(upload, product.Name, product.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to store image for product %d: %w", product.ID, err)
		}
		product.Image = &path
		if err := s.repo.Update(product); err != nil {
			return nil, err
		}
	}

	s.publish("product.updated", product)
	return product, nil
}

// DeleteProduct removes a product and its image. A blob delete failure is
// logged but does not stop the row deletion.
func (s *ProductService) DeleteProduct(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if product.Image != nil {
		if err := s.images.Delete(*product.Image); err != nil {
			s.log.Warn().Err(err).Uint("product_id", product.ID).Msg("failed to delete product image")
		}
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.publish("product.deleted", product)
	return nil
}

// publish sends a lifecycle event to the message queue, best effort. Failures
// never fail the request.
func (s *ProductService) publish(eventType string, product *models.Product) {
	if s.mq == nil {
		return
	}
	err := s.mq.PublishProductEvent(eventType, rabbitmq.ProductEvent{
		ProductID:  product.ID,
		Name:       product.Name,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Uint("product_id", product.ID).Msg("failed to publish product event")
	}
}
