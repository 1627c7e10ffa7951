package models_test

import (
	"testing"

	"catalogo/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestProduct_ImageURL(t *testing.T) {
	path := "products_images/product.png"
	product := &models.Product{ID: 1, Name: "Test Product", Image: &path}

	url := product.ImageURL("http://localhost:8080")
	assert.Equal(t, "http://localhost:8080/storage/products_images/product.png", url)
}

func TestProduct_ImageURL_Default(t *testing.T) {
	product := &models.Product{ID: 1, Name: "Test Product"}

	url := product.ImageURL("http://localhost:8080")
	assert.Equal(t, models.DefaultImageURL, url)
}
