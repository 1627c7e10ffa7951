package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"catalogo/internal/middleware"
	"catalogo/internal/models"
	"catalogo/internal/repositories"
	"catalogo/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// maxImageBytes caps uploaded images at 2048 KB.
const maxImageBytes = 2048 * 1024

var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
}

// productForm holds the raw form fields of a create request. Everything
// arrives as strings from the multipart body; conversion happens after
// validation.
type productForm struct {
	Name        string `validate:"required,min=4,max=60"`
	Description string `validate:"required,max=255"`
	Price       string `validate:"required,numeric"`
	Stock       string `validate:"required,number"`
}

// productUpdateForm is the partial variant: empty fields mean "leave
// unchanged".
type productUpdateForm struct {
	Name        string `validate:"omitempty,min=4,max=60"`
	Description string `validate:"omitempty,max=255"`
	Price       string `validate:"omitempty,numeric"`
	Stock       string `validate:"omitempty,number"`
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	policy   middleware.Policy
	validate *validator.Validate
	baseURL  string
}

// NewProductHandler creates a new ProductHandler. baseURL is the public base
// image URLs are derived from.
func NewProductHandler(service *services.ProductService, policy middleware.Policy, baseURL string) *ProductHandler {
	return &ProductHandler{
		service:  service,
		policy:   policy,
		validate: validator.New(),
		baseURL:  baseURL,
	}
}

// RegisterRoutes registers the product routes with the Fiber app. Search and
// autocomplete must come before the :id route.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Get("/", middleware.RequirePolicy(h.policy, middleware.ActionView), h.HandleListProducts)
	products.Get("/search", middleware.RequirePolicy(h.policy, middleware.ActionView), h.HandleSearchProducts)
	products.Get("/autocomplete", middleware.RequirePolicy(h.policy, middleware.ActionView), h.HandleAutocomplete)
	products.Get("/:id", middleware.RequirePolicy(h.policy, middleware.ActionView), h.HandleGetProduct)
	products.Post("/", middleware.RequirePolicy(h.policy, middleware.ActionCreate), h.HandleCreateProduct)
	products.Patch("/:id", middleware.RequirePolicy(h.policy, middleware.ActionUpdate), h.HandleUpdateProduct)
	products.Delete("/:id", middleware.RequirePolicy(h.policy, middleware.ActionDelete), h.HandleDeleteProduct)
}

// HandleListProducts returns a paginated product listing.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", services.DefaultPerPage)

	result, err := h.service.ListProducts(page, perPage)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(h.collection(c, result))
}

// HandleSearchProducts returns products whose name contains the q parameter.
// An empty result set is a 404, matching the rest of the API's not-found
// behavior.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", services.DefaultPerPage)

	result, err := h.service.SearchProducts(c.Query("q"), page, perPage)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(h.collection(c, result))
}

// HandleAutocomplete returns the top matches for the q parameter, id and name
// only, without a pagination envelope.
func (h *ProductHandler) HandleAutocomplete(c *fiber.Ctx) error {
	matches, err := h.service.AutocompleteProducts(c.Query("q"))
	if err != nil {
		return h.serviceError(c, err)
	}

	results := make([]fiber.Map, 0, len(matches))
	for _, p := range matches {
		results = append(results, fiber.Map{"id": p.ID, "name": p.Name})
	}
	return c.JSON(results)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, ok := h.productID(c)
	if !ok {
		return h.notFound(c)
	}

	product, err := h.service.GetProductByID(id)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{"data": productResource(c, product, h.baseURL)})
}

// HandleCreateProduct creates a new product from a multipart form, with an
// optional image file.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	form := productForm{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       c.FormValue("price"),
		Stock:       c.FormValue("stock"),
	}

	fieldErrors := make(map[string]string)
	if err := h.validate.Struct(form); err != nil {
		collectFieldErrors(err, fieldErrors)
	}

	input := services.CreateProductInput{
		Name:        form.Name,
		Description: form.Description,
	}
	if _, ok := fieldErrors["price"]; !ok && form.Price != "" {
		input.Price = h.parsePrice(form.Price, fieldErrors)
	}
	if _, ok := fieldErrors["stock"]; !ok && form.Stock != "" {
		input.Stock, _ = strconv.Atoi(form.Stock) // digits only after validation
	}

	upload := h.imageUpload(c, fieldErrors)

	if len(fieldErrors) > 0 {
		return validationFailed(c, fieldErrors)
	}

	product, err := h.service.CreateProduct(input, upload)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"data":    productResource(c, product, h.baseURL),
	})
}

// HandleUpdateProduct applies a partial update. Absent or empty form fields
// are left unchanged; a present image file replaces the stored one.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, ok := h.productID(c)
	if !ok {
		return h.notFound(c)
	}

	form := productUpdateForm{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       c.FormValue("price"),
		Stock:       c.FormValue("stock"),
	}

	fieldErrors := make(map[string]string)
	if err := h.validate.Struct(form); err != nil {
		collectFieldErrors(err, fieldErrors)
	}

	var input services.UpdateProductInput
	if form.Name != "" {
		input.Name = &form.Name
	}
	if form.Description != "" {
		input.Description = &form.Description
	}
	if _, ok := fieldErrors["price"]; !ok && form.Price != "" {
		price := h.parsePrice(form.Price, fieldErrors)
		input.Price = &price
	}
	if _, ok := fieldErrors["stock"]; !ok && form.Stock != "" {
		stock, _ := strconv.Atoi(form.Stock)
		input.Stock = &stock
	}

	upload := h.imageUpload(c, fieldErrors)

	if len(fieldErrors) > 0 {
		return validationFailed(c, fieldErrors)
	}

	product, err := h.service.UpdateProduct(id, input, upload)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"data":    productResource(c, product, h.baseURL),
	})
}

// HandleDeleteProduct deletes a product and its stored image.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, ok := h.productID(c)
	if !ok {
		return h.notFound(c)
	}

	if err := h.service.DeleteProduct(id); err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}

// productID parses the :id route parameter. Non-numeric IDs behave like
// missing resources.
func (h *ProductHandler) productID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return 0, false
	}
	return uint(id), true
}

// parsePrice converts the validated price field, recording a field error when
// it is negative.
func (h *ProductHandler) parsePrice(raw string, fieldErrors map[string]string) decimal.Decimal {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		fieldErrors["price"] = "The price must be a number"
		return decimal.Zero
	}
	if price.IsNegative() {
		fieldErrors["price"] = "The price may not be less than 0"
		return decimal.Zero
	}
	return price
}

// imageUpload extracts the optional image file from the request. A missing
// file is not an error; a wrong type or an oversized file records one.
func (h *ProductHandler) imageUpload(c *fiber.Ctx, fieldErrors map[string]string) *services.ImageUpload {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil // no image field in the form
	}

	if !allowedImageExts[strings.ToLower(filepath.Ext(fileHeader.Filename))] {
		fieldErrors["image"] = "The image must be a file of type: jpeg, png, jpg, webp"
		return nil
	}
	if fileHeader.Size > maxImageBytes {
		fieldErrors["image"] = "The image may not be greater than 2048 kilobytes"
		return nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		fieldErrors["image"] = "The image could not be read"
		return nil
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		fieldErrors["image"] = "The image could not be read"
		return nil
	}

	return &services.ImageUpload{Data: data, Filename: fileHeader.Filename}
}

// collection wraps a page of products in the data/links/meta envelope.
func (h *ProductHandler) collection(c *fiber.Ctx, page *repositories.Page) fiber.Map {
	data := make([]fiber.Map, 0, len(page.Items))
	for i := range page.Items {
		data = append(data, productResource(c, &page.Items[i], h.baseURL))
	}

	last := page.LastPage()
	base := c.BaseURL() + c.Path()
	pageURL := func(n int) string {
		params := url.Values{}
		params.Set("page", strconv.Itoa(n))
		params.Set("per_page", strconv.Itoa(page.PerPage))
		if q := c.Query("q"); q != "" {
			params.Set("q", q)
		}
		return base + "?" + params.Encode()
	}

	links := fiber.Map{
		"first": pageURL(1),
		"last":  pageURL(last),
		"prev":  nil,
		"next":  nil,
	}
	if page.Page > 1 {
		links["prev"] = pageURL(page.Page - 1)
	}
	if page.Page < last {
		links["next"] = pageURL(page.Page + 1)
	}

	var from, to interface{}
	if len(page.Items) > 0 {
		first := (page.Page-1)*page.PerPage + 1
		from = first
		to = first + len(page.Items) - 1
	}

	return fiber.Map{
		"data": data,
		"links": links,
		"meta": fiber.Map{
			"current_page": page.Page,
			"per_page":     page.PerPage,
			"total":        page.Total,
			"last_page":    last,
			"from":         from,
			"to":           to,
		},
	}
}

func (h *ProductHandler) serviceError(c *fiber.Ctx, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return h.notFound(c)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Could not process the request",
		"error":   err.Error(),
	})
}

func (h *ProductHandler) notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": "Resource does not exist",
	})
}

func validationFailed(c *fiber.Ctx, fieldErrors map[string]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  fieldErrors,
	})
}

// collectFieldErrors maps validator errors into the per-field message map.
func collectFieldErrors(err error, fieldErrors map[string]string) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return
	}
	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		fieldErrors[field] = fmt.Sprintf("Field '%s' failed on the '%s' rule", field, e.Tag())
	}
}
