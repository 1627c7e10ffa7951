package handlers

import (
	"catalogo/internal/models"

	"github.com/gofiber/fiber/v2"
)

// defaultDateLayout is the created_at format when the caller supplies none,
// the Go layout for "YYYY-MM-DD HH:mm:ss".
const defaultDateLayout = "2006-01-02 15:04:05"

// productResource shapes a product for a response. name, description, price,
// stock and the derived image URL are always present; id, slug and created_at
// are opt-in via query flags.
func productResource(c *fiber.Ctx, p *models.Product, baseURL string) fiber.Map {
	resource := fiber.Map{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.StringFixed(2),
		"stock":       p.Stock,
		"image":       p.ImageURL(baseURL),
	}

	if hasQueryFlag(c, "include_id") {
		resource["id"] = p.ID
	}
	if hasQueryFlag(c, "include_slug") {
		resource["slug"] = p.Slug
	}
	if hasQueryFlag(c, "include_timestamps") {
		layout := c.Query("date_format", defaultDateLayout)
		resource["created_at"] = p.CreatedAt.Format(layout)
	}

	return resource
}

// hasQueryFlag reports whether the query parameter is present at all, value
// or not.
func hasQueryFlag(c *fiber.Ctx, key string) bool {
	return c.Context().QueryArgs().Has(key)
}
