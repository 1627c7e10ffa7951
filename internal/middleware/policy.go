package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// Product actions checked against the configured policy.
const (
	ActionView   = "products.view"
	ActionCreate = "products.create"
	ActionUpdate = "products.update"
	ActionDelete = "products.delete"
)

// Policy decides whether a request may perform an action. The caller
// configures one at wiring time; AllowAllPolicy is the default.
type Policy interface {
	Allows(c *fiber.Ctx, action string) bool
}

// AllowAllPolicy permits every action.
type AllowAllPolicy struct{}

// Allows always returns true.
func (AllowAllPolicy) Allows(*fiber.Ctx, string) bool { return true }

// RequirePolicy is a Fiber middleware that rejects requests the policy does
// not allow.
func RequirePolicy(p Policy, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !p.Allows(c, action) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "This action is unauthorized",
			})
		}
		return c.Next()
	}
}
