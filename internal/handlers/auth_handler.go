package handlers

import (
	"errors"

	"catalogo/internal/models"
	"catalogo/internal/services"
	"catalogo/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	auth     *services.AuthService
	validate *validator.Validate
	log      *logger.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *services.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	auth := router.Group("/auth")
	auth.Post("/register", h.HandleRegister)
	auth.Post("/login", h.HandleLogin)
}

// HandleRegister creates a new user account.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	fieldErrors := make(map[string]string)
	if err := h.validate.Struct(user); err != nil {
		collectFieldErrors(err, fieldErrors)
	}
	if len(fieldErrors) > 0 {
		return validationFailed(c, fieldErrors)
	}

	if err := h.auth.RegisterUser(&user); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Registration failed",
				"error":   err.Error(),
			})
		}
		h.log.Error().Err(err).Str("username", user.Username).Msg("failed to register user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not register user",
		})
	}

	user.Password = "" // never echo the hash
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// loginRequest is the login body.
type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin checks credentials and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	fieldErrors := make(map[string]string)
	if err := h.validate.Struct(req); err != nil {
		collectFieldErrors(err, fieldErrors)
	}
	if len(fieldErrors) > 0 {
		return validationFailed(c, fieldErrors)
	}

	token, err := h.auth.LoginUser(req.Username, req.Password)
	if err != nil {
		h.log.Warn().Str("username", req.Username).Msg("failed login attempt")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication failed",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}
