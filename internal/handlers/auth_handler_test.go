package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalogo/internal/handlers"
	"catalogo/internal/middleware"
	"catalogo/internal/models"
	"catalogo/internal/repositories"
	"catalogo/internal/services"
	"catalogo/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupAuthApp builds a Fiber app with the auth routes and a protected probe
// route guarded by the JWT middleware.
func setupAuthApp(t *testing.T) (*fiber.App, *services.AuthService) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	authService := services.NewAuthService(userRepo, "test_jwt_secret", logger.Discard())
	authHandler := handlers.NewAuthHandler(authService, logger.Discard())

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("/profile", middleware.AuthRequired(authService, logger.Discard()))
	protected.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"username": c.Locals("username")})
	})

	return app, authService
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	assert.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, authService := setupAuthApp(t)

	userToRegister := map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
	resp := postJSON(t, app, "/api/v1/auth/register", userToRegister)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var registerResp map[string]interface{}
	err := json.NewDecoder(resp.Body).Decode(&registerResp)
	assert.NoError(t, err)
	assert.Equal(t, "User registered successfully", registerResp["message"])
	resp.Body.Close()

	// Registering the same username again conflicts.
	resp = postJSON(t, app, "/api/v1/auth/register", userToRegister)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"username": "testuser",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	err = json.NewDecoder(resp.Body).Decode(&loginResp)
	assert.NoError(t, err)
	assert.NotEmpty(t, loginResp["token"])
	resp.Body.Close()

	claims, err := authService.ValidateToken(loginResp["token"])
	assert.NoError(t, err)
	assert.Equal(t, "testuser", claims["username"])
	assert.Contains(t, claims, "user_id")
}

func TestAuthLoginWrongPassword(t *testing.T) {
	app, _ := setupAuthApp(t)

	resp := postJSON(t, app, "/api/v1/auth/register", map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"username": "testuser",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthRequiredMiddleware(t *testing.T) {
	app, _ := setupAuthApp(t)

	// No Authorization header.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Wrong scheme.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Basic abcdef")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Garbage token.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// A real token passes and the claims land in the request context.
	registerResp := postJSON(t, app, "/api/v1/auth/register", map[string]string{
		"username": "authuser",
		"email":    "auth@example.com",
		"password": "securepassword",
	})
	assert.Equal(t, http.StatusCreated, registerResp.StatusCode)
	registerResp.Body.Close()

	loginHTTPResp := postJSON(t, app, "/api/v1/auth/login", map[string]string{
		"username": "authuser",
		"password": "securepassword",
	})
	assert.Equal(t, http.StatusOK, loginHTTPResp.StatusCode)
	var loginResp map[string]string
	assert.NoError(t, json.NewDecoder(loginHTTPResp.Body).Decode(&loginResp))
	loginHTTPResp.Body.Close()

	req = httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp["token"])
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var profile map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, "authuser", profile["username"])
	resp.Body.Close()
}
