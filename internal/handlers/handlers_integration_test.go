package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"sweetshop/internal/handlers"
	"sweetshop/internal/middleware"
	"sweetshop/internal/models"
	"sweetshop/internal/repositories"
	"sweetshop/internal/services"
	"sweetshop/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test_jwt_secret"

type testEnv struct {
	app         *fiber.App
	authService *services.AuthService
	sweetRepo   repositories.SweetRepository
	userToken   string
	adminToken  string
}

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	// Each test gets its own in-memory database
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := repositories.OpenDatabase("sqlite", dsn)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	sweetRepo := repositories.NewGORMSweetRepository(db)
	accountRepo := repositories.NewGORMAccountRepository(db)

	authService := services.NewAuthService(accountRepo, testJWTSecret, 7*24*time.Hour)
	sweetService := services.NewSweetService(sweetRepo, nil, 5)

	validate := validation.New()
	authHandler := handlers.NewAuthHandler(authService, validate)
	sweetHandler := handlers.NewSweetHandler(sweetService, validate)

	app := fiber.New()
	api := app.Group("/api")

	// Authentication routes (public)
	authHandler.RegisterRoutes(api)

	// Protected routes (require JWT authentication)
	protectedRoutes := api.Group("", middleware.AuthRequired(authService))
	sweetHandler.RegisterRoutes(protectedRoutes)

	userToken, err := authService.IssueToken(&models.Account{ID: uuid.New().String()})
	require.NoError(t, err)
	adminToken, err := authService.IssueToken(&models.Account{ID: uuid.New().String(), IsAdmin: true})
	require.NoError(t, err)

	return &testEnv{
		app:         app,
		authService: authService,
		sweetRepo:   sweetRepo,
		userToken:   userToken,
		adminToken:  adminToken,
	}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		jsonBody, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBody
}

func decode(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

type sweetEnvelope struct {
	Message string       `json:"message"`
	Sweet   models.Sweet `json:"sweet"`
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t)

	// Test Registration
	status, body := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, status)
	var registerResp handlers.AuthResponse
	decode(t, body, &registerResp)
	assert.NotEmpty(t, registerResp.ID)
	assert.Equal(t, "Test User", registerResp.Name)
	assert.Equal(t, "test@example.com", registerResp.Email)
	assert.False(t, registerResp.IsAdmin)
	assert.NotEmpty(t, registerResp.Token)
	assert.NotContains(t, string(body), "password")

	// Test Duplicate Registration
	status, body = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Another User",
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Email already in use")

	// Test Login
	status, body = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, status)
	var loginResp handlers.AuthResponse
	decode(t, body, &loginResp)
	assert.Equal(t, registerResp.ID, loginResp.ID)

	claims, err := env.authService.ValidateToken(loginResp.Token)
	require.NoError(t, err)
	assert.Equal(t, registerResp.ID, claims.ID)
	assert.False(t, claims.IsAdmin)

	// Wrong password and unknown email fail identically
	status, wrongPassword := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	status, unknownEmail := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, string(wrongPassword), string(unknownEmail))

	// Email comparison is case-sensitive
	status, _ = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "TEST@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuthRegisterValidation(t *testing.T) {
	env := setupApp(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing fields", map[string]string{}},
		{"invalid email", map[string]string{"name": "Test", "email": "not-an-email", "password": "123456"}},
		{"short password", map[string]string{"name": "ShortPass", "email": "shortpass@example.com", "password": "123"}},
		{"empty name", map[string]string{"name": "", "email": "emptyname@example.com", "password": "password123"}},
		{"name of spaces", map[string]string{"name": "   ", "email": "spacesonly@example.com", "password": "password123"}},
		{"password of spaces", map[string]string{"name": "SpacePass", "email": "spacepass@example.com", "password": "      "}},
		{"suspicious domain", map[string]string{"name": "Suspicious", "email": "test@", "password": "password123"}},
		{"unexpected fields", map[string]string{"name": "Extra", "email": "extra@example.com", "password": "password123", "isAdmin": "true"}},
		{"not json", "this is plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			var resp struct {
				Message string                  `json:"message"`
				Errors  []validation.FieldError `json:"errors"`
			}
			decode(t, body, &resp)
			assert.Equal(t, "Validation failed", resp.Message)
			assert.NotEmpty(t, resp.Errors)
		})
	}

	// Surrounding whitespace in the email is trimmed
	status, body := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "TrimCheck",
		"email":    "   test2@example.com   ",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, status)
	var resp handlers.AuthResponse
	decode(t, body, &resp)
	assert.Equal(t, "test2@example.com", resp.Email)
}

func TestSweetEndpointsWithoutAuth(t *testing.T) {
	env := setupApp(t)

	// Test GET /sweets without token
	status, _ := env.do(t, http.MethodGet, "/api/sweets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Test POST /sweets without token
	status, _ = env.do(t, http.MethodPost, "/api/sweets", "", map[string]interface{}{
		"name": "Unauthorized", "category": "Candy", "price": 1, "quantity": 1,
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	// Test tampered token
	status, _ = env.do(t, http.MethodGet, "/api/sweets", env.userToken+"x", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

// TestSweetLifecycle follows a sweet from creation through purchases,
// restocking and deletion.
func TestSweetLifecycle(t *testing.T) {
	env := setupApp(t)

	// Create
	status, body := env.do(t, http.MethodPost, "/api/sweets", env.userToken, map[string]interface{}{
		"name": "Lollipop", "category": "Candy", "price": 10, "quantity": 5,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var created models.Sweet
	decode(t, body, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Lollipop", created.Name)
	assert.Equal(t, 5, created.Quantity)
	sweetPath := "/api/sweets/" + created.ID

	// Purchase 2 -> 3 left
	status, body = env.do(t, http.MethodPost, sweetPath+"/purchase", env.userToken, map[string]int{"quantity": 2})
	require.Equal(t, http.StatusOK, status, string(body))
	var purchased sweetEnvelope
	decode(t, body, &purchased)
	assert.Equal(t, "Purchased", purchased.Message)
	assert.Equal(t, 3, purchased.Sweet.Quantity)

	// Purchase beyond stock fails and leaves stock untouched
	status, body = env.do(t, http.MethodPost, sweetPath+"/purchase", env.userToken, map[string]int{"quantity": 10})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Insufficient stock")

	// Non-positive purchases fail
	for _, qty := range []int{0, -1} {
		status, _ = env.do(t, http.MethodPost, sweetPath+"/purchase", env.userToken, map[string]int{"quantity": qty})
		assert.Equal(t, http.StatusBadRequest, status)
	}

	got, err := env.sweetRepo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	// Restock by non-admin is forbidden
	status, _ = env.do(t, http.MethodPost, sweetPath+"/restock", env.userToken, map[string]int{"amount": 10})
	assert.Equal(t, http.StatusForbidden, status)

	// Restock with a non-positive amount fails
	status, _ = env.do(t, http.MethodPost, sweetPath+"/restock", env.adminToken, map[string]int{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, status)

	// Oversized and case-variant restock bodies are validation errors, not stock errors
	status, body = env.do(t, http.MethodPost, sweetPath+"/restock", env.adminToken, map[string]int{"amount": math.MaxInt})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Validation failed")
	status, _ = env.do(t, http.MethodPost, sweetPath+"/restock", env.adminToken, map[string]int{"AMOUNT": 5})
	assert.Equal(t, http.StatusBadRequest, status)

	// Restock by admin -> 13
	status, body = env.do(t, http.MethodPost, sweetPath+"/restock", env.adminToken, map[string]int{"amount": 10})
	require.Equal(t, http.StatusOK, status, string(body))
	var restocked sweetEnvelope
	decode(t, body, &restocked)
	assert.Equal(t, "Restocked", restocked.Message)
	assert.Equal(t, 13, restocked.Sweet.Quantity)

	// Update price only
	status, body = env.do(t, http.MethodPut, sweetPath, env.userToken, map[string]interface{}{"price": 5})
	require.Equal(t, http.StatusOK, status, string(body))
	var updated models.Sweet
	decode(t, body, &updated)
	assert.Equal(t, 5.0, updated.Price)
	assert.Equal(t, 13, updated.Quantity)
	assert.Equal(t, "Lollipop", updated.Name)

	// Update rejects unknown keys
	status, _ = env.do(t, http.MethodPut, sweetPath, env.userToken, map[string]interface{}{"colour": "red"})
	assert.Equal(t, http.StatusBadRequest, status)

	// Delete by non-admin is forbidden
	status, _ = env.do(t, http.MethodDelete, sweetPath, env.userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Delete by admin
	status, body = env.do(t, http.MethodDelete, sweetPath, env.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Deleted"}`, string(body))

	// Verify deletion
	status, _ = env.do(t, http.MethodGet, sweetPath, env.userToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(t, http.MethodDelete, sweetPath, env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSweetNotFound(t *testing.T) {
	env := setupApp(t)
	missing := "/api/sweets/" + uuid.New().String()

	status, _ := env.do(t, http.MethodPut, missing, env.userToken, map[string]interface{}{"price": 10})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, missing+"/purchase", env.userToken, map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, missing+"/restock", env.adminToken, map[string]int{"amount": 1})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateSweetValidation(t *testing.T) {
	env := setupApp(t)

	for _, body := range []interface{}{
		map[string]interface{}{},
		map[string]interface{}{"name": "Candy", "category": "Sugar", "price": -5, "quantity": 10},
		map[string]interface{}{"name": "Candy", "category": "Sugar", "price": "10", "quantity": 10},
		map[string]interface{}{"name": "Candy", "category": "Sugar", "price": 1, "quantity": 1.5},
	} {
		status, _ := env.do(t, http.MethodPost, "/api/sweets", env.userToken, body)
		assert.Equal(t, http.StatusBadRequest, status)
	}

	all, err := env.sweetRepo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListAndSearchSweets(t *testing.T) {
	env := setupApp(t)

	for _, s := range []map[string]interface{}{
		{"name": "Caramel Candy", "category": "Candy", "price": 5, "quantity": 20},
		{"name": "Dark Chocolate", "category": "Chocolate", "price": 15, "quantity": 30},
	} {
		status, _ := env.do(t, http.MethodPost, "/api/sweets", env.userToken, s)
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := env.do(t, http.MethodGet, "/api/sweets", env.userToken, nil)
	assert.Equal(t, http.StatusOK, status)
	var sweets []models.Sweet
	decode(t, body, &sweets)
	assert.Len(t, sweets, 2)

	status, body = env.do(t, http.MethodGet, "/api/sweets/search?name=caramel", env.userToken, nil)
	assert.Equal(t, http.StatusOK, status)
	decode(t, body, &sweets)
	require.Len(t, sweets, 1)
	assert.Contains(t, sweets[0].Name, "Caramel")

	status, body = env.do(t, http.MethodGet, "/api/sweets/search?category=Chocolate", env.userToken, nil)
	assert.Equal(t, http.StatusOK, status)
	decode(t, body, &sweets)
	require.Len(t, sweets, 1)
	assert.Equal(t, "Chocolate", sweets[0].Category)

	status, body = env.do(t, http.MethodGet, "/api/sweets/search?minPrice=1&maxPrice=10", env.userToken, nil)
	assert.Equal(t, http.StatusOK, status)
	decode(t, body, &sweets)
	require.Len(t, sweets, 1)
	assert.Equal(t, "Caramel Candy", sweets[0].Name)

	status, _ = env.do(t, http.MethodGet, "/api/sweets/search", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodGet, "/api/sweets/search?minPrice=cheap", env.userToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
