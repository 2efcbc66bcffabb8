package handlers

import (
	"sweetshop/internal/services"
	"sweetshop/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validation.Validator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, validate *validation.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validate,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// AuthResponse is the body returned by register and login.
type AuthResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

func newAuthResponse(result *services.AuthResult) AuthResponse {
	return AuthResponse{
		ID:      result.Account.ID,
		Name:    result.Account.Name,
		Email:   result.Account.Email,
		IsAdmin: result.Account.IsAdmin,
		Token:   result.Token,
	}
}

// HandleRegister handles new account registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	req, err := h.validate.DecodeRegister(c.Body())
	if err != nil {
		return respondError(c, "decoding register request", err)
	}

	result, err := h.authService.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return respondError(c, "registering account", err)
	}
	return c.Status(fiber.StatusCreated).JSON(newAuthResponse(result))
}

// HandleLogin handles login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	req, err := h.validate.DecodeLogin(c.Body())
	if err != nil {
		return respondError(c, "decoding login request", err)
	}

	result, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, "logging in", err)
	}
	return c.JSON(newAuthResponse(result))
}
