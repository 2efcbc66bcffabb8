package handlers

import (
	"log"

	"sweetshop/internal/middleware"
	"sweetshop/internal/models"
	"sweetshop/internal/services"
	"sweetshop/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SweetHandler handles HTTP requests for sweets.
type SweetHandler struct {
	service  *services.SweetService
	validate *validation.Validator
}

// NewSweetHandler creates a new SweetHandler.
func NewSweetHandler(service *services.SweetService, validate *validation.Validator) *SweetHandler {
	return &SweetHandler{
		service:  service,
		validate: validate,
	}
}

// RegisterRoutes registers the sweet routes. router must already be guarded
// by middleware.AuthRequired; administrative routes add AdminOnly.
func (h *SweetHandler) RegisterRoutes(router fiber.Router) {
	sweetRoutes := router.Group("/sweets")
	sweetRoutes.Get("/", h.HandleGetSweets)
	sweetRoutes.Get("/search", h.HandleSearchSweets)
	sweetRoutes.Post("/", h.HandleCreateSweet)
	sweetRoutes.Get("/:id", h.HandleGetSweetByID)
	sweetRoutes.Put("/:id", h.HandleUpdateSweet)
	sweetRoutes.Delete("/:id", middleware.AdminOnly(), h.HandleDeleteSweet)
	sweetRoutes.Post("/:id/purchase", h.HandlePurchaseSweet)
	sweetRoutes.Post("/:id/restock", middleware.AdminOnly(), h.HandleRestockSweet)
}

// HandleGetSweets lists every sweet.
func (h *SweetHandler) HandleGetSweets(c *fiber.Ctx) error {
	sweets, err := h.service.GetAllSweets(c.UserContext())
	if err != nil {
		return respondError(c, "listing sweets", err)
	}
	return c.JSON(sweets)
}

// HandleSearchSweets filters sweets by name, category and price range.
func (h *SweetHandler) HandleSearchSweets(c *fiber.Ctx) error {
	filter, err := validation.ParseSearchQuery(c.Query("name"), c.Query("category"), c.Query("minPrice"), c.Query("maxPrice"))
	if err != nil {
		return respondError(c, "parsing search query", err)
	}

	sweets, err := h.service.SearchSweets(c.UserContext(), filter)
	if err != nil {
		return respondError(c, "searching sweets", err)
	}
	return c.JSON(sweets)
}

// HandleGetSweetByID retrieves a single sweet.
func (h *SweetHandler) HandleGetSweetByID(c *fiber.Ctx) error {
	sweet, err := h.service.GetSweetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "getting sweet", err)
	}
	return c.JSON(sweet)
}

// HandleCreateSweet creates a new sweet.
func (h *SweetHandler) HandleCreateSweet(c *fiber.Ctx) error {
	req, err := h.validate.DecodeCreateSweet(c.Body())
	if err != nil {
		return respondError(c, "decoding sweet", err)
	}

	sweet := &models.Sweet{
		Name:     req.Name,
		Category: req.Category,
		Price:    *req.Price,
		Quantity: *req.Quantity,
	}
	if err := h.service.CreateSweet(c.UserContext(), sweet); err != nil {
		return respondError(c, "creating sweet", err)
	}
	return c.Status(fiber.StatusCreated).JSON(sweet)
}

// HandleUpdateSweet applies a partial update to a sweet.
func (h *SweetHandler) HandleUpdateSweet(c *fiber.Ctx) error {
	req, err := h.validate.DecodeUpdateSweet(c.Body())
	if err != nil {
		return respondError(c, "decoding sweet update", err)
	}

	sweet, err := h.service.UpdateSweet(c.UserContext(), c.Params("id"), services.SweetUpdate{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		return respondError(c, "updating sweet", err)
	}
	return c.JSON(sweet)
}

// HandleDeleteSweet deletes a sweet. Admin only.
func (h *SweetHandler) HandleDeleteSweet(c *fiber.Ctx) error {
	if err := h.service.DeleteSweet(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, "deleting sweet", err)
	}
	return c.JSON(fiber.Map{"message": "Deleted"})
}

// HandlePurchaseSweet takes stock out for the authenticated user.
func (h *SweetHandler) HandlePurchaseSweet(c *fiber.Ctx) error {
	req, err := h.validate.DecodePurchase(c.Body())
	if err != nil {
		return respondError(c, "decoding purchase", err)
	}

	sweet, err := h.service.PurchaseSweet(c.UserContext(), c.Params("id"), *req.Quantity)
	if err != nil {
		return respondError(c, "purchasing sweet", err)
	}
	log.Printf("Account %s purchased %d of sweet %s, %d left", middleware.UserID(c), *req.Quantity, sweet.ID, sweet.Quantity)
	return c.JSON(fiber.Map{"message": "Purchased", "sweet": sweet})
}

// HandleRestockSweet adds stock. Admin only.
func (h *SweetHandler) HandleRestockSweet(c *fiber.Ctx) error {
	req, err := h.validate.DecodeRestock(c.Body())
	if err != nil {
		return respondError(c, "decoding restock", err)
	}

	sweet, err := h.service.RestockSweet(c.UserContext(), c.Params("id"), *req.Amount)
	if err != nil {
		return respondError(c, "restocking sweet", err)
	}
	return c.JSON(fiber.Map{"message": "Restocked", "sweet": sweet})
}
