package validation

import "strings"

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (r *RegisterRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (r *LoginRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

// CreateSweetRequest is the body of POST /api/sweets.
type CreateSweetRequest struct {
	Name     string   `json:"name" validate:"required,max=100"`
	Category string   `json:"category" validate:"required,max=100"`
	Price    *float64 `json:"price" validate:"required,gte=0"`
	Quantity *int     `json:"quantity" validate:"required,gte=0,max=1000000"`
}

func (r *CreateSweetRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Category = strings.TrimSpace(r.Category)
}

// UpdateSweetRequest is the body of PUT /api/sweets/:id. Absent fields are
// left untouched.
type UpdateSweetRequest struct {
	Name     *string  `json:"name" validate:"omitnil,min=1,max=100"`
	Category *string  `json:"category" validate:"omitnil,min=1,max=100"`
	Price    *float64 `json:"price" validate:"omitnil,gte=0"`
	Quantity *int     `json:"quantity" validate:"omitnil,gte=0,max=1000000"`
}

func (r *UpdateSweetRequest) normalize() {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
	if r.Category != nil {
		category := strings.TrimSpace(*r.Category)
		r.Category = &category
	}
}

// PurchaseRequest is the body of POST /api/sweets/:id/purchase.
type PurchaseRequest struct {
	Quantity *int `json:"quantity" validate:"required,gt=0,max=1000000"`
}

func (r *PurchaseRequest) normalize() {}

// RestockRequest is the body of POST /api/sweets/:id/restock.
type RestockRequest struct {
	Amount *int `json:"amount" validate:"required,gt=0,max=1000000"`
}

func (r *RestockRequest) normalize() {}
