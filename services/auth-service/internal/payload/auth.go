package payload

import (
	"time"

	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/model"
)

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,min=5,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128,password_policy"`
}

// Normalize canonicalizes the email before validation and storage.
func (r *RegisterRequest) Normalize() {
	r.Email = model.NormalizeEmail(r.Email)
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = model.NormalizeEmail(r.Email)
}

type AuthResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UserProfile is the public view of a user. It has no password field.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserProfile(u *model.User) UserProfile {
	return UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

type MeResponse struct {
	Success bool        `json:"success"`
	User    UserProfile `json:"user"`
}

type ProtectedResourceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
}

type ErrorResponse struct {
	Success    bool         `json:"success"`
	Error      string       `json:"error"`
	Details    []FieldError `json:"details,omitempty"`
	RetryAfter int          `json:"retry_after,omitempty"`
	Detail     string       `json:"detail,omitempty"`
}
