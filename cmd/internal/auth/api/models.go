package authapi

import (
	"time"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/identity"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

func (r *credentialsRequest) normalize() {
	r.Email = identity.NormalizeEmail(r.Email)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required,max=1024"`
	NewPassword     string `json:"newPassword" validate:"required,max=1024,nefield=CurrentPassword"`
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required,max=1024"`
}

type tokenResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FromGoogle bool      `json:"fromGoogle"`
	CreatedAt  time.Time `json:"createdAt"`
}

type meResponse struct {
	Success bool         `json:"success"`
	User    userResponse `json:"user"`
}
