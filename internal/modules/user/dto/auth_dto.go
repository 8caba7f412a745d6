package dto

import "github.com/google/uuid"

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

type RegisterVisitorRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=100"`
	Password    string  `json:"password" binding:"required,min=6"`
	Institution *string `json:"institution,omitempty"`
}

type UpdatePasswordRequest struct {
	UserID      string `json:"user_id" binding:"required,uuid"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}
