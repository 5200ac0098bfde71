package request

import "jobmarket/internal/api/models"

type RegisterDTO struct {
	Name           string         `json:"name" validate:"required,min=3,max=50"`
	LastName       string         `json:"lastName" validate:"required,min=3,max=20"`
	Email          string         `json:"email" validate:"required,email"`
	PhoneNumber    string         `json:"phoneNumber" validate:"required"`
	Password       string         `json:"password" validate:"required,min=6"`
	Role           models.AppRole `json:"role" validate:"omitempty,approle"`
	ProfilePicture string         `json:"profilePicture" validate:"omitempty,url"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type DeviceTokenDTO struct {
	Token string `json:"token" validate:"required"`
}
