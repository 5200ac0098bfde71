package response

import "jobmarket/internal/api/models"

type UserResponseDTO struct {
	ID             uint                  `json:"id"`
	Name           string                `json:"name"`
	LastName       string                `json:"lastName"`
	Email          string                `json:"email"`
	PhoneNumber    string                `json:"phoneNumber"`
	Role           models.AppRole        `json:"role"`
	ProfilePicture string                `json:"profilePicture,omitempty"`
	Actif          bool                  `json:"actif"`
	CompletedJobs  []models.CompletedJob `json:"completedJobs"`
}

type AuthResponseDTO struct {
	Token        string          `json:"token"`
	RefreshToken string          `json:"refreshToken"`
	User         UserResponseDTO `json:"user"`
}
