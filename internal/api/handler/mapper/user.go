package mapper

import (
	"jobmarket/internal/api/handler/response"
	"jobmarket/internal/api/models"
)

func ToUserResponse(user models.User) response.UserResponseDTO {
	completed := user.CompletedJobs
	if completed == nil {
		completed = []models.CompletedJob{}
	}
	return response.UserResponseDTO{
		ID:             user.ID,
		Name:           user.Name,
		LastName:       user.LastName,
		Email:          user.Email,
		PhoneNumber:    user.PhoneNumber,
		Role:           user.Role,
		ProfilePicture: user.ProfilePicture,
		Actif:          user.Actif,
		CompletedJobs:  completed,
	}
}
