package request

// RequestResetDTO needs at least one of PhoneNumber or Email; the phone
// number wins when both are given.
type RequestResetDTO struct {
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email" validate:"omitempty,email"`
}

type ResetPasswordDTO struct {
	Otp             string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}
