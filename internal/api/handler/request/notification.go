package request

type SendNotificationDTO struct {
	UserID   uint   `json:"userId" validate:"required"`
	FcmToken string `json:"fcmToken" validate:"required"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}
