package service

import (
	"context"
	"errors"
	"jobmarket"
	"jobmarket/internal/api/handler/request"
	"jobmarket/internal/api/repo"
	"jobmarket/pkg"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	defaultNotificationTitle = "Default Title"
	defaultNotificationBody  = "Default Body"
)

// NotificationService lets a client register a device token for a user and
// push a message to that user in the same call.
type NotificationService struct {
	userRepo      *repo.UserRepository
	notifier      Notifier
	logger        zerolog.Logger
	notifyTimeout time.Duration
}

func NewNotificationService(notifier Notifier) *NotificationService {
	return &NotificationService{
		userRepo:      repo.NewUserRepository(),
		notifier:      notifier,
		logger:        jobmarket.Logger,
		notifyTimeout: jobmarket.GetConfig().Timeouts.Notify,
	}
}

func (slf *NotificationService) SendNotification(ctx context.Context, req request.SendNotificationDTO) error {
	token := strings.TrimSpace(req.FcmToken)
	if token == "" {
		return invalidInput("device token is required")
	}
	if err := slf.userRepo.UpdateFcmToken(ctx, req.UserID, token); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("user %d", req.UserID)
		}
		slf.logger.Error().Err(err).Uint("userId", req.UserID).Msg("Error saving device token")
		return err
	}

	msg := pkg.Notification{
		Title: strings.TrimSpace(req.Title),
		Body:  strings.TrimSpace(req.Body),
		Data:  map[string]string{"token": token},
	}
	if msg.Title == "" {
		msg.Title = defaultNotificationTitle
	}
	if msg.Body == "" {
		msg.Body = defaultNotificationBody
	}

	ctx, cancel := withTimeout(ctx, slf.notifyTimeout)
	defer cancel()
	if err := slf.notifier.Notify(ctx, req.UserID, msg); err != nil {
		slf.logger.Error().Err(err).Uint("userId", req.UserID).Msg("Error sending notification")
		return deliveryFailure(err)
	}

	slf.logger.Info().Uint("userId", req.UserID).Msg("Notification sent")
	return nil
}
