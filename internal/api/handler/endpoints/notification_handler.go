package endpoints

import (
	"context"
	"jobmarket"
	"jobmarket/internal/api/handler/middleware"
	"jobmarket/internal/api/handler/request"
	"jobmarket/internal/api/handler/response"
	"jobmarket/internal/api/service"
	"jobmarket/pkg"
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type NotificationSender interface {
	SendNotification(ctx context.Context, dto request.SendNotificationDTO) error
}

type notificationHandler struct {
	notificationService NotificationSender
	logger              zerolog.Logger
}

func NotificationHandler(router *graceful.Graceful, notifier service.Notifier) {
	h := &notificationHandler{
		notificationService: service.NewNotificationService(notifier),
		logger:              jobmarket.Logger,
	}
	registerNotificationRoutes(router.Engine, h, jobmarket.GetConfig())
}

func registerNotificationRoutes(router gin.IRouter, h *notificationHandler, cfg jobmarket.AppConfig) {
	routes := router.Group("/api/v1/notifications")
	routes.Use(middleware.AuthMiddleware(cfg))
	{
		routes.POST("", h.send)
	}
}

func (slf *notificationHandler) send(c *gin.Context) {
	var dto request.SendNotificationDTO
	if err := pkg.ParseAndValidate(c, &dto); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	if err := slf.notificationService.SendNotification(c.Request.Context(), dto); err != nil {
		writeServiceError(c, slf.logger, err, "Error sending notification")
		return
	}

	c.JSON(http.StatusOK, response.Message{Message: "Device token saved and notification sent"})
}
