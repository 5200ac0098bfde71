package endpoints

import (
	"jobmarket"
	"jobmarket/internal/api/handler/request"
	"jobmarket/internal/api/handler/response"
	"jobmarket/internal/api/service"
	"jobmarket/pkg"
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type passwordHandler struct {
	passwordService *service.PasswordService
	logger          zerolog.Logger
}

func PasswordHandler(router *graceful.Graceful, mailer service.Mailer, sms service.SMSSender) {
	h := &passwordHandler{
		passwordService: service.NewPasswordService(mailer, sms),
		logger:          jobmarket.Logger,
	}

	routes := router.Group("/api/v1/password")
	{
		routes.POST("/forgot", h.requestReset)
		routes.POST("/reset", h.reset)
	}
}

func (slf *passwordHandler) requestReset(c *gin.Context) {
	var dto request.RequestResetDTO
	if err := pkg.ParseAndValidate(c, &dto); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	channel, err := slf.passwordService.RequestReset(c.Request.Context(), dto)
	if err != nil {
		writeServiceError(c, slf.logger, err, "Error requesting password reset")
		return
	}

	c.JSON(http.StatusCreated, response.APIError{
		Message: "One-time code sent. Please verify.",
		Data:    gin.H{"channel": channel},
	})
}

func (slf *passwordHandler) reset(c *gin.Context) {
	var dto request.ResetPasswordDTO
	if err := pkg.ParseAndValidate(c, &dto); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	if err := slf.passwordService.ResetPassword(c.Request.Context(), dto); err != nil {
		writeServiceError(c, slf.logger, err, "Error resetting password")
		return
	}

	c.JSON(http.StatusOK, response.Message{Message: "Password updated successfully"})
}
