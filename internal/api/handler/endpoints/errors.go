package endpoints

import (
	"errors"
	"jobmarket/internal/api/handler/response"
	"jobmarket/internal/api/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrStorage), errors.Is(err, service.ErrDelivery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs and renders err. Internal failures are not echoed
// to the client.
func writeServiceError(c *gin.Context, logger zerolog.Logger, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	} else {
		logger.Debug().Err(err).Str("path", c.FullPath()).Msg(msg)
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = msg
	}
	c.JSON(status, response.APIError{Message: message})
}

// deliveryWarning reports whether err only says that a committed change
// could not be announced.
func deliveryWarning(err error) (string, bool) {
	if err != nil && errors.Is(err, service.ErrDelivery) {
		return err.Error(), true
	}
	return "", false
}
