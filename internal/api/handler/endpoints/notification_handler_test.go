package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"jobmarket"
	"jobmarket/internal/api/handler/request"
	"jobmarket/internal/api/service"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	err error
	got request.SendNotificationDTO
}

func (f *fakeSender) SendNotification(_ context.Context, dto request.SendNotificationDTO) error {
	f.got = dto
	return f.err
}

func newNotificationRouter(t *testing.T, sender *fakeSender) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := jobmarket.AppConfig{}
	cfg.JWTConfig.Secret = handlerSecret

	router := gin.New()
	registerNotificationRoutes(router, &notificationHandler{notificationService: sender, logger: zerolog.Nop()}, cfg)
	return router
}

func TestNotificationHandler_Send(t *testing.T) {
	sender := &fakeSender{}
	router := newNotificationRouter(t, sender)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader(`{"userId":7,"fcmToken":"tok","title":"Hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, 1))
	w := do(router, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint(7), sender.got.UserID)
	assert.Equal(t, "tok", sender.got.FcmToken)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Device token saved and notification sent", body["message"])
	assert.NotContains(t, body, "data", "a success is not shaped like an error")
}

func TestNotificationHandler_Send_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{name: "missing token", body: `{"userId":7}`, want: http.StatusBadRequest},
		{name: "unknown user", body: `{"userId":7,"fcmToken":"tok"}`, err: fmt.Errorf("%w: user 7", service.ErrNotFound), want: http.StatusNotFound},
		{name: "bus down", body: `{"userId":7,"fcmToken":"tok"}`, err: fmt.Errorf("%w: bus", service.ErrDelivery), want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newNotificationRouter(t, &fakeSender{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", bearer(t, 1))
			assert.Equal(t, tt.want, do(router, req).Code)
		})
	}
}
