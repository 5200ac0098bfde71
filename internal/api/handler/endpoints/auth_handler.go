package endpoints

import (
	"errors"
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

type authHandler struct {
	userService *service.UserService
	logger      zerolog.Logger
	config      jobmarket.AppConfig
}

func newAuthHandler() *authHandler {
	return &authHandler{
		userService: service.NewUserService(),
		logger:      jobmarket.Logger,
		config:      jobmarket.GetConfig(),
	}
}

func AuthHandler(router *graceful.Graceful) {
	h := newAuthHandler()

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/refresh", h.refreshToken)
	}

	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(h.config))
	{
		protected.GET("/me", h.getMe)
		protected.PUT("/me/device-token", h.registerDeviceToken)
	}
}

// writeAuthError answers failed credentials with 401 instead of 403.
func (slf *authHandler) writeAuthError(c *gin.Context, err error, msg string) {
	if errors.Is(err, service.ErrUnauthorized) {
		slf.logger.Debug().Err(err).Msg(msg)
		c.JSON(http.StatusUnauthorized, response.APIError{Message: err.Error()})
		return
	}
	writeServiceError(c, slf.logger, err, msg)
}

func (slf *authHandler) register(c *gin.Context) {
	var registerDTO request.RegisterDTO

	err := pkg.ParseAndValidate(c, &registerDTO)
	if err != nil {
		slf.logger.Debug().Err(err).Msg("Error parsing and validating register DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	authResponse, err := slf.userService.Register(c.Request.Context(), registerDTO)
	if err != nil {
		writeServiceError(c, slf.logger, err, "Error registering user")
		return
	}

	c.JSON(http.StatusCreated, authResponse)
}

func (slf *authHandler) login(c *gin.Context) {
	var loginDTO request.LoginDTO
	err := pkg.ParseAndValidate(c, &loginDTO)
	if err != nil {
		slf.logger.Debug().Err(err).Msg("Error parsing and validating login DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	authResponse, err := slf.userService.Login(c.Request.Context(), loginDTO)
	if err != nil {
		slf.writeAuthError(c, err, "Error logging in user")
		return
	}

	c.JSON(http.StatusOK, authResponse)
}

func (slf *authHandler) getMe(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	user, err := slf.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, slf.logger, err, "Error getting user")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (slf *authHandler) registerDeviceToken(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	var dto request.DeviceTokenDTO
	if err := pkg.ParseAndValidate(c, &dto); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	if err := slf.userService.RegisterDeviceToken(c.Request.Context(), userID, dto.Token); err != nil {
		writeServiceError(c, slf.logger, err, "Error registering device token")
		return
	}

	c.Status(http.StatusNoContent)
}

func (slf *authHandler) refreshToken(c *gin.Context) {
	var refreshDTO request.RefreshTokenDTO
	err := pkg.ParseAndValidate(c, &refreshDTO)
	if err != nil {
		slf.logger.Debug().Err(err).Msg("Error parsing and validating refresh token DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	authResponse, err := slf.userService.RefreshToken(c.Request.Context(), refreshDTO.RefreshToken)
	if err != nil {
		slf.writeAuthError(c, err, "Error refreshing token")
		return
	}

	c.JSON(http.StatusOK, authResponse)
}
