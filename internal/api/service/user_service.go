package service

import (
	"context"
	"errors"
	"jobmarket"
	"jobmarket/internal/api/handler/mapper"
	"jobmarket/internal/api/handler/request"
	"jobmarket/internal/api/handler/response"
	"jobmarket/internal/api/models"
	"jobmarket/internal/api/repo"
	"jobmarket/pkg"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	userRepo *repo.UserRepository
	config   jobmarket.AppConfig
	logger   zerolog.Logger
}

func NewUserService() *UserService {
	return &UserService{
		userRepo: repo.NewUserRepository(),
		config:   jobmarket.GetConfig(),
		logger:   jobmarket.Logger,
	}
}

func (slf *UserService) Register(ctx context.Context, registerDTO request.RegisterDTO) (*response.AuthResponseDTO, error) {
	email := strings.ToLower(strings.TrimSpace(registerDTO.Email))
	exists, err := slf.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error checking if user exists")
		return nil, err
	}
	if exists {
		return nil, conflict("user with this email already exists")
	}

	role := registerDTO.Role
	if role == "" {
		role = models.DefaultRole
	}
	if !role.IsValid() {
		return nil, invalidInput("unknown role %q", role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registerDTO.Password), bcrypt.DefaultCost)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error hashing password")
		return nil, err
	}

	user := models.User{
		Name:           strings.TrimSpace(registerDTO.Name),
		LastName:       strings.TrimSpace(registerDTO.LastName),
		Email:          email,
		PhoneNumber:    strings.TrimSpace(registerDTO.PhoneNumber),
		Password:       string(hashedPassword),
		Role:           role,
		ProfilePicture: registerDTO.ProfilePicture,
		Actif:          true,
	}

	if err = slf.userRepo.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("user with this email already exists")
		}
		slf.logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}

	result, err := slf.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	slf.logger.Info().Uint("userId", user.ID).Str("role", string(user.Role)).Msg("User registered successfully")
	return result, nil
}

func (slf *UserService) Login(ctx context.Context, loginDTO request.LoginDTO) (*response.AuthResponseDTO, error) {
	user, err := slf.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(loginDTO.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized("invalid email or password")
		}
		slf.logger.Error().Err(err).Msg("Error finding user by email")
		return nil, err
	}

	if !user.Actif {
		return nil, unauthorized("account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginDTO.Password)); err != nil {
		return nil, unauthorized("invalid email or password")
	}

	result, err := slf.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	slf.logger.Info().Uint("userId", user.ID).Msg("User logged in successfully")
	return result, nil
}

func (slf *UserService) GetByID(ctx context.Context, id uint) (response.UserResponseDTO, error) {
	user, err := slf.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.UserResponseDTO{}, notFound("user %d", id)
		}
		slf.logger.Error().Err(err).Uint("userId", id).Msg("Error finding user by ID")
		return response.UserResponseDTO{}, err
	}

	return mapper.ToUserResponse(user), nil
}

// RefreshToken rotates the token pair. Only the most recently issued refresh
// token is accepted.
func (slf *UserService) RefreshToken(ctx context.Context, refreshToken string) (*response.AuthResponseDTO, error) {
	claims, err := pkg.ValidateRefreshToken(refreshToken, slf.config.JWTConfig.Secret)
	if err != nil {
		slf.logger.Warn().Err(err).Msg("Invalid refresh token")
		return nil, unauthorized("invalid or expired refresh token")
	}

	user, err := slf.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized("user %d does not exist", claims.UserID)
		}
		slf.logger.Error().Err(err).Uint("userId", claims.UserID).Msg("Error finding user by ID")
		return nil, err
	}

	if !user.Actif {
		return nil, unauthorized("account is inactive")
	}

	if user.RefreshToken != refreshToken {
		slf.logger.Warn().Uint("userId", user.ID).Msg("Refresh token mismatch")
		return nil, unauthorized("invalid refresh token")
	}

	result, err := slf.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	slf.logger.Info().Uint("userId", user.ID).Msg("Token refreshed successfully")
	return result, nil
}

// RegisterDeviceToken keeps exactly one push token per user; the new token
// replaces the previous one.
func (slf *UserService) RegisterDeviceToken(ctx context.Context, userID uint, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return invalidInput("device token is required")
	}
	if err := slf.userRepo.UpdateFcmToken(ctx, userID, token); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("user %d", userID)
		}
		slf.logger.Error().Err(err).Uint("userId", userID).Msg("Error saving device token")
		return err
	}
	slf.logger.Debug().Uint("userId", userID).Msg("Device token registered")
	return nil
}

func (slf *UserService) issueTokens(ctx context.Context, user models.User) (*response.AuthResponseDTO, error) {
	jwtCfg := slf.config.JWTConfig
	token, err := pkg.GenerateToken(user.ID, user.Email, string(user.Role), jwtCfg.Secret, jwtCfg.Expiration)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error generating token")
		return nil, err
	}

	refreshToken, err := pkg.GenerateRefreshToken(user.ID, jwtCfg.Secret, jwtCfg.RefreshExpiration)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error generating refresh token")
		return nil, err
	}

	if err = slf.userRepo.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		slf.logger.Error().Err(err).Msg("Error updating user with refresh token")
		return nil, err
	}
	user.RefreshToken = refreshToken

	return &response.AuthResponseDTO{
		Token:        token,
		RefreshToken: refreshToken,
		User:         mapper.ToUserResponse(user),
	}, nil
}
