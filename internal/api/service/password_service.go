package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"jobmarket"
	"jobmarket/internal/api/handler/request"
	"jobmarket/internal/api/models"
	"jobmarket/internal/api/repo"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const maxOtpAttempts = 5

var phoneNumberPattern = regexp.MustCompile(`^\+977\s\d{10}$`)

// ResetChannel tells the client where the one-time code was sent.
type ResetChannel string

const (
	ResetChannelSMS   ResetChannel = "sms"
	ResetChannelEmail ResetChannel = "email"
)

type Mailer interface {
	SendInternal(ctx context.Context, msg EmailMessage) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber string, body string) error
}

// PasswordService runs the forgotten-password flow: a six digit code is
// issued to the user's phone or mailbox, then exchanged once for a new
// password.
type PasswordService struct {
	userRepo      *repo.UserRepository
	otpRepo       *repo.OtpRepository
	mailer        Mailer
	sms           SMSSender
	logger        zerolog.Logger
	notifyTimeout time.Duration
}

func NewPasswordService(mailer Mailer, sms SMSSender) *PasswordService {
	return &PasswordService{
		userRepo:      repo.NewUserRepository(),
		otpRepo:       repo.NewOtpRepository(),
		mailer:        mailer,
		sms:           sms,
		logger:        jobmarket.Logger,
		notifyTimeout: jobmarket.GetConfig().Timeouts.Notify,
	}
}

func (slf *PasswordService) RequestReset(ctx context.Context, req request.RequestResetDTO) (ResetChannel, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var (
		user    models.User
		channel ResetChannel
		err     error
	)
	switch {
	case phone != "":
		if !phoneNumberPattern.MatchString(phone) {
			return "", invalidInput("invalid phone number format")
		}
		channel = ResetChannelSMS
		user, err = slf.userRepo.FindByPhoneNumber(ctx, phone)
	case email != "":
		channel = ResetChannelEmail
		user, err = slf.userRepo.FindByEmail(ctx, email)
	default:
		return "", invalidInput("either email or phone number must be provided")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", invalidInput("%s not registered", channel.subject())
		}
		slf.logger.Error().Err(err).Msg("Error finding user for password reset")
		return "", err
	}

	code, err := slf.issueCode(ctx, user.ID)
	if err != nil {
		slf.logger.Error().Err(err).Uint("userId", user.ID).Msg("Error issuing one-time code")
		return "", storageFailure(err)
	}

	if err := slf.deliverCode(ctx, channel, user, code); err != nil {
		// A code nobody received must not stay redeemable.
		if _, cerr := slf.otpRepo.Consume(ctx, code); cerr != nil && !errors.Is(cerr, repo.ErrOtpNotFound) {
			slf.logger.Warn().Err(cerr).Uint("userId", user.ID).Msg("Error discarding undelivered code")
		}
		slf.logger.Error().Err(err).Uint("userId", user.ID).Str("channel", string(channel)).Msg("Error delivering one-time code")
		return "", deliveryFailure(err)
	}

	slf.logger.Info().Uint("userId", user.ID).Str("channel", string(channel)).Msg("Password reset code sent")
	return channel, nil
}

// ResetPassword redeems a code issued by RequestReset. Inputs are checked
// before the code is consumed so a typo does not burn it.
func (slf *PasswordService) ResetPassword(ctx context.Context, req request.ResetPasswordDTO) error {
	if req.NewPassword == "" || req.ConfirmPassword == "" {
		return invalidInput("new password and confirm password fields cannot be empty")
	}
	if req.NewPassword != req.ConfirmPassword {
		return invalidInput("new password and confirm password do not match")
	}

	userID, err := slf.otpRepo.Consume(ctx, strings.TrimSpace(req.Otp))
	if err != nil {
		if errors.Is(err, repo.ErrOtpNotFound) {
			return invalidInput("invalid or expired code")
		}
		slf.logger.Error().Err(err).Msg("Error consuming one-time code")
		return storageFailure(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error hashing password")
		return err
	}
	if err := slf.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidInput("no user found for this code")
		}
		slf.logger.Error().Err(err).Uint("userId", userID).Msg("Error updating password")
		return err
	}

	slf.logger.Info().Uint("userId", userID).Msg("Password updated successfully")
	return nil
}

// issueCode draws random codes until one is not already live.
func (slf *PasswordService) issueCode(ctx context.Context, userID uint) (string, error) {
	for range maxOtpAttempts {
		code, err := newOtpCode()
		if err != nil {
			return "", err
		}
		ok, err := slf.otpRepo.Reserve(ctx, code, userID)
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free one-time code after %d attempts", maxOtpAttempts)
}

func (slf *PasswordService) deliverCode(ctx context.Context, channel ResetChannel, user models.User, code string) error {
	ctx, cancel := withTimeout(ctx, slf.notifyTimeout)
	defer cancel()

	body := fmt.Sprintf("Your OTP code is %s", code)
	if channel == ResetChannelSMS {
		return slf.sms.SendSMS(ctx, user.PhoneNumber, body)
	}
	return slf.mailer.SendInternal(ctx, EmailMessage{
		To:      []string{user.Email},
		Subject: "Password reset code",
		Body:    body,
	})
}

func (c ResetChannel) subject() string {
	if c == ResetChannelSMS {
		return "phone number"
	}
	return "email"
}

func newOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
