package repo

import (
	"context"
	"errors"
	"fmt"
	"jobmarket"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:"

// ErrOtpNotFound is returned when a code was never issued, has expired or
// has already been used.
var ErrOtpNotFound = errors.New("one-time code not found")

// OtpRepository keeps one-time password codes in Redis. Each key maps a code
// to the user it was issued for and expires on its own.
type OtpRepository struct {
	Rdb *redis.Client
	TTL time.Duration
}

func NewOtpRepository() *OtpRepository {
	return &OtpRepository{
		Rdb: jobmarket.Redis,
		TTL: jobmarket.GetConfig().OtpTTL,
	}
}

func otpKey(code string) string {
	return otpKeyPrefix + code
}

// Reserve stores code -> userID unless the code is already live. It reports
// false on collision so the caller can draw another code.
func (slf *OtpRepository) Reserve(ctx context.Context, code string, userID uint) (bool, error) {
	ok, err := slf.Rdb.SetNX(ctx, otpKey(code), userID, slf.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("reserve one-time code: %w", err)
	}
	return ok, nil
}

// Consume atomically reads and deletes the code, so it can be used once.
func (slf *OtpRepository) Consume(ctx context.Context, code string) (uint, error) {
	raw, err := slf.Rdb.GetDel(ctx, otpKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrOtpNotFound
		}
		return 0, fmt.Errorf("consume one-time code: %w", err)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt one-time code entry: %w", err)
	}
	return uint(id), nil
}
