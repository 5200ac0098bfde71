package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOtpRepo(t *testing.T) (*OtpRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &OtpRepository{Rdb: rdb, TTL: 10 * time.Minute}, mr
}

func TestOtp_ReserveAndConsume(t *testing.T) {
	otps, mr := newOtpRepo(t)
	ctx := context.Background()

	ok, err := otps.Reserve(ctx, "123456", 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 10*time.Minute, mr.TTL("otp:123456"))

	ok, err = otps.Reserve(ctx, "123456", 43)
	require.NoError(t, err)
	assert.False(t, ok, "a live code cannot be reserved twice")

	userID, err := otps.Consume(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)

	_, err = otps.Consume(ctx, "123456")
	assert.ErrorIs(t, err, ErrOtpNotFound)
}

func TestOtp_Expiry(t *testing.T) {
	otps, mr := newOtpRepo(t)
	ctx := context.Background()

	_, err := otps.Reserve(ctx, "654321", 7)
	require.NoError(t, err)
	mr.FastForward(11 * time.Minute)

	_, err = otps.Consume(ctx, "654321")
	assert.ErrorIs(t, err, ErrOtpNotFound)

	ok, err := otps.Reserve(ctx, "654321", 8)
	require.NoError(t, err)
	assert.True(t, ok, "an expired code can be issued again")
}

func TestOtp_CorruptEntry(t *testing.T) {
	otps, mr := newOtpRepo(t)
	require.NoError(t, mr.Set("otp:111111", "not-a-number"))

	_, err := otps.Consume(context.Background(), "111111")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOtpNotFound)
}
