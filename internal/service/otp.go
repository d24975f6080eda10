package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/pclub/portal/api/internal/mailer"
)

const (
	signupOTPLength = 6
	eventOTPLength  = 4

	// maxOTPAttempts wrong codes discard a pending signup or reset, and
	// burn an event OTP token
	maxOTPAttempts = 5
)

// KeyValueStore is the slice of the Redis cache services use
type KeyValueStore interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// generateOTP returns n random decimal digits
func generateOTP(n int) (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < n; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

func otpEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// sendOTP mails code and counts it
func sendOTP(ctx context.Context, m mailer.Mailer, to string, purpose mailer.Purpose, code string, ttl time.Duration, eventTitle string) error {
	if err := m.Send(ctx, mailer.OTPMessage(to, purpose, code, ttl, eventTitle)); err != nil {
		return fmt.Errorf("%w: send otp: %v", ErrUpstream, err)
	}
	otpIssued.WithLabelValues(string(purpose)).Inc()
	return nil
}
