package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Secret:    []byte("test-secret-that-is-long-enough-123"),
		Issuer:    "test-issuer",
		AccessTTL: time.Hour,
		OTPTTL:    5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

// withClock returns a copy of svc whose clock is shifted by d
func withClock(svc *Service, d time.Duration) *Service {
	cp := *svc
	cp.now = func() time.Time { return time.Now().Add(d) }
	return &cp
}

// ============================================================================
// Access tokens
// ============================================================================

func TestNewService_EmptySecret_ReturnsErrInvalidKey(t *testing.T) {
	t.Parallel()

	_, err := NewService(Config{})

	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestSignValidate_RoundTrip(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign(Claims{UserID: "user:123", Email: "a@ahduni.edu.in", Role: "admin"})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != "user:123" || claims.Email != "a@ahduni.edu.in" || !claims.IsAdmin() {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.Issuer != "test-issuer" {
		t.Errorf("expected issuer test-issuer, got %s", claims.Issuer)
	}
}

func TestValidate_Expired_ReturnsErrTokenExpired(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := withClock(svc, -2*time.Hour).Sign(Claims{UserID: "user:1", Role: "user"})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	_, err = svc.Validate(token)

	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidate_WrongSecret_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	other, _ := NewService(Config{Secret: []byte("another-secret"), Issuer: "test-issuer", AccessTTL: time.Hour})

	token, _ := other.Sign(Claims{UserID: "user:1"})
	_, err := svc.Validate(token)

	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_WrongIssuer_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	other, _ := NewService(Config{Secret: svc.secret, Issuer: "someone-else", AccessTTL: time.Hour})

	token, _ := other.Sign(Claims{UserID: "user:1"})
	_, err := svc.Validate(token)

	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_NoneAlgorithm_Rejected(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	claims := Claims{UserID: "user:1", RegisteredClaims: gojwt.RegisteredClaims{
		Issuer:    "test-issuer",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, claims).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_Malformed(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	for _, token := range []string{"", "abc", "a.b.c", strings.Repeat("x", 50)} {
		if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestClaims_HasRole(t *testing.T) {
	t.Parallel()

	c := &Claims{Role: "clubMember"}
	if !c.HasRole("admin", "clubMember") {
		t.Error("expected clubMember to match")
	}
	if c.HasRole("admin") {
		t.Error("expected admin not to match")
	}
}

// ============================================================================
// OTP tokens
// ============================================================================

func TestOTP_RoundTrip(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.SignOTP("a@ahduni.edu.in", "4821")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if strings.Contains(token, "4821") {
		t.Error("token must not contain the plaintext code")
	}

	email, err := svc.VerifyOTP(token, "4821")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if email != "a@ahduni.edu.in" {
		t.Errorf("expected email back, got %s", email)
	}
}

func TestParseOTP_CarriesUniqueID(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	first, _ := svc.SignOTP("a@ahduni.edu.in", "4821")
	second, _ := svc.SignOTP("a@ahduni.edu.in", "4821")

	a, err := svc.ParseOTP(first)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	b, err := svc.ParseOTP(second)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct token IDs, got %q and %q", a.ID, b.ID)
	}
	if !svc.MatchOTP(a, "4821") || svc.MatchOTP(a, "4822") {
		t.Error("MatchOTP must accept only the signed code")
	}
}

func TestOTP_WrongCode_ReturnsErrOTPMismatch(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, _ := svc.SignOTP("a@ahduni.edu.in", "4821")
	_, err := svc.VerifyOTP(token, "1111")

	if !errors.Is(err, ErrOTPMismatch) {
		t.Errorf("expected ErrOTPMismatch, got %v", err)
	}
}

func TestOTP_Expired_ReturnsErrTokenExpired(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, _ := withClock(svc, -10*time.Minute).SignOTP("a@ahduni.edu.in", "4821")
	_, err := svc.VerifyOTP(token, "4821")

	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestOTP_AccessTokenNotAcceptedAsOTP(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	access, _ := svc.Sign(Claims{UserID: "user:1", Email: "a@ahduni.edu.in"})
	if _, err := svc.VerifyOTP(access, "4821"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}

	otp, _ := svc.SignOTP("a@ahduni.edu.in", "4821")
	if _, err := svc.Validate(otp); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected OTP token rejected as access token, got %v", err)
	}
}
