// Package jwt issues and verifies the HS256 tokens used by the API.
//
// Two token kinds share one signing secret:
//
//	svc := jwt.NewService(jwt.Config{Secret: []byte(secret), Issuer: "pclub-api",
//	    AccessTTL: 7 * 24 * time.Hour, OTPTTL: 5 * time.Minute})
//
//	token, err := svc.Sign(jwt.Claims{UserID: id, Email: email, Role: role})
//	claims, err := svc.Validate(token)
//
//	otpToken, err := svc.SignOTP(email, code)
//	email, err := svc.VerifyOTP(otpToken, submittedCode)
//
// OTP tokens never carry the code itself, only an HMAC of it keyed by the
// signing secret. Each carries a unique ID so callers can count attempts
// against a single token.
package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidKey   = errors.New("invalid key")
	ErrOTPMismatch  = errors.New("otp mismatch")
)

const otpSubject = "otp"

// Claims are carried by access tokens
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	gojwt.RegisteredClaims
}

// HasRole reports whether the token carries one of roles
func (c *Claims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin returns true if the claims indicate admin role
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}

// OTPClaims are carried by OTP tokens
type OTPClaims struct {
	Email    string `json:"email"`
	CodeHash string `json:"code_hash"`
	gojwt.RegisteredClaims
}

// Config holds JWT service configuration
type Config struct {
	Secret    []byte
	Issuer    string
	AccessTTL time.Duration
	OTPTTL    time.Duration
}

// Service handles JWT operations
type Service struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	otpTTL    time.Duration
	now       func() time.Time
}

// NewService creates a new JWT service
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrInvalidKey
	}
	return &Service{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		accessTTL: cfg.AccessTTL,
		otpTTL:    cfg.OTPTTL,
		now:       time.Now,
	}, nil
}

// Sign creates a signed access token
func (s *Service) Sign(claims Claims) (string, error) {
	now := s.now()
	claims.RegisteredClaims = gojwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   claims.UserID,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(s.accessTTL)),
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses an access token and returns its claims
func (s *Service) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Subject == otpSubject || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SignOTP creates a short-lived token binding email to code
func (s *Service) SignOTP(email, code string) (string, error) {
	now := s.now()
	claims := OTPClaims{
		Email:    email,
		CodeHash: s.codeHash(email, code),
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   otpSubject,
			ID:        uuid.NewString(),
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.otpTTL)),
		},
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign otp token: %w", err)
	}
	return signed, nil
}

// VerifyOTP checks the token and the submitted code, returning the email
// the code was sent to.
func (s *Service) VerifyOTP(tokenString, code string) (string, error) {
	claims, err := s.ParseOTP(tokenString)
	if err != nil {
		return "", err
	}
	if !s.MatchOTP(claims, code) {
		return "", ErrOTPMismatch
	}
	return claims.Email, nil
}

// ParseOTP validates an OTP token without checking a code
func (s *Service) ParseOTP(tokenString string) (*OTPClaims, error) {
	claims := &OTPClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Subject != otpSubject || claims.Email == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// MatchOTP reports whether code is the one claims was signed for
func (s *Service) MatchOTP(claims *OTPClaims, code string) bool {
	want, err := hex.DecodeString(claims.CodeHash)
	if err != nil {
		return false
	}
	got, _ := hex.DecodeString(s.codeHash(claims.Email, code))
	return hmac.Equal(want, got)
}

// AccessTTL returns the lifetime of access tokens
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

// OTPTTL returns the lifetime of OTP tokens
func (s *Service) OTPTTL() time.Duration {
	return s.otpTTL
}

func (s *Service) parse(tokenString string, claims gojwt.Claims) error {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(s.now),
		gojwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}

	token, err := gojwt.ParseWithClaims(tokenString, claims, func(t *gojwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func (s *Service) codeHash(email, code string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(email))
	mac.Write([]byte{0})
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}
