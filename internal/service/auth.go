package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pclub/portal/api/internal/cache"
	"github.com/pclub/portal/api/internal/mailer"
	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost factor (10-14 recommended for production)
const bcryptCost = 12

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, req *model.UpdateProfileRequest) (*model.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

// UserEventLister lists the events a user registered for
type UserEventLister interface {
	ListByUser(ctx context.Context, userID string) ([]*model.Event, error)
}

// AuthService handles accounts, sessions and profile operations
type AuthService struct {
	userRepo    UserRepository
	eventRepo   UserEventLister
	store       KeyValueStore
	mailer      mailer.Mailer
	jwt         *jwt.Service
	emailDomain string
	otpTTL      time.Duration
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	UserRepo    UserRepository
	EventRepo   UserEventLister
	Store       KeyValueStore
	Mailer      mailer.Mailer
	JWT         *jwt.Service
	EmailDomain string        // e.g. "ahduni.edu.in"
	OTPTTL      time.Duration // Default: 5 minutes
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.OTPTTL == 0 {
		cfg.OTPTTL = 5 * time.Minute
	}
	return &AuthService{
		userRepo:    cfg.UserRepo,
		eventRepo:   cfg.EventRepo,
		store:       cfg.Store,
		mailer:      cfg.Mailer,
		jwt:         cfg.JWT,
		emailDomain: strings.ToLower(cfg.EmailDomain),
		otpTTL:      cfg.OTPTTL,
	}
}

// pendingOTP is kept in the cache between the request and verify steps.
// For signups it also carries the profile, with the password already hashed.
type pendingOTP struct {
	Code             string `json:"code"`
	Name             string `json:"name,omitempty"`
	Hash             string `json:"hash,omitempty"`
	EnrollmentNumber string `json:"enrollment_number,omitempty"`
}

// RequestRegistration starts a signup by emailing a 6-digit code.
// It returns when the code expires.
func (s *AuthService) RequestRegistration(ctx context.Context, req *model.SignupRequest) (time.Time, error) {
	email := normalizeEmail(req.Email)
	if !s.allowedDomain(email) {
		return time.Time{}, ErrEmailDomainNotAllowed
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	if existing != nil {
		return time.Time{}, ErrEmailAlreadyExists
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return time.Time{}, err
	}
	code, err := generateOTP(signupOTPLength)
	if err != nil {
		return time.Time{}, err
	}

	pending := pendingOTP{
		Code:             code,
		Name:             strings.TrimSpace(req.Name),
		Hash:             hash,
		EnrollmentNumber: strings.TrimSpace(req.EnrollmentNumber),
	}
	if err := s.storeOTP(ctx, cache.SignupOTPKey(email), pending); err != nil {
		return time.Time{}, err
	}
	if err := sendOTP(ctx, s.mailer, email, mailer.PurposeSignup, code, s.otpTTL, ""); err != nil {
		return time.Time{}, err
	}
	return time.Now().Add(s.otpTTL), nil
}

// VerifyRegistration checks the signup code, creates the account and logs
// the new user in.
func (s *AuthService) VerifyRegistration(ctx context.Context, req *model.VerifySignupRequest) (*model.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	pending, err := s.consumeOTP(ctx, cache.SignupOTPKey(email), req.OTP)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:            email,
		Name:             pending.Name,
		Hash:             pending.Hash,
		EnrollmentNumber: pending.EnrollmentNumber,
		Role:             model.UserRoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	return s.issue(user)
}

// Login authenticates a user with email/password
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// AdminLogin is Login restricted to admins
func (s *AuthService) AdminLogin(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, ErrAdminRequired
	}
	return s.issue(user)
}

// authenticate resolves credentials to a user
func (s *AuthService) authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.Hash == "" || !checkPassword(password, user.Hash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// RequestPasswordReset emails a reset code to an existing account
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (time.Time, error) {
	email = normalizeEmail(email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	if user == nil {
		return time.Time{}, ErrUserNotFound
	}

	code, err := generateOTP(signupOTPLength)
	if err != nil {
		return time.Time{}, err
	}
	if err := s.storeOTP(ctx, cache.PasswordResetOTPKey(email), pendingOTP{Code: code}); err != nil {
		return time.Time{}, err
	}
	if err := sendOTP(ctx, s.mailer, email, mailer.PurposePasswordReset, code, s.otpTTL, ""); err != nil {
		return time.Time{}, err
	}
	return time.Now().Add(s.otpTTL), nil
}

// ResetPassword replaces the password after checking the reset code
func (s *AuthService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	email := normalizeEmail(req.Email)
	if _, err := s.consumeOTP(ctx, cache.PasswordResetOTPKey(email), req.OTP); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, hash)
}

// storeOTP saves a fresh pending code at key and clears the attempts left
// over from any earlier code.
func (s *AuthService) storeOTP(ctx context.Context, key string, pending pendingOTP) error {
	if err := s.store.Delete(ctx, cache.OTPAttemptsKey(key)); err != nil {
		return fmt.Errorf("%w: reset otp attempts: %v", ErrUpstream, err)
	}
	if err := s.store.SetJSON(ctx, key, pending, s.otpTTL); err != nil {
		return fmt.Errorf("%w: store otp: %v", ErrUpstream, err)
	}
	return nil
}

// consumeOTP checks code against the pending entry at key. A correct code
// deletes the entry; the maxOTPAttempts-th wrong code discards it. Attempts
// are counted before comparing so concurrent guesses cannot exceed the cap.
func (s *AuthService) consumeOTP(ctx context.Context, key, code string) (*pendingOTP, error) {
	var pending pendingOTP
	if err := s.store.GetJSON(ctx, key, &pending); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrOTPExpired
		}
		return nil, fmt.Errorf("%w: load otp: %v", ErrUpstream, err)
	}

	attemptsKey := cache.OTPAttemptsKey(key)
	attempts, _, err := s.store.Incr(ctx, attemptsKey, s.otpTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: count otp attempt: %v", ErrUpstream, err)
	}
	if attempts > maxOTPAttempts {
		return nil, ErrOTPExpired
	}

	// The counter outlives a discarded code so late guesses stay counted.
	if !otpEqual(pending.Code, strings.TrimSpace(code)) {
		if attempts == maxOTPAttempts {
			if err := s.store.Delete(ctx, key); err != nil {
				return nil, fmt.Errorf("%w: discard otp: %v", ErrUpstream, err)
			}
		}
		return nil, ErrOTPInvalid
	}

	if err := s.store.Delete(ctx, key, attemptsKey); err != nil {
		return nil, fmt.Errorf("%w: delete otp: %v", ErrUpstream, err)
	}
	return &pending, nil
}

// ValidateUser checks that the bearer of claims still exists with the same
// role. When adminPanel is set, plain users are rejected.
func (s *AuthService) ValidateUser(ctx context.Context, claims *jwt.Claims, adminPanel bool) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || string(user.Role) != claims.Role {
		return nil, ErrSessionInvalid
	}
	if adminPanel && user.Role == model.UserRoleUser {
		return nil, ErrAdminRequired
	}
	return user, nil
}

// Me returns the caller's profile
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies profile edits
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.User, error) {
	if req.Name != nil {
		name := model.SanitizeText(strings.TrimSpace(*req.Name))
		req.Name = &name
	}
	if req.CodechefHandle != nil {
		handle := strings.TrimSpace(*req.CodechefHandle)
		req.CodechefHandle = &handle
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// MyEvents returns the caller's registered events, newest date first
func (s *AuthService) MyEvents(ctx context.Context, userID string) ([]*model.Event, error) {
	return s.eventRepo.ListByUser(ctx, userID)
}

// issue signs an access token for user
func (s *AuthService) issue(user *model.User) (*model.AuthResponse, error) {
	token, err := s.jwt.Sign(jwt.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.jwt.AccessTTL()),
		User:      user,
	}, nil
}

func (s *AuthService) allowedDomain(email string) bool {
	if s.emailDomain == "" {
		return true
	}
	return strings.HasSuffix(email, "@"+s.emailDomain)
}

// Helper functions

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
