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
)

// EventReader loads events
type EventReader interface {
	Get(ctx context.Context, id string) (*model.Event, error)
}

// UserReader loads users
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// RegistrationRepository defines the interface for registration storage
type RegistrationRepository interface {
	Exists(ctx context.Context, eventID, userID string) (bool, error)
	Register(ctx context.Context, reg *model.Registration) error
}

// RegistrationService handles OTP-gated event registration
type RegistrationService struct {
	eventRepo EventReader
	userRepo  UserReader
	regRepo   RegistrationRepository
	store     KeyValueStore
	mailer    mailer.Mailer
	jwt       *jwt.Service
}

// RegistrationServiceConfig holds configuration for the registration service
type RegistrationServiceConfig struct {
	EventRepo        EventReader
	UserRepo         UserReader
	RegistrationRepo RegistrationRepository
	Store            KeyValueStore // counts code attempts per OTP token
	Mailer           mailer.Mailer
	JWT              *jwt.Service
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(cfg RegistrationServiceConfig) *RegistrationService {
	return &RegistrationService{
		eventRepo: cfg.EventRepo,
		userRepo:  cfg.UserRepo,
		regRepo:   cfg.RegistrationRepo,
		store:     cfg.Store,
		mailer:    cfg.Mailer,
		jwt:       cfg.JWT,
	}
}

// openEvent loads an event that accepts registrations
func (s *RegistrationService) openEvent(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if !event.RegistrationOpen {
		return nil, ErrRegistrationClosed
	}
	return event, nil
}

// RequestOTP emails a 4-digit code to an existing user and returns a signed
// token binding the code to their email.
func (s *RegistrationService) RequestOTP(ctx context.Context, eventID, email string) (*model.EventOTPResponse, error) {
	event, err := s.openEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	code, err := generateOTP(eventOTPLength)
	if err != nil {
		return nil, err
	}
	token, err := s.jwt.SignOTP(user.Email, code)
	if err != nil {
		return nil, err
	}
	if err := sendOTP(ctx, s.mailer, user.Email, mailer.PurposeEventRegistration, code, s.jwt.OTPTTL(), event.Title); err != nil {
		return nil, err
	}

	return &model.EventOTPResponse{
		OTPToken:  token,
		ExpiresAt: time.Now().Add(s.jwt.OTPTTL()),
	}, nil
}

// Register signs a user up for an event. userID is the bearer's id, or
// empty when the caller proves their email with an OTP instead.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID string, req *model.RegisterEventRequest) (*model.Registration, error) {
	event, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	authenticated := userID != ""
	if fields := req.Validate(authenticated); len(fields) > 0 {
		return nil, NewValidationError(fields...)
	}
	if !event.RegistrationOpen {
		return nil, ErrRegistrationClosed
	}

	user, err := s.resolveUser(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	exists, err := s.regRepo.Exists(ctx, event.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	reg := &model.Registration{
		EventID:      event.ID,
		UserID:       user.ID,
		Phone:        strings.TrimSpace(req.Phone),
		College:      model.SanitizeText(strings.TrimSpace(req.College)),
		TeamName:     model.SanitizeText(strings.TrimSpace(req.TeamName)),
		RegisteredAt: time.Now(),
	}
	if err := s.regRepo.Register(ctx, reg); err != nil {
		if isDuplicate(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	return reg, nil
}

// resolveUser returns the bearer, or the owner of the OTP token's email
func (s *RegistrationService) resolveUser(ctx context.Context, userID string, req *model.RegisterEventRequest) (*model.User, error) {
	if userID != "" {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		return user, nil
	}

	email, err := s.verifyOTP(ctx, req.OTPToken, strings.TrimSpace(req.OTP))
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// verifyOTP checks code against the OTP token and returns its email. Every
// attempt on a token is counted; after maxOTPAttempts the token is refused
// even with the right code.
func (s *RegistrationService) verifyOTP(ctx context.Context, token, code string) (string, error) {
	claims, err := s.jwt.ParseOTP(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrOTPExpired
		}
		return "", ErrOTPInvalid
	}

	attempts, _, err := s.store.Incr(ctx, cache.EventOTPAttemptsKey(claims.ID), s.jwt.OTPTTL())
	if err != nil {
		return "", fmt.Errorf("%w: count otp attempt: %v", ErrUpstream, err)
	}
	if attempts > maxOTPAttempts {
		return "", ErrOTPAttemptsExceeded
	}
	if !s.jwt.MatchOTP(claims, code) {
		return "", ErrOTPInvalid
	}
	return claims.Email, nil
}
