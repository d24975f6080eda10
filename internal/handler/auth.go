package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/pclub/portal/api/internal/middleware"
	"github.com/pclub/portal/api/internal/model"
)

// AuthService defines the account operations the auth handler needs
type AuthService interface {
	RequestRegistration(ctx context.Context, req *model.SignupRequest) (time.Time, error)
	VerifyRegistration(ctx context.Context, req *model.VerifySignupRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
	AdminLogin(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
	RequestPasswordReset(ctx context.Context, email string) (time.Time, error)
	ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error
	Me(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.User, error)
	MyEvents(ctx context.Context, userID string) ([]*model.Event, error)
}

// AuthHandler handles authentication and profile endpoints
type AuthHandler struct {
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// OTPSentResponse acknowledges an emailed code
type OTPSentResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterRoutes registers auth and profile routes. otpLimit wraps the
// endpoints that send email.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, otpLimit middleware.Middleware) {
	mux.Handle("POST /v1/auth/signup", otpLimit(http.HandlerFunc(h.Signup)))
	mux.HandleFunc("POST /v1/auth/signup/verify", h.VerifySignup)
	mux.HandleFunc("POST /v1/auth/login", h.Login)
	mux.Handle("POST /v1/auth/password/forgot", otpLimit(http.HandlerFunc(h.ForgotPassword)))
	mux.HandleFunc("POST /v1/auth/password/reset", h.ResetPassword)
	mux.HandleFunc("POST /v1/admin/login", h.AdminLogin)

	// Gated: any authenticated role
	mux.HandleFunc("GET /v1/users/me", h.Me)
	mux.HandleFunc("PATCH /v1/users/me", h.UpdateProfile)
	mux.HandleFunc("GET /v1/users/me/events", h.MyEvents)
}

// Signup handles POST /v1/auth/signup - email a verification code
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	expiresAt, err := h.authService.RequestRegistration(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusAccepted, OTPSentResponse{
		Message:   "Verification code sent to " + req.Email,
		ExpiresAt: expiresAt,
	})
}

// VerifySignup handles POST /v1/auth/signup/verify - create the account
func (h *AuthHandler) VerifySignup(w http.ResponseWriter, r *http.Request) {
	var req model.VerifySignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authService.VerifyRegistration(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, result)
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, result)
}

// AdminLogin handles POST /v1/admin/login - staff roles only
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authService.AdminLogin(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, result)
}

// ForgotPassword handles POST /v1/auth/password/forgot
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordResetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	expiresAt, err := h.authService.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusAccepted, OTPSentResponse{
		Message:   "Password reset code sent to " + req.Email,
		ExpiresAt: expiresAt,
	})
}

// ResetPassword handles POST /v1/auth/password/reset
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), &req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteMessage(w, http.StatusOK, "Password updated")
}

// Me handles GET /v1/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	user, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user)
}

// UpdateProfile handles PATCH /v1/users/me
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user)
}

// MyEvents handles GET /v1/users/me/events
func (h *AuthHandler) MyEvents(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	events, err := h.authService.MyEvents(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []*model.Event{}
	}

	WriteData(w, http.StatusOK, events)
}
