package handler

import (
	"context"
	"net/http"

	"github.com/pclub/portal/api/internal/middleware"
	"github.com/pclub/portal/api/internal/model"
)

// HandleVerificationService links Codeforces handles to accounts
type HandleVerificationService interface {
	Start(ctx context.Context, userID, handle string) (*model.VerificationChallenge, error)
	Verify(ctx context.Context, userID string) (*model.User, error)
	RefreshRank(ctx context.Context, userID string) (*model.User, error)
	RemoveHandle(ctx context.Context, userID string) (*model.User, error)
}

// VerificationHandler handles Codeforces handle verification
type VerificationHandler struct {
	svc HandleVerificationService
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(svc HandleVerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

// RegisterRoutes registers handle routes. They sit under /v1/users/me so
// the gate requires a signed-in user.
func (h *VerificationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/users/me/codeforces/verify/start", h.Start)
	mux.HandleFunc("POST /v1/users/me/codeforces/verify", h.Verify)
	mux.HandleFunc("POST /v1/users/me/codeforces/refresh", h.Refresh)
	mux.HandleFunc("DELETE /v1/users/me/codeforces", h.Remove)
}

// Start handles POST /v1/users/me/codeforces/verify/start
func (h *VerificationHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.StartVerificationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	challenge, err := h.svc.Start(r.Context(), userID, req.Handle)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, challenge)
}

// Verify handles POST /v1/users/me/codeforces/verify
func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	user, err := h.svc.Verify(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user)
}

// Refresh handles POST /v1/users/me/codeforces/refresh
func (h *VerificationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	user, err := h.svc.RefreshRank(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user)
}

// Remove handles DELETE /v1/users/me/codeforces
func (h *VerificationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	user, err := h.svc.RemoveHandle(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user)
}
