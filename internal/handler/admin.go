package handler

import (
	"context"
	"net/http"

	"github.com/pclub/portal/api/internal/model"
)

// AdminService defines the admin account management operations
type AdminService interface {
	CreateAdmin(ctx context.Context, req *model.CreateAdminRequest) (*model.User, error)
	AssignRole(ctx context.Context, targetID string, req *model.AssignRoleRequest) (*model.User, error)
	SearchUsers(ctx context.Context, query string) ([]*model.User, error)
	Dashboard(ctx context.Context) (*model.Dashboard, error)
	UserEvents(ctx context.Context, email string) ([]*model.Event, error)
}

// AdminHandler handles admin panel endpoints. Every route is under
// /v1/admin/ and is gated to admins.
type AdminHandler struct {
	svc AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(svc AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// RegisterRoutes registers admin routes
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/admin/dashboard", h.Dashboard)
	mux.HandleFunc("GET /v1/admin/users", h.SearchUsers)
	mux.HandleFunc("GET /v1/admin/users/events", h.UserEvents)
	mux.HandleFunc("POST /v1/admin/admins", h.CreateAdmin)
	mux.HandleFunc("PUT /v1/admin/users/{userId}/role", h.AssignRole)
}

// Dashboard handles GET /v1/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Dashboard(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, stats)
}

// SearchUsers handles GET /v1/admin/users?q=
func (h *AdminHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}

	WriteData(w, http.StatusOK, users)
}

// UserEvents handles GET /v1/admin/users/events?email=
func (h *AdminHandler) UserEvents(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		WriteError(w, model.NewValidationError([]model.FieldError{{Field: "email", Message: "email is required"}}))
		return
	}

	events, err := h.svc.UserEvents(r.Context(), email)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []*model.Event{}
	}

	WriteData(w, http.StatusOK, events)
}

// CreateAdmin handles POST /v1/admin/admins. The acting admin re-enters
// their credentials in the body.
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAdminRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.svc.CreateAdmin(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, user)
}

// AssignRole handles PUT /v1/admin/users/{userId}/role
func (h *AdminHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req model.AssignRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.svc.AssignRole(r.Context(), r.PathValue("userId"), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user)
}
