package handler

import (
	"context"
	"net/http"

	"github.com/pclub/portal/api/internal/model"
)

// RecruitmentService defines the recruitment operations
type RecruitmentService interface {
	Overview(ctx context.Context) (*model.RecruitmentOverview, error)
	GetStatus(ctx context.Context) (bool, error)
	SetStatus(ctx context.Context, open bool) (bool, error)
	ToggleStatus(ctx context.Context) (bool, error)
	CreateRole(ctx context.Context, req *model.RecruitmentRoleRequest) (*model.RecruitmentRole, error)
	GetRole(ctx context.Context, id string) (*model.RecruitmentRole, error)
	UpdateRole(ctx context.Context, id string, req *model.RecruitmentRoleRequest) (*model.RecruitmentRole, error)
	DeleteRole(ctx context.Context, id string) error
	UpdateLeader(ctx context.Context, id string, leader model.RoleLeader) (*model.RecruitmentRole, error)
	GetMembers(ctx context.Context, id string) ([]model.RoleMember, error)
	AddMember(ctx context.Context, id string, req *model.AddRoleMemberRequest) (*model.RecruitmentRole, error)
	RemoveMember(ctx context.Context, id, memberID string) (*model.RecruitmentRole, error)
}

// RecruitmentHandler handles recruitment endpoints
type RecruitmentHandler struct {
	svc RecruitmentService
}

// NewRecruitmentHandler creates a new recruitment handler
func NewRecruitmentHandler(svc RecruitmentService) *RecruitmentHandler {
	return &RecruitmentHandler{svc: svc}
}

// StatusResponse reports whether recruitment is open
type StatusResponse struct {
	IsOpen bool `json:"is_open"`
}

// RegisterRoutes registers recruitment routes
func (h *RecruitmentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/recruitment", h.Overview)
	mux.HandleFunc("GET /v1/recruitment/status", h.GetStatus)
	mux.HandleFunc("GET /v1/recruitment/roles/{roleId}", h.GetRole)
	mux.HandleFunc("GET /v1/recruitment/roles/{roleId}/members", h.GetMembers)

	mux.HandleFunc("PUT /v1/admin/recruitment/status", h.SetStatus)
	mux.HandleFunc("POST /v1/admin/recruitment/status/toggle", h.ToggleStatus)
	mux.HandleFunc("POST /v1/admin/recruitment/roles", h.CreateRole)
	mux.HandleFunc("PUT /v1/admin/recruitment/roles/{roleId}", h.UpdateRole)
	mux.HandleFunc("DELETE /v1/admin/recruitment/roles/{roleId}", h.DeleteRole)
	mux.HandleFunc("PUT /v1/admin/recruitment/roles/{roleId}/leader", h.UpdateLeader)
	mux.HandleFunc("POST /v1/admin/recruitment/roles/{roleId}/members", h.AddMember)
	mux.HandleFunc("DELETE /v1/admin/recruitment/roles/{roleId}/members/{memberId}", h.RemoveMember)
}

// Overview handles GET /v1/recruitment - global status with every role
func (h *RecruitmentHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.Overview(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, overview)
}

// GetStatus handles GET /v1/recruitment/status
func (h *RecruitmentHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	open, err := h.svc.GetStatus(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, StatusResponse{IsOpen: open})
}

// SetStatus handles PUT /v1/admin/recruitment/status
func (h *RecruitmentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req model.RecruitmentStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	open, err := h.svc.SetStatus(r.Context(), *req.IsOpen)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, StatusResponse{IsOpen: open})
}

// ToggleStatus handles POST /v1/admin/recruitment/status/toggle
func (h *RecruitmentHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	open, err := h.svc.ToggleStatus(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, StatusResponse{IsOpen: open})
}

// ===== Roles =====

// GetRole handles GET /v1/recruitment/roles/{roleId}
func (h *RecruitmentHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.svc.GetRole(r.Context(), r.PathValue("roleId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, role)
}

// CreateRole handles POST /v1/admin/recruitment/roles. The image may be a
// URL or a data URI, which is uploaded.
func (h *RecruitmentHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req model.RecruitmentRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	role, err := h.svc.CreateRole(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, role)
}

// UpdateRole handles PUT /v1/admin/recruitment/roles/{roleId}
func (h *RecruitmentHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req model.RecruitmentRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	role, err := h.svc.UpdateRole(r.Context(), r.PathValue("roleId"), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, role)
}

// DeleteRole handles DELETE /v1/admin/recruitment/roles/{roleId}
func (h *RecruitmentHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteRole(r.Context(), r.PathValue("roleId")); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteNoContent(w)
}

// UpdateLeader handles PUT /v1/admin/recruitment/roles/{roleId}/leader
func (h *RecruitmentHandler) UpdateLeader(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateLeaderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	role, err := h.svc.UpdateLeader(r.Context(), r.PathValue("roleId"), req.Leader)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, role)
}

// ===== Team members =====

// GetMembers handles GET /v1/recruitment/roles/{roleId}/members
func (h *RecruitmentHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.GetMembers(r.Context(), r.PathValue("roleId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if members == nil {
		members = []model.RoleMember{}
	}

	WriteData(w, http.StatusOK, members)
}

// AddMember handles POST /v1/admin/recruitment/roles/{roleId}/members
func (h *RecruitmentHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req model.AddRoleMemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	role, err := h.svc.AddMember(r.Context(), r.PathValue("roleId"), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, role)
}

// RemoveMember handles DELETE /v1/admin/recruitment/roles/{roleId}/members/{memberId}
func (h *RecruitmentHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	role, err := h.svc.RemoveMember(r.Context(), r.PathValue("roleId"), r.PathValue("memberId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, role)
}
