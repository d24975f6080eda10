package handler

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/pclub/portal/api/internal/middleware"
	"github.com/pclub/portal/api/internal/model"
)

// ClubService defines the public club content operations
type ClubService interface {
	AddGallery(ctx context.Context, eventName string, images []*multipart.FileHeader) (*model.Gallery, error)
	ListGalleries(ctx context.Context) ([]*model.Gallery, error)
	GetGallery(ctx context.Context, id string) (*model.Gallery, error)
	DeleteGallery(ctx context.Context, id string) error

	AddMember(ctx context.Context, req *model.MemberRequest) (*model.Member, error)
	ListMembers(ctx context.Context) ([]*model.Member, error)
	GetMember(ctx context.Context, id string) (*model.Member, error)
	UpdateMember(ctx context.Context, id string, req *model.MemberRequest) (*model.Member, error)
	DeleteMember(ctx context.Context, id string) error

	GetNotice(ctx context.Context) (*model.Notice, error)
	SetNotice(ctx context.Context, req *model.NoticeRequest) (*model.Notice, error)

	SubmitContact(ctx context.Context, req *model.ContactRequest) (*model.ContactQuery, error)
	ListContacts(ctx context.Context) ([]*model.ContactQuery, error)
}

// ClubHandler handles gallery, member, notice and contact endpoints
type ClubHandler struct {
	svc ClubService
}

// NewClubHandler creates a new club handler
func NewClubHandler(svc ClubService) *ClubHandler {
	return &ClubHandler{svc: svc}
}

// RegisterRoutes registers club content routes. strictLimit wraps the
// public contact form.
func (h *ClubHandler) RegisterRoutes(mux *http.ServeMux, strictLimit middleware.Middleware) {
	// Gallery
	mux.HandleFunc("GET /v1/gallery", h.ListGalleries)
	mux.HandleFunc("GET /v1/gallery/{galleryId}", h.GetGallery)
	mux.HandleFunc("POST /v1/admin/gallery", h.AddGallery)
	mux.HandleFunc("DELETE /v1/admin/gallery/{galleryId}", h.DeleteGallery)

	// Members
	mux.HandleFunc("GET /v1/members", h.ListMembers)
	mux.HandleFunc("GET /v1/members/{memberId}", h.GetMember)
	mux.HandleFunc("POST /v1/admin/members", h.AddMember)
	mux.HandleFunc("PUT /v1/admin/members/{memberId}", h.UpdateMember)
	mux.HandleFunc("DELETE /v1/admin/members/{memberId}", h.DeleteMember)

	// Notice
	mux.HandleFunc("GET /v1/notice", h.GetNotice)
	mux.HandleFunc("PUT /v1/admin/notice", h.SetNotice)

	// Contact
	mux.Handle("POST /v1/contact", strictLimit(http.HandlerFunc(h.SubmitContact)))
	mux.HandleFunc("GET /v1/admin/contact", h.ListContacts)
}

// ===== Gallery =====

// ListGalleries handles GET /v1/gallery
func (h *ClubHandler) ListGalleries(w http.ResponseWriter, r *http.Request) {
	galleries, err := h.svc.ListGalleries(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, galleries)
}

// GetGallery handles GET /v1/gallery/{galleryId}
func (h *ClubHandler) GetGallery(w http.ResponseWriter, r *http.Request) {
	gallery, err := h.svc.GetGallery(r.Context(), r.PathValue("galleryId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, gallery)
}

// AddGallery handles POST /v1/admin/gallery - multipart with event_name
// and one or more "images" files
func (h *ClubHandler) AddGallery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		WriteError(w, model.NewBadRequestError("invalid multipart form"))
		return
	}

	gallery, err := h.svc.AddGallery(r.Context(), r.FormValue("event_name"), r.MultipartForm.File["images"])
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, gallery)
}

// DeleteGallery handles DELETE /v1/admin/gallery/{galleryId}
func (h *ClubHandler) DeleteGallery(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGallery(r.Context(), r.PathValue("galleryId")); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteNoContent(w)
}

// ===== Members =====

// ListMembers handles GET /v1/members
func (h *ClubHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListMembers(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, members)
}

// GetMember handles GET /v1/members/{memberId}
func (h *ClubHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	member, err := h.svc.GetMember(r.Context(), r.PathValue("memberId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, member)
}

// AddMember handles POST /v1/admin/members
func (h *ClubHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req model.MemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	member, err := h.svc.AddMember(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, member)
}

// UpdateMember handles PUT /v1/admin/members/{memberId}
func (h *ClubHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req model.MemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	member, err := h.svc.UpdateMember(r.Context(), r.PathValue("memberId"), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, member)
}

// DeleteMember handles DELETE /v1/admin/members/{memberId}
func (h *ClubHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMember(r.Context(), r.PathValue("memberId")); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteNoContent(w)
}

// ===== Notice =====

// GetNotice handles GET /v1/notice
func (h *ClubHandler) GetNotice(w http.ResponseWriter, r *http.Request) {
	notice, err := h.svc.GetNotice(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, notice)
}

// SetNotice handles PUT /v1/admin/notice
func (h *ClubHandler) SetNotice(w http.ResponseWriter, r *http.Request) {
	var req model.NoticeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	notice, err := h.svc.SetNotice(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, notice)
}

// ===== Contact =====

// SubmitContact handles POST /v1/contact
func (h *ClubHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	query, err := h.svc.SubmitContact(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, query)
}

// ListContacts handles GET /v1/admin/contact
func (h *ClubHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	queries, err := h.svc.ListContacts(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, queries)
}
