package handler

import (
	"context"
	"net/http"

	"github.com/pclub/portal/api/internal/middleware"
	"github.com/pclub/portal/api/internal/model"
)

// FormService defines the form operations
type FormService interface {
	Create(ctx context.Context, req *model.CreateFormRequest) (*model.Form, error)
	Get(ctx context.Context, id string) (*model.Form, error)
	List(ctx context.Context) ([]*model.Form, error)
	Delete(ctx context.Context, id string) error
	Submit(ctx context.Context, formID, userID string, req *model.SubmitFormRequest, meta model.SubmissionMetadata) (*model.FormSubmission, error)
	Submissions(ctx context.Context, formID string) ([]*model.FormSubmission, error)
	UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus) (*model.FormSubmission, error)
}

// FormHandler handles form endpoints
type FormHandler struct {
	svc FormService
}

// NewFormHandler creates a new form handler
func NewFormHandler(svc FormService) *FormHandler {
	return &FormHandler{svc: svc}
}

// RegisterRoutes registers form routes. Submission review lives under
// /v1/club/ so club members can use it.
func (h *FormHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/forms/{formId}", h.Get)
	mux.HandleFunc("POST /v1/forms/{formId}/submit", h.Submit)

	mux.HandleFunc("POST /v1/admin/forms", h.Create)
	mux.HandleFunc("GET /v1/admin/forms", h.List)
	mux.HandleFunc("DELETE /v1/admin/forms/{formId}", h.Delete)

	mux.HandleFunc("GET /v1/club/forms/{formId}/submissions", h.Submissions)
	mux.HandleFunc("PATCH /v1/club/submissions/{submissionId}/status", h.UpdateSubmissionStatus)
}

// Get handles GET /v1/forms/{formId}
func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.Get(r.Context(), r.PathValue("formId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, form)
}

// List handles GET /v1/admin/forms
func (h *FormHandler) List(w http.ResponseWriter, r *http.Request) {
	forms, err := h.svc.List(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, forms)
}

// Create handles POST /v1/admin/forms
func (h *FormHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateFormRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	form, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, form)
}

// Delete handles DELETE /v1/admin/forms/{formId}
func (h *FormHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("formId")); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteNoContent(w)
}

// Submit handles POST /v1/forms/{formId}/submit. Anonymous callers may
// answer forms that are not tied to an event.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitFormRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	meta := model.SubmissionMetadata{
		UserAgent: r.UserAgent(),
		IP:        middleware.ClientIP(r),
		Referrer:  r.Referer(),
	}
	sub, err := h.svc.Submit(r.Context(), r.PathValue("formId"), middleware.GetUserID(r.Context()), &req, meta)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, sub)
}

// Submissions handles GET /v1/club/forms/{formId}/submissions
func (h *FormHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.Submissions(r.Context(), r.PathValue("formId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if subs == nil {
		subs = []*model.FormSubmission{}
	}

	WriteData(w, http.StatusOK, subs)
}

// UpdateSubmissionStatus handles PATCH /v1/club/submissions/{submissionId}/status
func (h *FormHandler) UpdateSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateSubmissionStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sub, err := h.svc.UpdateSubmissionStatus(r.Context(), r.PathValue("submissionId"), req.Status)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, sub)
}
