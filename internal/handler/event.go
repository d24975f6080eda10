package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/pclub/portal/api/internal/middleware"
	"github.com/pclub/portal/api/internal/model"
)

// maxMultipartMemory is held in memory before parts spill to disk
const maxMultipartMemory = 32 << 20

// EventService defines the event operations the handler needs
type EventService interface {
	Create(ctx context.Context, in *model.EventInput, image *multipart.FileHeader) (*model.Event, error)
	Update(ctx context.Context, id string, in *model.EventInput, image *multipart.FileHeader) (*model.Event, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	Ongoing(ctx context.Context) ([]*model.Event, error)
	AddWinners(ctx context.Context, eventID string, in []model.WinnerInput) ([]model.Winner, error)
	ReplaceWinners(ctx context.Context, eventID string, in []model.WinnerInput) ([]model.Winner, error)
	GetWinners(ctx context.Context, eventID string) ([]model.Winner, error)
	DeleteWinners(ctx context.Context, eventID string) error
	ExportRegistrations(ctx context.Context, eventID string) (*model.Event, []byte, error)
}

// RegistrationService defines the event registration operations
type RegistrationService interface {
	RequestOTP(ctx context.Context, eventID, email string) (*model.EventOTPResponse, error)
	Register(ctx context.Context, eventID, userID string, req *model.RegisterEventRequest) (*model.Registration, error)
}

// EventHandler handles event endpoints
type EventHandler struct {
	events        EventService
	registrations RegistrationService
}

// EventHandlerConfig holds the event handler's dependencies
type EventHandlerConfig struct {
	EventService        EventService
	RegistrationService RegistrationService
}

// NewEventHandler creates a new event handler
func NewEventHandler(cfg EventHandlerConfig) *EventHandler {
	return &EventHandler{
		events:        cfg.EventService,
		registrations: cfg.RegistrationService,
	}
}

// RegisterRoutes registers event routes. otpLimit wraps the endpoints that
// send or check a code.
func (h *EventHandler) RegisterRoutes(mux *http.ServeMux, otpLimit middleware.Middleware) {
	// Public
	mux.HandleFunc("GET /v1/events", h.List)
	mux.HandleFunc("GET /v1/events/ongoing", h.Ongoing)
	mux.HandleFunc("GET /v1/events/{eventId}", h.Get)
	mux.HandleFunc("GET /v1/events/{eventId}/winners", h.GetWinners)
	mux.Handle("POST /v1/events/{eventId}/otp", otpLimit(http.HandlerFunc(h.RequestOTP)))
	mux.Handle("POST /v1/events/{eventId}/register", otpLimit(http.HandlerFunc(h.Register)))

	// Admin
	mux.HandleFunc("POST /v1/admin/events", h.Create)
	mux.HandleFunc("PUT /v1/admin/events/{eventId}", h.Update)
	mux.HandleFunc("DELETE /v1/admin/events/{eventId}", h.Delete)
	mux.HandleFunc("POST /v1/admin/events/{eventId}/winners", h.AddWinners)
	mux.HandleFunc("PUT /v1/admin/events/{eventId}/winners", h.ReplaceWinners)
	mux.HandleFunc("DELETE /v1/admin/events/{eventId}/winners", h.DeleteWinners)
	mux.HandleFunc("GET /v1/admin/events/{eventId}/registrations", h.ExportRegistrations)
}

// List handles GET /v1/events - all events, newest first
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, events)
}

// Ongoing handles GET /v1/events/ongoing - events open for registration
func (h *EventHandler) Ongoing(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.Ongoing(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, events)
}

// Get handles GET /v1/events/{eventId}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), r.PathValue("eventId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, event)
}

// Create handles POST /v1/admin/events - multipart with an "image" file
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, image, ok := readEventForm(w, r)
	if !ok {
		return
	}

	event, err := h.events.Create(r.Context(), in, image)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, event)
}

// Update handles PUT /v1/admin/events/{eventId}. The image is optional.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, image, ok := readEventForm(w, r)
	if !ok {
		return
	}

	event, err := h.events.Update(r.Context(), r.PathValue("eventId"), in, image)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, event)
}

// Delete handles DELETE /v1/admin/events/{eventId}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), r.PathValue("eventId")); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteNoContent(w)
}

// readEventForm reads event fields from a multipart form, or from a JSON
// body when no file is sent.
func readEventForm(w http.ResponseWriter, r *http.Request) (*model.EventInput, *multipart.FileHeader, bool) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var in model.EventInput
		if !decodeAndValidate(w, r, &in) {
			return nil, nil, false
		}
		return &in, nil, true
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		WriteError(w, model.NewBadRequestError("invalid multipart form"))
		return nil, nil, false
	}

	open, _ := strconv.ParseBool(r.FormValue("registration_open"))
	in := &model.EventInput{
		Title:            r.FormValue("title"),
		Description:      r.FormValue("description"),
		Rules:            r.FormValue("rules"),
		Date:             r.FormValue("date"),
		Location:         r.FormValue("location"),
		RegistrationOpen: open,
		MoreDetails:      r.FormValue("more_details"),
	}
	if errs := in.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return nil, nil, false
	}

	var image *multipart.FileHeader
	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		image = files[0]
	}
	return in, image, true
}

// ===== Winners =====

// GetWinners handles GET /v1/events/{eventId}/winners
func (h *EventHandler) GetWinners(w http.ResponseWriter, r *http.Request) {
	winners, err := h.events.GetWinners(r.Context(), r.PathValue("eventId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, winners)
}

// AddWinners handles POST /v1/admin/events/{eventId}/winners
func (h *EventHandler) AddWinners(w http.ResponseWriter, r *http.Request) {
	var req model.WinnersRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	winners, err := h.events.AddWinners(r.Context(), r.PathValue("eventId"), req.Winners)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, winners)
}

// ReplaceWinners handles PUT /v1/admin/events/{eventId}/winners
func (h *EventHandler) ReplaceWinners(w http.ResponseWriter, r *http.Request) {
	var req model.WinnersRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	winners, err := h.events.ReplaceWinners(r.Context(), r.PathValue("eventId"), req.Winners)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, winners)
}

// DeleteWinners handles DELETE /v1/admin/events/{eventId}/winners
func (h *EventHandler) DeleteWinners(w http.ResponseWriter, r *http.Request) {
	if err := h.events.DeleteWinners(r.Context(), r.PathValue("eventId")); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteNoContent(w)
}

// ExportRegistrations handles GET /v1/admin/events/{eventId}/registrations
// and returns a CSV attachment.
func (h *EventHandler) ExportRegistrations(w http.ResponseWriter, r *http.Request) {
	event, data, err := h.events.ExportRegistrations(r.Context(), r.PathValue("eventId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	name := model.Slugify(event.Title)
	if name == "" {
		name = "event"
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-registrations.csv"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ===== Registration =====

// RequestOTP handles POST /v1/events/{eventId}/otp
func (h *EventHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req model.RequestEventOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.registrations.RequestOTP(r.Context(), r.PathValue("eventId"), req.Email)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, resp)
}

// Register handles POST /v1/events/{eventId}/register. A bearer token
// replaces the otp and otp_token fields.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterEventRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	userID := middleware.GetUserID(r.Context())
	reg, err := h.registrations.Register(r.Context(), r.PathValue("eventId"), userID, &req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, reg)
}
