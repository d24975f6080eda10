package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/service"
)

// ============================================================================
// Mock Services
// ============================================================================

type mockEventService struct {
	createFunc              func(ctx context.Context, in *model.EventInput, image *multipart.FileHeader) (*model.Event, error)
	updateFunc              func(ctx context.Context, id string, in *model.EventInput, image *multipart.FileHeader) (*model.Event, error)
	deleteFunc              func(ctx context.Context, id string) error
	getFunc                 func(ctx context.Context, id string) (*model.Event, error)
	addWinnersFunc          func(ctx context.Context, eventID string, in []model.WinnerInput) ([]model.Winner, error)
	exportRegistrationsFunc func(ctx context.Context, eventID string) (*model.Event, []byte, error)
}

func (m *mockEventService) Create(ctx context.Context, in *model.EventInput, image *multipart.FileHeader) (*model.Event, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, in, image)
	}
	return nil, nil
}

func (m *mockEventService) Update(ctx context.Context, id string, in *model.EventInput, image *multipart.FileHeader) (*model.Event, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, in, image)
	}
	return nil, nil
}

func (m *mockEventService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockEventService) Get(ctx context.Context, id string) (*model.Event, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockEventService) List(context.Context) ([]*model.Event, error) {
	return []*model.Event{}, nil
}

func (m *mockEventService) Ongoing(context.Context) ([]*model.Event, error) {
	return []*model.Event{}, nil
}

func (m *mockEventService) AddWinners(ctx context.Context, eventID string, in []model.WinnerInput) ([]model.Winner, error) {
	if m.addWinnersFunc != nil {
		return m.addWinnersFunc(ctx, eventID, in)
	}
	return nil, nil
}

func (m *mockEventService) ReplaceWinners(context.Context, string, []model.WinnerInput) ([]model.Winner, error) {
	return nil, nil
}

func (m *mockEventService) GetWinners(context.Context, string) ([]model.Winner, error) {
	return []model.Winner{}, nil
}

func (m *mockEventService) DeleteWinners(context.Context, string) error {
	return nil
}

func (m *mockEventService) ExportRegistrations(ctx context.Context, eventID string) (*model.Event, []byte, error) {
	if m.exportRegistrationsFunc != nil {
		return m.exportRegistrationsFunc(ctx, eventID)
	}
	return nil, nil, nil
}

type mockRegistrationService struct {
	requestOTPFunc func(ctx context.Context, eventID, email string) (*model.EventOTPResponse, error)
	registerFunc   func(ctx context.Context, eventID, userID string, req *model.RegisterEventRequest) (*model.Registration, error)
}

func (m *mockRegistrationService) RequestOTP(ctx context.Context, eventID, email string) (*model.EventOTPResponse, error) {
	if m.requestOTPFunc != nil {
		return m.requestOTPFunc(ctx, eventID, email)
	}
	return nil, nil
}

func (m *mockRegistrationService) Register(ctx context.Context, eventID, userID string, req *model.RegisterEventRequest) (*model.Registration, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, eventID, userID, req)
	}
	return nil, nil
}

func newEventHandler(events *mockEventService, regs *mockRegistrationService) *EventHandler {
	if events == nil {
		events = &mockEventService{}
	}
	if regs == nil {
		regs = &mockRegistrationService{}
	}
	return NewEventHandler(EventHandlerConfig{EventService: events, RegistrationService: regs})
}

func newTestEvent() *model.Event {
	return &model.Event{
		ID:               "event:hack",
		Title:            "Hack Night 2024",
		Description:      "Overnight hackathon",
		Date:             time.Date(2024, 11, 2, 18, 0, 0, 0, time.UTC),
		Location:         "Main Hall",
		RegistrationOpen: true,
		ImageURL:         "https://cdn.example.com/events/hack.png",
		Winners:          []model.Winner{},
	}
}

// ============================================================================
// Event CRUD Tests
// ============================================================================

func TestCreateEvent_JSON_ReturnsCreated(t *testing.T) {
	t.Parallel()

	var gotImage *multipart.FileHeader
	h := newEventHandler(&mockEventService{
		createFunc: func(_ context.Context, in *model.EventInput, image *multipart.FileHeader) (*model.Event, error) {
			gotImage = image
			ev := newTestEvent()
			ev.Title = in.Title
			return ev, nil
		},
	}, nil)

	req := makeJSONRequest(http.MethodPost, "/v1/admin/events", model.EventInput{
		Title:       "Hack Night 2024",
		Description: "Overnight hackathon",
		Date:        "2024-11-02",
		Location:    "Main Hall",
		MoreDetails: "Bring a laptop",
	})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, passthrough) }, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Nil(t, gotImage)
	var ev model.Event
	parseDataResponse(t, rr.Body.Bytes(), &ev)
	assert.Equal(t, "event:hack", ev.ID)
}

func TestCreateEvent_Multipart_PassesImage(t *testing.T) {
	t.Parallel()

	var (
		gotIn    *model.EventInput
		gotImage *multipart.FileHeader
	)
	h := newEventHandler(&mockEventService{
		createFunc: func(_ context.Context, in *model.EventInput, image *multipart.FileHeader) (*model.Event, error) {
			gotIn, gotImage = in, image
			return newTestEvent(), nil
		},
	}, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"title":             "Hack Night 2024",
		"description":       "Overnight hackathon",
		"date":              "2024-11-02T18:00:00Z",
		"location":          "Main Hall",
		"more_details":      "Bring a laptop",
		"registration_open": "true",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("image", "poster.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/events", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, passthrough) }, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NotNil(t, gotIn)
	assert.True(t, gotIn.RegistrationOpen)
	require.NotNil(t, gotImage)
	assert.Equal(t, "poster.png", gotImage.Filename)
}

func TestCreateEvent_MissingFields_ReturnsValidationError(t *testing.T) {
	t.Parallel()

	h := newEventHandler(nil, nil)
	req := makeJSONRequest(http.MethodPost, "/v1/admin/events", map[string]string{"title": "Only a title"})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, passthrough) }, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	apiErr := parseErrorResponse(t, rr.Body.Bytes())
	assert.NotEmpty(t, apiErr.Fields)
}

func TestGetEvent_AfterDelete_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	deleted := false
	h := newEventHandler(&mockEventService{
		deleteFunc: func(context.Context, string) error {
			deleted = true
			return nil
		},
		getFunc: func(context.Context, string) (*model.Event, error) {
			if deleted {
				return nil, service.ErrEventNotFound
			}
			return newTestEvent(), nil
		},
	}, nil)
	register := func(mux *http.ServeMux) { h.RegisterRoutes(mux, passthrough) }

	rr := serve(register, httptest.NewRequest(http.MethodGet, "/v1/events/hack", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(register, httptest.NewRequest(http.MethodDelete, "/v1/admin/events/hack", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(register, httptest.NewRequest(http.MethodGet, "/v1/events/hack", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, model.ErrCodeNotFound, parseErrorResponse(t, rr.Body.Bytes()).Code)
}

func TestAddWinners_NoneValid_ReturnsValidationError(t *testing.T) {
	t.Parallel()

	h := newEventHandler(&mockEventService{
		addWinnersFunc: func(context.Context, string, []model.WinnerInput) ([]model.Winner, error) {
			return nil, service.ErrNoValidWinners
		},
	}, nil)
	req := makeJSONRequest(http.MethodPost, "/v1/admin/events/hack/winners", model.WinnersRequest{
		Winners: []model.WinnerInput{{Description: "no name"}},
	})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, passthrough) }, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	apiErr := parseErrorResponse(t, rr.Body.Bytes())
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "winners", apiErr.Fields[0].Field)
}

func TestExportRegistrations_WritesCSVAttachment(t *testing.T) {
	t.Parallel()

	csv := []byte("id,name,email,enrollment,phone,college,team\n")
	h := newEventHandler(&mockEventService{
		exportRegistrationsFunc: func(_ context.Context, eventID string) (*model.Event, []byte, error) {
			assert.Equal(t, "hack", eventID)
			return newTestEvent(), csv, nil
		},
	}, nil)
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, passthrough) },
		httptest.NewRequest(http.MethodGet, "/v1/admin/events/hack/registrations", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="hack-night-2024-registrations.csv"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, string(csv), rr.Body.String())
}

// ============================================================================
// Registration Tests
// ============================================================================

func TestRequestOTP_ReturnsToken(t *testing.T) {
	t.Parallel()

	h := newEventHandler(nil, &mockRegistrationService{
		requestOTPFunc: func(_ context.Context, eventID, email string) (*model.EventOTPResponse, error) {
			assert.Equal(t, "hack", eventID)
			assert.Equal(t, "test@iiitl.ac.in", email)
			return &model.EventOTPResponse{OTPToken: "signed", ExpiresAt: time.Now().Add(5 * time.Minute)}, nil
		},
	})
	req := makeJSONRequest(http.MethodPost, "/v1/events/hack/otp", map[string]string{"email": "test@iiitl.ac.in"})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, passthrough) }, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp model.EventOTPResponse
	parseDataResponse(t, rr.Body.Bytes(), &resp)
	assert.Equal(t, "signed", resp.OTPToken)
}

func TestRequestOTP_ClosedEvent_ReturnsBadRequest(t *testing.T) {
	t.Parallel()

	h := newEventHandler(nil, &mockRegistrationService{
		requestOTPFunc: func(context.Context, string, string) (*model.EventOTPResponse, error) {
			return nil, service.ErrRegistrationClosed
		},
	})
	req := makeJSONRequest(http.MethodPost, "/v1/events/hack/otp", map[string]string{"email": "test@iiitl.ac.in"})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, passthrough) }, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_BearerUser_PassesUserID(t *testing.T) {
	t.Parallel()

	var gotUserID string
	h := newEventHandler(nil, &mockRegistrationService{
		registerFunc: func(_ context.Context, _, userID string, _ *model.RegisterEventRequest) (*model.Registration, error) {
			gotUserID = userID
			return &model.Registration{ID: "r1", EventID: "event:hack", UserID: userID}, nil
		},
	})
	req := withUserContext(makeJSONRequest(http.MethodPost, "/v1/events/hack/register", model.RegisterEventRequest{
		Phone:    "9999999999",
		College:  "IIIT Lucknow",
		TeamName: "gophers",
	}), "user:123")
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, passthrough) }, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "user:123", gotUserID)
}

func TestRegister_ServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   model.ErrorCode
	}{
		{"expired otp token", service.ErrOTPExpired, http.StatusUnauthorized, model.ErrCodeTokenExpired},
		{"wrong otp", service.ErrOTPInvalid, http.StatusUnauthorized, model.ErrCodeOTPInvalid},
		{"unknown email", service.ErrUserNotFound, http.StatusNotFound, model.ErrCodeNotFound},
		{"already registered", service.ErrAlreadyRegistered, http.StatusConflict, model.ErrCodeConflict},
		{"missing fields", service.NewValidationError(
			model.FieldError{Field: "phone", Message: "phone is required"},
			model.FieldError{Field: "college", Message: "college is required"},
		), http.StatusUnprocessableEntity, model.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newEventHandler(nil, &mockRegistrationService{
				registerFunc: func(context.Context, string, string, *model.RegisterEventRequest) (*model.Registration, error) {
					return nil, tt.err
				},
			})
			req := makeJSONRequest(http.MethodPost, "/v1/events/hack/register", model.RegisterEventRequest{
				OTP:      "1234",
				OTPToken: "signed",
			})
			rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, passthrough) }, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCode, parseErrorResponse(t, rr.Body.Bytes()).Code)
		})
	}
}

func TestRegisterRoutes_OTPLimitWrapsCodeEndpoints(t *testing.T) {
	t.Parallel()

	var limited []string
	otpLimit := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limited = append(limited, r.URL.Path)
			model.NewRateLimitError(60).WriteJSON(w)
		})
	}
	h := newEventHandler(&mockEventService{
		getFunc: func(context.Context, string) (*model.Event, error) { return newTestEvent(), nil },
	}, &mockRegistrationService{})
	register := func(mux *http.ServeMux) { h.RegisterRoutes(mux, otpLimit) }

	rr := serve(register, makeJSONRequest(http.MethodPost, "/v1/events/hack/otp", map[string]string{"email": "ada@ahduni.edu.in"}))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr = serve(register, makeJSONRequest(http.MethodPost, "/v1/events/hack/register", model.RegisterEventRequest{OTP: "1234", OTPToken: "signed"}))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr = serve(register, httptest.NewRequest(http.MethodGet, "/v1/events/hack", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, []string{"/v1/events/hack/otp", "/v1/events/hack/register"}, limited)
}
