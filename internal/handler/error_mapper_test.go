package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/service"
	"github.com/pclub/portal/api/internal/upload"
)

func TestMapServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   model.ErrorCode
		wantField  string
	}{
		{"validation fields", service.NewValidationError(model.FieldError{Field: "phone", Message: "required"}), 422, model.ErrCodeValidation, "phone"},
		{"email domain", service.ErrEmailDomainNotAllowed, 422, model.ErrCodeValidation, "email"},
		{"invalid role", service.ErrInvalidRole, 422, model.ErrCodeValidation, "role"},
		{"missing event image", service.ErrEventImageRequired, 422, model.ErrCodeValidation, "image"},
		{"oversized upload", upload.ErrFileTooLarge, 422, model.ErrCodeValidation, "image"},
		{"no gallery images", service.ErrNoImages, 422, model.ErrCodeValidation, "images"},
		{"bad problem link", service.ErrInvalidProblemLink, 422, model.ErrCodeValidation, "link"},

		{"bad credentials", service.ErrInvalidCredentials, 401, model.ErrCodeLoginFailed, ""},
		{"wrong otp", service.ErrOTPInvalid, 401, model.ErrCodeOTPInvalid, ""},
		{"otp attempts exhausted", service.ErrOTPAttemptsExceeded, 401, model.ErrCodeOTPInvalid, ""},
		{"expired otp", service.ErrOTPExpired, 401, model.ErrCodeTokenExpired, ""},
		{"stale session", service.ErrSessionInvalid, 401, model.ErrCodeUnauthorized, ""},
		{"linked form needs login", service.ErrLoginRequired, 401, model.ErrCodeUnauthorized, ""},

		{"admin only", service.ErrAdminRequired, 403, model.ErrCodeForbidden, ""},
		{"not blog author", service.ErrNotBlogAuthor, 403, model.ErrCodeForbidden, ""},
		{"not comment owner", service.ErrNotCommentOwner, 403, model.ErrCodeForbidden, ""},

		{"event missing", service.ErrEventNotFound, 404, model.ErrCodeNotFound, ""},
		{"role member missing", service.ErrRoleMemberAbsent, 404, model.ErrCodeNotFound, ""},
		{"no snapshot", service.ErrSnapshotNotFound, 404, model.ErrCodeNotFound, ""},
		{"db not found", database.ErrNotFound, 404, model.ErrCodeNotFound, ""},

		{"email taken", service.ErrEmailAlreadyExists, 409, model.ErrCodeAlreadyExists, ""},
		{"handle taken", service.ErrHandleTaken, 409, model.ErrCodeAlreadyExists, ""},
		{"already liked", service.ErrAlreadyLiked, 409, model.ErrCodeConflict, ""},
		{"same role", service.ErrRoleUnchanged, 409, model.ErrCodeConflict, ""},
		{"db duplicate", database.ErrDuplicate, 409, model.ErrCodeConflict, ""},

		{"registration closed", service.ErrRegistrationClosed, 400, model.ErrCodeInvalidInput, ""},
		{"bad period", service.ErrInvalidPeriod, 400, model.ErrCodeInvalidInput, ""},

		{"uploads off", upload.ErrNotConfigured, 503, model.ErrCodeUnavailable, ""},
		{"codeforces down", fmt.Errorf("%w: timeout", service.ErrUpstream), 500, model.ErrCodeExternalAPI, ""},
		{"db query", fmt.Errorf("%w: parse error", database.ErrQuery), 500, model.ErrCodeDatabase, ""},
		{"unknown", errors.New("boom"), 500, model.ErrCodeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			apiErr := MapServiceError(tt.err)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			if tt.wantField != "" {
				require.NotEmpty(t, apiErr.Fields)
				assert.Equal(t, tt.wantField, apiErr.Fields[0].Field)
			}
		})
	}
}

func TestMapServiceError_Nil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, MapServiceError(nil))
}

func TestMapServiceError_APIErrorPassesThrough(t *testing.T) {
	t.Parallel()

	in := model.NewConflictError("custom")
	assert.Same(t, in, MapServiceError(fmt.Errorf("wrapped: %w", in)))
}

func TestMapServiceError_VerificationMessagesVerbatim(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		service.ErrNoActiveVerification,
		service.ErrVerificationExpired,
		service.ErrNoSubmissions,
		service.ErrNoRecentSubmission,
		service.ErrWrongProblem,
		service.ErrNotCompilationError,
	} {
		apiErr := MapServiceError(err)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, err.Error(), apiErr.Message)
	}
}

// Not parallel: toggles package state.
func TestMapServiceErrorWithContext_Detail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	cause := errors.New("connection refused")

	SetErrorDetail(false)
	assert.Empty(t, MapServiceErrorWithContext(req, cause).Detail)

	SetErrorDetail(true)
	defer SetErrorDetail(false)
	assert.Equal(t, "connection refused", MapServiceErrorWithContext(req, cause).Detail)

	// 4xx never carries detail
	assert.Empty(t, MapServiceErrorWithContext(req, service.ErrEventNotFound).Detail)
}
