package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/middleware"
	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/service"
	"github.com/pclub/portal/api/internal/upload"
)

var exposeDetail atomic.Bool

// SetErrorDetail controls whether 5xx bodies carry the underlying error.
// It is enabled outside production.
func SetErrorDetail(enabled bool) {
	exposeDetail.Store(enabled)
}

// MapServiceError converts a service error to an APIError.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.APIError {
	if err == nil {
		return nil
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	// ===== Validation Errors → 422 =====
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return model.NewValidationError(verr.Fields)
	}

	switch {
	case errors.Is(err, service.ErrEmailDomainNotAllowed):
		return model.NewValidationError([]model.FieldError{{Field: "email", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidRole):
		return model.NewValidationError([]model.FieldError{{Field: "role", Message: err.Error()}})
	case errors.Is(err, service.ErrEventImageRequired),
		errors.Is(err, upload.ErrFileTooLarge),
		errors.Is(err, upload.ErrUnsupportedType),
		errors.Is(err, upload.ErrTooManyFiles):
		return model.NewValidationError([]model.FieldError{{Field: "image", Message: err.Error()}})
	case errors.Is(err, service.ErrNoImages):
		return model.NewValidationError([]model.FieldError{{Field: "images", Message: err.Error()}})
	case errors.Is(err, service.ErrNoValidWinners):
		return model.NewValidationError([]model.FieldError{{Field: "winners", Message: err.Error()}})
	case errors.Is(err, service.ErrHandleRequired):
		return model.NewValidationError([]model.FieldError{{Field: "handle", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidProblemLink):
		return model.NewValidationError([]model.FieldError{{Field: "link", Message: err.Error()}})

	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials):
		return &model.APIError{
			Status:  http.StatusUnauthorized,
			Code:    model.ErrCodeLoginFailed,
			Title:   "Unauthorized",
			Message: err.Error(),
		}
	case errors.Is(err, service.ErrOTPInvalid),
		errors.Is(err, service.ErrOTPAttemptsExceeded):
		return &model.APIError{
			Status:  http.StatusUnauthorized,
			Code:    model.ErrCodeOTPInvalid,
			Title:   "Unauthorized",
			Message: err.Error(),
		}
	case errors.Is(err, service.ErrOTPExpired):
		return model.NewTokenExpiredError(err.Error())
	case errors.Is(err, service.ErrSessionInvalid),
		errors.Is(err, service.ErrLoginRequired):
		return model.NewUnauthorizedError(err.Error())

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrAdminRequired),
		errors.Is(err, service.ErrNotBlogAuthor),
		errors.Is(err, service.ErrNotCommentOwner):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrEventNotFound):
		return model.NewNotFoundError("event")
	case errors.Is(err, service.ErrGalleryNotFound):
		return model.NewNotFoundError("gallery")
	case errors.Is(err, service.ErrMemberNotFound):
		return model.NewNotFoundError("member")
	case errors.Is(err, service.ErrRoleNotFound):
		return model.NewNotFoundError("recruitment role")
	case errors.Is(err, service.ErrFormNotFound):
		return model.NewNotFoundError("form")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return model.NewNotFoundError("submission")
	case errors.Is(err, service.ErrBlogNotFound):
		return model.NewNotFoundError("blog")
	case errors.Is(err, service.ErrCommentNotFound):
		return model.NewNotFoundError("comment")
	case errors.Is(err, service.ErrProblemNotFound):
		return model.NewNotFoundError("problem")
	case errors.Is(err, service.ErrHandleNotFound),
		errors.Is(err, service.ErrRoleMemberAbsent),
		errors.Is(err, service.ErrLikeNotFound),
		errors.Is(err, service.ErrSnapshotNotFound),
		errors.Is(err, service.ErrNotSolved),
		errors.Is(err, service.ErrNotRanked):
		return &model.APIError{
			Status:  http.StatusNotFound,
			Code:    model.ErrCodeNotFound,
			Title:   "Not Found",
			Message: err.Error(),
		}
	case errors.Is(err, database.ErrNotFound):
		return model.NewNotFoundError("record")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrHandleTaken):
		return &model.APIError{
			Status:  http.StatusConflict,
			Code:    model.ErrCodeAlreadyExists,
			Title:   "Conflict",
			Message: err.Error(),
		}
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrAlreadyLiked),
		errors.Is(err, service.ErrRoleUnchanged):
		return model.NewConflictError(err.Error())
	case errors.Is(err, database.ErrDuplicate):
		return model.NewConflictError("record already exists")

	// ===== Handle Verification → 400 =====
	// These messages are shown to the user verbatim.
	case errors.Is(err, service.ErrNoActiveVerification),
		errors.Is(err, service.ErrVerificationExpired),
		errors.Is(err, service.ErrNoSubmissions),
		errors.Is(err, service.ErrNoRecentSubmission),
		errors.Is(err, service.ErrWrongProblem),
		errors.Is(err, service.ErrNotCompilationError),
		errors.Is(err, service.ErrNoHandleLinked):
		return model.NewBadRequestError(err.Error())

	// ===== State Errors → 400 =====
	case errors.Is(err, service.ErrRegistrationClosed),
		errors.Is(err, service.ErrFormInactive),
		errors.Is(err, service.ErrInvalidPeriod):
		return model.NewBadRequestError(err.Error())

	// ===== Infrastructure Errors → 5xx =====
	case errors.Is(err, upload.ErrNotConfigured):
		return model.NewServiceUnavailableError("image uploads are not configured")
	case errors.Is(err, service.ErrUpstream):
		return &model.APIError{
			Status:  http.StatusInternalServerError,
			Code:    model.ErrCodeExternalAPI,
			Title:   "Internal Server Error",
			Message: "An external service failed, please try again",
		}
	case errors.Is(err, database.ErrQuery),
		errors.Is(err, database.ErrConnection):
		return &model.APIError{
			Status:  http.StatusInternalServerError,
			Code:    model.ErrCodeDatabase,
			Title:   "Internal Server Error",
			Message: "An unexpected error occurred",
		}

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext maps err and logs 5xx causes with the request
// id. Outside production the cause is attached as detail.
func MapServiceErrorWithContext(r *http.Request, err error) *model.APIError {
	apiErr := MapServiceError(err)
	if apiErr == nil || apiErr.Status < http.StatusInternalServerError {
		return apiErr
	}

	slog.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("error", err.Error()),
	)
	if exposeDetail.Load() {
		return apiErr.WithDetail(err.Error())
	}
	return apiErr
}
