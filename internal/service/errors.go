package service

import (
	"errors"
	"strings"

	"github.com/pclub/portal/api/internal/model"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrEmailAlreadyExists    = errors.New("email already registered")
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailDomainNotAllowed = errors.New("sign up using your university email")
	ErrSessionInvalid        = errors.New("session is no longer valid, please log in again")
	ErrAdminRequired         = errors.New("admin access required")
)

// ===== OTP Errors =====
var (
	ErrOTPInvalid = errors.New("Invalid OTP")
	ErrOTPExpired = errors.New("OTP expired")

	ErrOTPAttemptsExceeded = errors.New("too many incorrect attempts, request a new OTP")
)

// ===== Admin Errors =====
var (
	ErrInvalidRole   = errors.New("invalid role")
	ErrRoleUnchanged = errors.New("user already has this role")
)

// ===== Event Errors =====
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEventImageRequired = errors.New("event image is required")
	ErrRegistrationClosed = errors.New("registration is closed for this event")
	ErrAlreadyRegistered  = errors.New("already registered for this event")
	ErrNoValidWinners     = errors.New("at least one winner with a name is required")
)

// ===== Handle Verification Errors =====
var (
	ErrHandleRequired       = errors.New("Codeforces handle is required")
	ErrHandleTaken          = errors.New("this Codeforces handle is already linked to another account")
	ErrHandleNotFound       = errors.New("Codeforces handle not found")
	ErrNoHandleLinked       = errors.New("no Codeforces handle linked to this account")
	ErrNoActiveVerification = errors.New("No active verification found. Please start a new one.")
	ErrVerificationExpired  = errors.New("Verification expired. Please try again.")
	ErrNoSubmissions        = errors.New("No submissions found for this handle.")
	ErrNoRecentSubmission   = errors.New("No recent submission found. Please submit after starting verification.")
	ErrWrongProblem         = errors.New("Please submit to problem 1408A (Circle Coloring).")
	ErrNotCompilationError  = errors.New("Your submission must result in a compilation error (COMPILATION_ERROR).")
)

// ===== Club Content Errors =====
var (
	ErrGalleryNotFound  = errors.New("gallery not found")
	ErrNoImages         = errors.New("at least one image is required")
	ErrMemberNotFound   = errors.New("member not found")
	ErrRoleNotFound     = errors.New("recruitment role not found")
	ErrRoleMemberAbsent = errors.New("member not found in this role")
)

// ===== Form Errors =====
var (
	ErrFormNotFound       = errors.New("form not found")
	ErrFormInactive       = errors.New("form is not accepting submissions")
	ErrLoginRequired      = errors.New("log in to register for this event")
	ErrSubmissionNotFound = errors.New("submission not found")
)

// ===== Blog Errors =====
var (
	ErrBlogNotFound    = errors.New("blog not found")
	ErrNotBlogAuthor   = errors.New("only the author can modify this blog")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotCommentOwner = errors.New("only the author can modify this comment")
	ErrAlreadyLiked    = errors.New("blog already liked")
	ErrLikeNotFound    = errors.New("like not found")
)

// ===== CP Errors =====
var (
	ErrInvalidProblemLink = errors.New("invalid Codeforces problem link")
	ErrProblemNotFound    = errors.New("problem not found")
	ErrSnapshotNotFound   = errors.New("no leaderboard snapshot yet")
	ErrInvalidPeriod      = errors.New("period must be one of overall, weekly, monthly")
	ErrNotSolved          = errors.New("no accepted submission for this handle")
	ErrNotRanked          = errors.New("handle is not on the leaderboard")
)

// ===== Infrastructure Errors =====
var (
	// ErrUpstream wraps failures of mail, CDN, cache and judge calls
	ErrUpstream = errors.New("upstream service failed")
)

// ValidationError carries per-field problems found by a service
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError wraps fields as an error
func NewValidationError(fields ...model.FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}
