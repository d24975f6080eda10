package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/service"
	"github.com/pclub/portal/api/pkg/jwt"
)

// ============================================================================
// Mock Validators
// ============================================================================

type mockTokenValidator struct {
	validateFunc func(token string) (*jwt.Claims, error)
}

func (m *mockTokenValidator) Validate(token string) (*jwt.Claims, error) {
	return m.validateFunc(token)
}

// successValidator returns valid claims for any token
func successValidator(userID, role string) *mockTokenValidator {
	return &mockTokenValidator{
		validateFunc: func(token string) (*jwt.Claims, error) {
			return &jwt.Claims{
				UserID: userID,
				Email:  "test@ahduni.edu.in",
				Role:   role,
			}, nil
		},
	}
}

// errorValidator returns the specified error
func errorValidator(err error) *mockTokenValidator {
	return &mockTokenValidator{
		validateFunc: func(token string) (*jwt.Claims, error) {
			return nil, err
		},
	}
}

type mockSessionValidator struct {
	err    error
	called bool
	admin  bool
}

func (m *mockSessionValidator) ValidateUser(ctx context.Context, claims *jwt.Claims, adminPanel bool) (*model.User, error) {
	m.called = true
	m.admin = adminPanel
	if m.err != nil {
		return nil, m.err
	}
	return &model.User{ID: claims.UserID, Role: model.UserRole(claims.Role)}, nil
}

// ============================================================================
// Test Helpers
// ============================================================================

func newTestRequest(authHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

// captureHandler captures the request context for inspection
type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

// assertErrorEnvelope checks the body is {"status":"error","error":{"code":code}}
func assertErrorEnvelope(t *testing.T, rr *httptest.ResponseRecorder, code model.ErrorCode) {
	t.Helper()
	var body struct {
		Status string         `json:"status"`
		Error  model.APIError `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if body.Status != "error" {
		t.Errorf("expected status 'error', got %q", body.Status)
	}
	if body.Error.Code != code {
		t.Errorf("expected error code %d, got %d", code, body.Error.Code)
	}
}

// ============================================================================
// Auth() Middleware Tests
// ============================================================================

func TestAuth_HeaderProblems_ReturnUnauthorized(t *testing.T) {
	t.Parallel()

	headers := map[string]string{
		"missing":          "",
		"no bearer prefix": "valid-token",
		"only bearer":      "Bearer",
		"bearer no token":  "Bearer   ",
		"basic scheme":     "Basic dXNlcjpwYXNz",
	}

	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			handler := &captureHandler{}
			rr := httptest.NewRecorder()

			Auth(successValidator("user:123", "user"))(handler).ServeHTTP(rr, newTestRequest(header))

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
			}
			if handler.called {
				t.Error("handler should not have been called")
			}
			assertErrorEnvelope(t, rr, model.ErrCodeUnauthorized)
		})
	}
}

func TestAuth_ValidToken_SetsContext_CallsNext(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	Auth(successValidator("user:123", "admin"))(handler).ServeHTTP(rr, newTestRequest("bearer valid-token"))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if GetUserID(handler.ctx) != "user:123" {
		t.Errorf("expected UserID 'user:123', got %q", GetUserID(handler.ctx))
	}
	if GetUserEmail(handler.ctx) != "test@ahduni.edu.in" {
		t.Errorf("unexpected email %q", GetUserEmail(handler.ctx))
	}
	if GetRole(handler.ctx) != model.UserRoleAdmin {
		t.Errorf("expected role admin, got %q", GetRole(handler.ctx))
	}
}

func TestAuth_ExpiredToken_ReturnsTokenExpired(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	Auth(errorValidator(jwt.ErrTokenExpired))(handler).ServeHTTP(rr, newTestRequest("Bearer expired-token"))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	if handler.called {
		t.Error("handler should not have been called")
	}
	assertErrorEnvelope(t, rr, model.ErrCodeTokenExpired)
}

func TestAuth_InvalidToken_ReturnsTokenInvalid(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	Auth(errorValidator(jwt.ErrInvalidToken))(handler).ServeHTTP(rr, newTestRequest("Bearer bad-token"))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	assertErrorEnvelope(t, rr, model.ErrCodeTokenInvalid)
}

// ============================================================================
// OptionalAuth() Middleware Tests
// ============================================================================

func TestOptionalAuth_NoHeader_Proceeds(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	OptionalAuth(successValidator("user:123", "user"))(handler).ServeHTTP(rr, newTestRequest(""))

	if !handler.called {
		t.Error("handler should have been called")
	}
	if GetUserID(handler.ctx) != "" {
		t.Errorf("expected no user ID, got %q", GetUserID(handler.ctx))
	}
}

func TestOptionalAuth_ValidToken_SetsContext(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	OptionalAuth(successValidator("user:123", "user"))(handler).ServeHTTP(rr, newTestRequest("Bearer valid-token"))

	if GetUserID(handler.ctx) != "user:123" {
		t.Errorf("expected UserID 'user:123', got %q", GetUserID(handler.ctx))
	}
	if GetClaims(handler.ctx) == nil {
		t.Error("expected claims in context")
	}
}

func TestOptionalAuth_InvalidToken_ProceedsWithoutAuth(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	OptionalAuth(errorValidator(jwt.ErrTokenExpired))(handler).ServeHTTP(rr, newTestRequest("Bearer expired"))

	if !handler.called {
		t.Error("handler should have been called")
	}
	if GetClaims(handler.ctx) != nil {
		t.Error("expected no claims for an expired token")
	}
}

// ============================================================================
// Gate() Middleware Tests
// ============================================================================

// gated runs a request through OptionalAuth and Gate with the default rules
func gated(t *testing.T, tokens TokenValidator, sessions SessionValidator, method, path, authHeader string) (*httptest.ResponseRecorder, *captureHandler) {
	t.Helper()
	handler := &captureHandler{}
	h := Chain(handler, OptionalAuth(tokens), Gate(sessions, DefaultGateRules()))

	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, handler
}

func TestGate_Rules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		role       string // "" sends no token
		wantStatus int
	}{
		{name: "public path without token", path: "/v1/events", wantStatus: http.StatusOK},
		{name: "admin path without token", path: "/v1/admin/users", wantStatus: http.StatusUnauthorized},
		{name: "admin path as user", path: "/v1/admin/users", role: "user", wantStatus: http.StatusForbidden},
		{name: "admin path as clubMember", path: "/v1/admin/users", role: "clubMember", wantStatus: http.StatusForbidden},
		{name: "admin path as admin", path: "/v1/admin/users", role: "admin", wantStatus: http.StatusOK},
		{name: "admin login is public", path: "/v1/admin/login", wantStatus: http.StatusOK},
		{name: "cp manage as moderator", path: "/v1/cp/manage/problems", role: "cp-cym-moderator", wantStatus: http.StatusOK},
		{name: "cp manage as admin", path: "/v1/cp/manage/problems", role: "admin", wantStatus: http.StatusOK},
		{name: "cp manage as clubMember", path: "/v1/cp/manage/problems", role: "clubMember", wantStatus: http.StatusForbidden},
		{name: "club as clubMember", path: "/v1/club/forms/form:1/submissions", role: "clubMember", wantStatus: http.StatusOK},
		{name: "club as cp moderator", path: "/v1/club/forms/form:1/submissions", role: "cp-cym-moderator", wantStatus: http.StatusForbidden},
		{name: "me as user", path: "/v1/users/me", role: "user", wantStatus: http.StatusOK},
		{name: "me without token", path: "/v1/users/me/events", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := ""
			if tt.role != "" {
				header = "Bearer token"
			}
			rr, handler := gated(t, successValidator("user:1", tt.role), &mockSessionValidator{}, http.MethodGet, tt.path, header)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if handler.called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler called = %v for status %d", handler.called, rr.Code)
			}
		})
	}
}

func TestGate_ExpiredToken_ReturnsTokenExpired(t *testing.T) {
	t.Parallel()
	rr, handler := gated(t, errorValidator(jwt.ErrTokenExpired), nil, http.MethodGet, "/v1/admin/users", "Bearer old")

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	if handler.called {
		t.Error("handler should not have been called")
	}
	assertErrorEnvelope(t, rr, model.ErrCodeTokenExpired)
}

func TestGate_StaleSession_ReturnsUnauthorized(t *testing.T) {
	t.Parallel()
	sessions := &mockSessionValidator{err: service.ErrSessionInvalid}
	rr, _ := gated(t, successValidator("user:1", "admin"), sessions, http.MethodGet, "/v1/admin/users", "Bearer token")

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	if !sessions.called || !sessions.admin {
		t.Error("expected an admin-panel session check")
	}
}

func TestGate_AnyRoleRule_ChecksSessionWithoutAdminPanel(t *testing.T) {
	t.Parallel()
	sessions := &mockSessionValidator{}
	rr, _ := gated(t, successValidator("user:1", "user"), sessions, http.MethodGet, "/v1/users/me", "Bearer token")

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if sessions.admin {
		t.Error("profile routes should not require the admin panel")
	}
}

func TestGate_Preflight_Passes(t *testing.T) {
	t.Parallel()
	rr, handler := gated(t, successValidator("user:1", "user"), nil, http.MethodOptions, "/v1/admin/users", "")

	if rr.Code != http.StatusOK || !handler.called {
		t.Errorf("preflight should reach the next handler, got %d", rr.Code)
	}
}

// ============================================================================
// Context Helper Tests
// ============================================================================

func TestGetUserID_WrongType_ReturnsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), UserIDKey, 123)
	if GetUserID(ctx) != "" {
		t.Error("expected empty user ID for wrong type")
	}
}

func TestGetClaims_Missing_ReturnsNil(t *testing.T) {
	t.Parallel()
	if GetClaims(context.Background()) != nil {
		t.Error("expected nil claims")
	}
	if GetRole(context.Background()) != "" {
		t.Error("expected empty role")
	}
}
