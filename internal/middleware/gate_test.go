package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pclub/portal/api/internal/middleware"
	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/testing/helpers"
)

// gatedStack mirrors the server's auth layering with real signed tokens
func gatedStack(tokens *helpers.JWTHelper) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return middleware.Chain(ok,
		middleware.OptionalAuth(tokens.Service()),
		middleware.Gate(nil, middleware.DefaultGateRules()),
	)
}

func TestGate_SignedTokens(t *testing.T) {
	t.Parallel()

	tokens := helpers.NewJWTHelper(t)
	stack := gatedStack(tokens)

	admin := &model.User{ID: "user:admin", Email: "root@ahduni.edu.in", Role: model.UserRoleAdmin}
	member := &model.User{ID: "user:member", Email: "ada@ahduni.edu.in", Role: model.UserRoleClubMember}
	cpMod := &model.User{ID: "user:cp", Email: "cp@ahduni.edu.in", Role: model.UserRoleCPModerator}
	plain := &model.User{ID: "user:plain", Email: "bob@ahduni.edu.in", Role: model.UserRoleUser}

	tests := []struct {
		name       string
		method     string
		path       string
		user       *model.User
		wantStatus int
		wantCode   model.ErrorCode
	}{
		{"public path needs no token", http.MethodGet, "/v1/events", nil, http.StatusNoContent, 0},
		{"admin login is exempt", http.MethodPost, "/v1/admin/login", nil, http.StatusNoContent, 0},
		{"admin path without token", http.MethodGet, "/v1/admin/dashboard", nil, http.StatusUnauthorized, model.ErrCodeUnauthorized},
		{"admin path as user", http.MethodGet, "/v1/admin/dashboard", plain, http.StatusForbidden, model.ErrCodeForbidden},
		{"admin path as admin", http.MethodGet, "/v1/admin/dashboard", admin, http.StatusNoContent, 0},
		{"cp manage as cp moderator", http.MethodPost, "/v1/cp/manage/problems", cpMod, http.StatusNoContent, 0},
		{"cp manage as club member", http.MethodPost, "/v1/cp/manage/problems", member, http.StatusForbidden, model.ErrCodeForbidden},
		{"club path as club member", http.MethodGet, "/v1/club/forms/form:1/submissions", member, http.StatusNoContent, 0},
		{"club path as cp moderator", http.MethodGet, "/v1/club/forms/form:1/submissions", cpMod, http.StatusForbidden, model.ErrCodeForbidden},
		{"own profile as any role", http.MethodGet, "/v1/users/me", plain, http.StatusNoContent, 0},
		{"own profile without token", http.MethodGet, "/v1/users/me", nil, http.StatusUnauthorized, model.ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rb := helpers.NewRequest(t, tt.method, tt.path)
			if tt.user != nil {
				rb = rb.WithAuth(tokens, tt.user)
			}
			rr := httptest.NewRecorder()
			stack.ServeHTTP(rr, rb.Build())

			if tt.wantCode == 0 {
				helpers.AssertStatus(t, rr, tt.wantStatus)
				return
			}
			helpers.AssertAPIError(t, rr, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestGate_ExpiredToken(t *testing.T) {
	t.Parallel()

	tokens := helpers.NewJWTHelper(t)
	admin := &model.User{ID: "user:admin", Email: "root@ahduni.edu.in", Role: model.UserRoleAdmin}

	req := helpers.NewRequest(t, http.MethodGet, "/v1/admin/dashboard").
		WithToken(tokens.GenerateExpiredToken(t, admin)).
		Build()
	rr := httptest.NewRecorder()
	gatedStack(tokens).ServeHTTP(rr, req)

	helpers.AssertAPIError(t, rr, http.StatusUnauthorized, model.ErrCodeTokenExpired)
}

func TestGate_ForeignSignature(t *testing.T) {
	t.Parallel()

	tokens := helpers.NewJWTHelper(t)
	user := &model.User{ID: "user:1", Email: "ada@ahduni.edu.in", Role: model.UserRoleUser}

	req := helpers.NewRequest(t, http.MethodGet, "/v1/users/me").
		WithToken(tokens.GenerateToken(t, user) + "x").
		Build()
	rr := httptest.NewRecorder()
	gatedStack(tokens).ServeHTTP(rr, req)

	helpers.AssertAPIError(t, rr, http.StatusUnauthorized, model.ErrCodeTokenInvalid)
}
