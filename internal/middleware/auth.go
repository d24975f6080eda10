package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/service"
	"github.com/pclub/portal/api/pkg/jwt"
)

// TokenValidator defines the interface for token validation
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// SessionValidator checks that a token's user still exists with the same role
type SessionValidator interface {
	ValidateUser(ctx context.Context, claims *jwt.Claims, adminPanel bool) (*model.User, error)
}

// ClaimsKey is the context key for JWT claims
const ClaimsKey contextKey = "claims"

// UserEmailKey is the context key for user email
const UserEmailKey contextKey = "userEmail"

// tokenErrKey holds the validation error of a presented but unusable token
const tokenErrKey contextKey = "tokenError"

// bearerToken extracts the token from an "Authorization: Bearer" header
func bearerToken(r *http.Request) (string, *model.APIError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", model.NewUnauthorizedError("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", model.NewUnauthorizedError("invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// tokenError converts a validation failure to a 401
func tokenError(err error) *model.APIError {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return model.NewTokenExpiredError("token expired")
	}
	apiErr := model.NewUnauthorizedError("invalid token")
	apiErr.Code = model.ErrCodeTokenInvalid
	return apiErr
}

func withClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// Auth returns a middleware that validates JWT tokens
func Auth(tokens TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, apiErr := bearerToken(r)
			if apiErr != nil {
				apiErr.WriteJSON(w)
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				tokenError(err).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth is like Auth but doesn't require authentication.
// It will set user info in context if token is present and valid. A token
// that fails validation is remembered so Gate can report why.
func OptionalAuth(tokens TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, apiErr := bearerToken(r)
			if apiErr != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				ctx := context.WithValue(r.Context(), tokenErrKey, err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// GateRule restricts a path prefix to a set of roles. An empty Roles list
// admits any authenticated user.
type GateRule struct {
	Prefix string
	Except []string
	Roles  []model.UserRole
}

func (g GateRule) matches(path string) bool {
	if !strings.HasPrefix(path, g.Prefix) {
		return false
	}
	for _, e := range g.Except {
		if path == e {
			return false
		}
	}
	return true
}

func (g GateRule) admits(role string) bool {
	if len(g.Roles) == 0 {
		return true
	}
	for _, r := range g.Roles {
		if string(r) == role {
			return true
		}
	}
	return false
}

// DefaultGateRules returns the portal's path prefix → role table
func DefaultGateRules() []GateRule {
	return []GateRule{
		{Prefix: "/v1/admin/", Except: []string{"/v1/admin/login"}, Roles: []model.UserRole{model.UserRoleAdmin}},
		{Prefix: "/v1/cp/manage/", Roles: []model.UserRole{model.UserRoleAdmin, model.UserRoleCPModerator}},
		{Prefix: "/v1/club/", Roles: []model.UserRole{model.UserRoleAdmin, model.UserRoleClubMember}},
		{Prefix: "/v1/users/me"},
	}
}

// Gate enforces rules on requests whose path matches a rule prefix. It runs
// after OptionalAuth: a missing or unusable token is 401, a role outside the
// rule is 403. The token's user is re-checked against the store so a role
// change or deleted account invalidates old tokens.
func Gate(sessions SessionValidator, rules []GateRule) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var rule *GateRule
			for i := range rules {
				if rules[i].matches(r.URL.Path) {
					rule = &rules[i]
					break
				}
			}
			if rule == nil || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			claims := GetClaims(r.Context())
			if claims == nil {
				if err, ok := r.Context().Value(tokenErrKey).(error); ok {
					tokenError(err).WriteJSON(w)
					return
				}
				model.NewUnauthorizedError("authentication required").WriteJSON(w)
				return
			}
			if !rule.admits(claims.Role) {
				model.NewForbiddenError("you do not have access to this resource").WriteJSON(w)
				return
			}

			if sessions != nil {
				adminPanel := len(rule.Roles) > 0
				if _, err := sessions.ValidateUser(r.Context(), claims, adminPanel); err != nil {
					switch {
					case errors.Is(err, service.ErrSessionInvalid):
						model.NewUnauthorizedError(err.Error()).WriteJSON(w)
					case errors.Is(err, service.ErrAdminRequired):
						model.NewForbiddenError(err.Error()).WriteJSON(w)
					default:
						model.NewInternalError("").WriteJSON(w)
					}
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserEmail extracts the user email from context
func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(UserEmailKey).(string); ok {
		return email
	}
	return ""
}

// GetClaims extracts the JWT claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// GetRole returns the caller's role, or "" when unauthenticated
func GetRole(ctx context.Context) model.UserRole {
	if claims := GetClaims(ctx); claims != nil {
		return model.UserRole(claims.Role)
	}
	return ""
}
