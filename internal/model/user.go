package model

import "time"

// UserRole represents the role of a user in the system
type UserRole string

const (
	UserRoleUser        UserRole = "user"      // Default role
	UserRoleModerator   UserRole = "moderator" // Moderates blog and comments
	UserRoleAdmin       UserRole = "admin"     // Full access
	UserRoleClubMember  UserRole = "clubMember"
	UserRoleCPModerator UserRole = "cp-cym-moderator" // Posts CP gym problems
)

// Roles lists every assignable role
var Roles = []UserRole{UserRoleUser, UserRoleModerator, UserRoleAdmin, UserRoleClubMember, UserRoleCPModerator}

// IsValidRole reports whether r is a known role
func IsValidRole(r string) bool {
	for _, role := range Roles {
		if string(role) == r {
			return true
		}
	}
	return false
}

// User represents a user account
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Hash             string    `json:"-"` // Never expose password hash
	EnrollmentNumber string    `json:"enrollment_number,omitempty"`
	Role             UserRole  `json:"role"`
	CodeforcesHandle *string   `json:"codeforces_handle,omitempty"`
	CodeforcesRank   *string   `json:"codeforces_rank,omitempty"`
	CodeforcesRating *int      `json:"codeforces_rating,omitempty"`
	CodechefHandle   *string   `json:"codechef_handle,omitempty"`
	RegisteredEvents []string  `json:"registered_events"`
	CreatedOn        time.Time `json:"created_on"`
	UpdatedOn        time.Time `json:"updated_on"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// HasRegistered reports whether the user is registered for eventID
func (u *User) HasRegistered(eventID string) bool {
	for _, id := range u.RegisteredEvents {
		if id == eventID {
			return true
		}
	}
	return false
}

// DisplayHandle is the leaderboard name: the Codeforces handle, or a
// stable placeholder derived from the user id.
func (u *User) DisplayHandle() string {
	if u.CodeforcesHandle != nil && *u.CodeforcesHandle != "" {
		return *u.CodeforcesHandle
	}
	return PlaceholderHandle(u.ID)
}

// PlaceholderHandle returns "user_<first 6 chars of the record key>"
func PlaceholderHandle(userID string) string {
	key := userID
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			key = key[i+1:]
			break
		}
	}
	if len(key) > 6 {
		key = key[:6]
	}
	return "user_" + key
}

// Auth requests

type SignupRequest struct {
	Email            string `json:"email" validate:"required,email"`
	Name             string `json:"name" validate:"required,max=100"`
	Password         string `json:"password" validate:"required,min=8,max=72"`
	EnrollmentNumber string `json:"enrollment_number" validate:"required,max=32"`
}

func (r *SignupRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

type VerifySignupRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

func (r *VerifySignupRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *PasswordResetRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

func (r *ResetPasswordRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// UpdateProfileRequest changes editable profile fields. Nil means unchanged.
type UpdateProfileRequest struct {
	Name             *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	EnrollmentNumber *string `json:"enrollment_number,omitempty" validate:"omitempty,max=32"`
	CodechefHandle   *string `json:"codechef_handle,omitempty" validate:"omitempty,max=50"`
}

func (r *UpdateProfileRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// AuthResponse is returned by login and sign-up verification
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// TokenClaims represents the identity carried by a validated access token
type TokenClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
}
