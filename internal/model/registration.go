package model

import "time"

// Registration links a user to an event
type Registration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	Phone        string    `json:"phone"`
	College      string    `json:"college"`
	TeamName     string    `json:"team_name"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Registrant is a registration joined with its user, for exports
type Registrant struct {
	UserID           string `json:"user_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	EnrollmentNumber string `json:"enrollment_number"`
	Phone            string `json:"phone"`
	College          string `json:"college"`
	TeamName         string `json:"team_name"`
}

type RequestEventOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *RequestEventOTPRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// EventOTPResponse carries the signed token the client echoes back
type EventOTPResponse struct {
	OTPToken  string    `json:"otp_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterEventRequest registers the caller. Bearer-authenticated callers
// omit otp and otp_token.
type RegisterEventRequest struct {
	OTP      string `json:"otp,omitempty"`
	OTPToken string `json:"otp_token,omitempty"`
	Phone    string `json:"phone"`
	College  string `json:"college"`
	TeamName string `json:"team_name"`
}

// Validate lists every missing field. authenticated skips the OTP fields.
func (r *RegisterEventRequest) Validate(authenticated bool) []FieldError {
	var errs []FieldError
	if !authenticated {
		errs = requireFields("otp", r.OTP, "otp_token", r.OTPToken)
	}
	errs = append(errs, requireFields("phone", r.Phone, "college", r.College, "team_name", r.TeamName)...)
	if len(r.Phone) > 20 {
		errs = append(errs, FieldError{Field: "phone", Message: "phone must be 20 characters or less"})
	}
	return errs
}
