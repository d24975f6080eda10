package model

import (
	"strings"
	"time"
)

// Event is a club event listing
type Event struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Rules            string    `json:"rules,omitempty"`
	Date             time.Time `json:"date"`
	Location         string    `json:"location"`
	RegistrationOpen bool      `json:"registration_open"`
	ImageURL         string    `json:"image_url"`
	MoreDetails      string    `json:"more_details"`
	Winners          []Winner  `json:"winners"`
	CreatedOn        time.Time `json:"created_on"`
	UpdatedOn        time.Time `json:"updated_on"`
}

// Winner is a podium entry for a finished event
type Winner struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Position    int    `json:"position"`
	// PositionLabel is "1st", "2nd", ... for display
	PositionLabel string `json:"position_label,omitempty"`
}

// EventInput carries the text fields of a create or update. The image
// arrives separately as a multipart file.
type EventInput struct {
	Title            string `json:"title" validate:"required,max=200"`
	Description      string `json:"description" validate:"required"`
	Rules            string `json:"rules"`
	Date             string `json:"date" validate:"required"`
	Location         string `json:"location" validate:"required,max=200"`
	RegistrationOpen bool   `json:"registration_open"`
	MoreDetails      string `json:"more_details" validate:"required"`
}

// Validate checks required fields and the date format
func (r *EventInput) Validate() []FieldError {
	errs := ValidateStruct(r)
	if r.Date != "" {
		if _, err := ParseEventDate(r.Date); err != nil {
			errs = append(errs, FieldError{Field: "date", Message: "date must be RFC 3339 or YYYY-MM-DD"})
		}
	}
	return errs
}

// ParseEventDate accepts RFC 3339 timestamps and plain dates
func ParseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// WinnerInput is one entry of an add/replace winners request. Image may be
// a URL or a data:image URI to upload.
type WinnerInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Position    int    `json:"position"`
}

type WinnersRequest struct {
	Winners []WinnerInput `json:"winners"`
}
