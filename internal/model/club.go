package model

import "time"

// Gallery is an album of event photos
type Gallery struct {
	ID        string    `json:"id"`
	EventName string    `json:"event_name"`
	ImageURLs []string  `json:"image_urls"`
	CreatedOn time.Time `json:"created_on"`
}

// Member is a club core-team member shown on the site
type Member struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Position   string    `json:"position"`
	Term       string    `json:"term"`
	LinkedinID string    `json:"linkedin_id,omitempty"`
	PfpImage   string    `json:"pfp_image,omitempty"`
	CreatedOn  time.Time `json:"created_on"`
	UpdatedOn  time.Time `json:"updated_on"`
}

type MemberRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Position   string `json:"position" validate:"required,max=100"`
	Term       string `json:"term" validate:"required,max=20"`
	LinkedinID string `json:"linkedin_id" validate:"omitempty,max=200"`
	PfpImage   string `json:"pfp_image" validate:"omitempty"`
}

func (r *MemberRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// Notice is the site-wide banner
type Notice struct {
	Show    bool   `json:"show"`
	Link    string `json:"link"`
	Message string `json:"message"`
}

type NoticeRequest struct {
	Show    bool   `json:"show"`
	Link    string `json:"link" validate:"omitempty,url"`
	Message string `json:"message" validate:"max=500"`
}

func (r *NoticeRequest) Validate() []FieldError {
	errs := ValidateStruct(r)
	if r.Show && r.Message == "" {
		errs = append(errs, FieldError{Field: "message", Message: "message is required when the notice is shown"})
	}
	return errs
}

// ContactQuery is a message from the contact form
type ContactQuery struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedOn time.Time `json:"created_on"`
}

type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (r *ContactRequest) Validate() []FieldError {
	return ValidateStruct(r)
}
