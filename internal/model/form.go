package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldType is the input kind of a form field
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeNumber   FieldType = "number"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeFile     FieldType = "file"
)

// SubmissionStatus tracks review progress
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusReviewed  SubmissionStatus = "reviewed"
)

const MaxFormFields = 50

// Form is an admin-defined questionnaire, optionally tied to an event
type Form struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fields      []FormField `json:"fields"`
	EventID     *string     `json:"event_id,omitempty"`
	IsActive    bool        `json:"is_active"`
	CreatedOn   time.Time   `json:"created_on"`
	UpdatedOn   time.Time   `json:"updated_on"`
}

type FormField struct {
	Label    string    `json:"label" validate:"required,max=200"`
	Name     string    `json:"name" validate:"required,max=100"`
	Type     FieldType `json:"type" validate:"required,oneof=text email number textarea file"`
	Required bool      `json:"required"`
}

// FormSubmission is one response to a form
type FormSubmission struct {
	ID          string                 `json:"id"`
	FormID      string                 `json:"form_id"`
	Title       string                 `json:"title"`
	UserID      *string                `json:"user_id,omitempty"`
	Responses   map[string]interface{} `json:"responses"`
	SubmittedAt time.Time              `json:"submitted_at"`
	Status      SubmissionStatus       `json:"status"`
	Metadata    SubmissionMetadata     `json:"metadata"`
}

type SubmissionMetadata struct {
	UserAgent string `json:"user_agent,omitempty"`
	IP        string `json:"ip,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	FormTitle string `json:"form_title,omitempty"`
}

type CreateFormRequest struct {
	Title       string      `json:"title" validate:"required,max=200"`
	Description string      `json:"description" validate:"max=2000"`
	Fields      []FormField `json:"fields" validate:"required,min=1,dive"`
	EventID     *string     `json:"event_id,omitempty"`
}

func (r *CreateFormRequest) Validate() []FieldError {
	errs := ValidateStruct(r)
	if len(r.Fields) > MaxFormFields {
		errs = append(errs, FieldError{Field: "fields", Message: fmt.Sprintf("fields must have at most %d entries", MaxFormFields)})
	}
	seen := make(map[string]bool, len(r.Fields))
	for i, f := range r.Fields {
		if f.Name == "" {
			continue
		}
		if seen[f.Name] {
			errs = append(errs, FieldError{Field: fmt.Sprintf("fields[%d].name", i), Message: "field names must be unique"})
		}
		seen[f.Name] = true
	}
	return errs
}

// SubmitFormRequest carries answers keyed by field name. When the form is
// linked to an event, the registration fields are required too.
type SubmitFormRequest struct {
	Responses map[string]interface{} `json:"responses"`
	Phone     string                 `json:"phone,omitempty"`
	College   string                 `json:"college,omitempty"`
	TeamName  string                 `json:"team_name,omitempty"`
}

// CheckResponses validates answers against the form's fields and returns
// them sanitized. Answers to unknown fields are dropped.
func (f *Form) CheckResponses(in map[string]interface{}) (map[string]interface{}, []FieldError) {
	if len(in) == 0 {
		return nil, []FieldError{{Field: "responses", Message: "responses is required"}}
	}

	out := make(map[string]interface{}, len(f.Fields))
	var errs []FieldError
	for _, field := range f.Fields {
		key := "responses." + field.Name
		raw, ok := in[field.Name]
		if !ok || isBlank(raw) {
			if field.Required {
				errs = append(errs, FieldError{Field: key, Message: field.Label + " is required"})
			}
			continue
		}

		switch field.Type {
		case FieldTypeNumber:
			n, ok := toNumber(raw)
			if !ok {
				errs = append(errs, FieldError{Field: key, Message: field.Label + " must be a number"})
				continue
			}
			out[field.Name] = n
		case FieldTypeEmail:
			s, _ := raw.(string)
			s = strings.ToLower(strings.TrimSpace(s))
			if validate.Var(s, "email") != nil {
				errs = append(errs, FieldError{Field: key, Message: field.Label + " must be a valid email address"})
				continue
			}
			out[field.Name] = s
		default:
			s, ok := raw.(string)
			if !ok {
				s = fmt.Sprint(raw)
			}
			out[field.Name] = SanitizeText(s)
		}
	}
	return out, errs
}

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func toNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return n, err == nil
	}
	return 0, false
}

// ValidateRegistration lists the missing registration fields of an event-linked form
func (r *SubmitFormRequest) ValidateRegistration() []FieldError {
	return requireFields("phone", r.Phone, "college", r.College, "team_name", r.TeamName)
}

type UpdateSubmissionStatusRequest struct {
	Status SubmissionStatus `json:"status" validate:"required,oneof=pending submitted reviewed"`
}

func (r *UpdateSubmissionStatusRequest) Validate() []FieldError {
	return ValidateStruct(r)
}
