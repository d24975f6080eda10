package service

import (
	"context"
	"strings"
	"time"

	"github.com/pclub/portal/api/internal/model"
)

// FormRepository defines the interface for form storage
type FormRepository interface {
	Create(ctx context.Context, req *model.CreateFormRequest) (*model.Form, error)
	Get(ctx context.Context, id string) (*model.Form, error)
	List(ctx context.Context) ([]*model.Form, error)
	Delete(ctx context.Context, id string) error
	CreateSubmission(ctx context.Context, sub *model.FormSubmission) error
	SubmitWithRegistration(ctx context.Context, sub *model.FormSubmission, reg *model.Registration) error
	ListSubmissions(ctx context.Context, formID string) ([]*model.FormSubmission, error)
	UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus) (*model.FormSubmission, error)
}

// RegistrationChecker reports existing registrations
type RegistrationChecker interface {
	Exists(ctx context.Context, eventID, userID string) (bool, error)
}

// FormService handles forms and submissions
type FormService struct {
	formRepo  FormRepository
	eventRepo EventReader
	regRepo   RegistrationChecker
}

// FormServiceConfig holds configuration for the form service
type FormServiceConfig struct {
	FormRepo         FormRepository
	EventRepo        EventReader
	RegistrationRepo RegistrationChecker
}

// NewFormService creates a new form service
func NewFormService(cfg FormServiceConfig) *FormService {
	return &FormService{
		formRepo:  cfg.FormRepo,
		eventRepo: cfg.EventRepo,
		regRepo:   cfg.RegistrationRepo,
	}
}

// Create stores a form. A linked event must exist.
func (s *FormService) Create(ctx context.Context, req *model.CreateFormRequest) (*model.Form, error) {
	req.Title = model.SanitizeText(req.Title)
	req.Description = model.SanitizeText(req.Description)
	for i := range req.Fields {
		req.Fields[i].Label = model.SanitizeText(req.Fields[i].Label)
		req.Fields[i].Name = strings.TrimSpace(req.Fields[i].Name)
	}

	if req.EventID != nil && *req.EventID != "" {
		event, err := s.eventRepo.Get(ctx, *req.EventID)
		if err != nil {
			return nil, err
		}
		if event == nil {
			return nil, ErrEventNotFound
		}
		req.EventID = &event.ID
	}
	return s.formRepo.Create(ctx, req)
}

// Get returns one form
func (s *FormService) Get(ctx context.Context, id string) (*model.Form, error) {
	form, err := s.formRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, ErrFormNotFound
	}
	return form, nil
}

// List returns every form, newest first
func (s *FormService) List(ctx context.Context) ([]*model.Form, error) {
	return s.formRepo.List(ctx)
}

// Delete removes a form and its submissions
func (s *FormService) Delete(ctx context.Context, id string) error {
	if err := s.formRepo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrFormNotFound
		}
		return err
	}
	return nil
}

// Submit records a response. userID is empty for anonymous callers. When
// the form belongs to an event the caller is registered for it in the
// same transaction.
func (s *FormService) Submit(ctx context.Context, formID, userID string, req *model.SubmitFormRequest, meta model.SubmissionMetadata) (*model.FormSubmission, error) {
	form, err := s.Get(ctx, formID)
	if err != nil {
		return nil, err
	}
	if !form.IsActive {
		return nil, ErrFormInactive
	}

	linked := form.EventID != nil && *form.EventID != ""
	if linked && userID == "" {
		return nil, ErrLoginRequired
	}

	responses, fields := form.CheckResponses(req.Responses)
	if linked {
		fields = append(fields, req.ValidateRegistration()...)
	}
	if len(fields) > 0 {
		return nil, NewValidationError(fields...)
	}

	meta.FormTitle = form.Title
	sub := &model.FormSubmission{
		FormID:      form.ID,
		Title:       form.Title,
		Responses:   responses,
		SubmittedAt: time.Now(),
		Status:      model.SubmissionStatusSubmitted,
		Metadata:    meta,
	}
	if userID != "" {
		sub.UserID = &userID
	}

	if !linked {
		if err := s.formRepo.CreateSubmission(ctx, sub); err != nil {
			return nil, err
		}
		return sub, nil
	}

	reg, err := s.registration(ctx, *form.EventID, userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.formRepo.SubmitWithRegistration(ctx, sub, reg); err != nil {
		if isDuplicate(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}
	return sub, nil
}

// registration checks the linked event and builds the registration row
func (s *FormService) registration(ctx context.Context, eventID, userID string, req *model.SubmitFormRequest) (*model.Registration, error) {
	event, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if !event.RegistrationOpen {
		return nil, ErrRegistrationClosed
	}

	exists, err := s.regRepo.Exists(ctx, event.ID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	return &model.Registration{
		EventID:      event.ID,
		UserID:       userID,
		Phone:        strings.TrimSpace(req.Phone),
		College:      model.SanitizeText(req.College),
		TeamName:     model.SanitizeText(req.TeamName),
		RegisteredAt: time.Now(),
	}, nil
}

// Submissions lists a form's responses, newest first
func (s *FormService) Submissions(ctx context.Context, formID string) ([]*model.FormSubmission, error) {
	if _, err := s.Get(ctx, formID); err != nil {
		return nil, err
	}
	return s.formRepo.ListSubmissions(ctx, formID)
}

// UpdateSubmissionStatus moves a submission through review
func (s *FormService) UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus) (*model.FormSubmission, error) {
	sub, err := s.formRepo.UpdateSubmissionStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubmissionNotFound
	}
	return sub, nil
}
