package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFormRepo struct {
	mu          sync.Mutex
	forms       map[string]*model.Form
	submissions []*model.FormSubmission
	regs        *mockRegistrationRepo
}

func (m *mockFormRepo) Create(ctx context.Context, req *model.CreateFormRequest) (*model.Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forms == nil {
		m.forms = make(map[string]*model.Form)
	}
	f := &model.Form{
		ID:          fmt.Sprintf("form:f%d", len(m.forms)+1),
		Title:       req.Title,
		Description: req.Description,
		Fields:      req.Fields,
		EventID:     req.EventID,
		IsActive:    true,
	}
	m.forms[f.ID] = f
	return f, nil
}

func (m *mockFormRepo) Get(ctx context.Context, id string) (*model.Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forms[id], nil
}

func (m *mockFormRepo) List(ctx context.Context) ([]*model.Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Form
	for _, f := range m.forms {
		out = append(out, f)
	}
	return out, nil
}

func (m *mockFormRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.forms, id)
	return nil
}

func (m *mockFormRepo) CreateSubmission(ctx context.Context, sub *model.FormSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub.ID = fmt.Sprintf("form_submission:s%d", len(m.submissions)+1)
	m.submissions = append(m.submissions, sub)
	return nil
}

// SubmitWithRegistration stores both rows or neither
func (m *mockFormRepo) SubmitWithRegistration(ctx context.Context, sub *model.FormSubmission, reg *model.Registration) error {
	if err := m.regs.Register(ctx, reg); err != nil {
		return err
	}
	return m.CreateSubmission(ctx, sub)
}

func (m *mockFormRepo) ListSubmissions(ctx context.Context, formID string) ([]*model.FormSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.FormSubmission
	for _, s := range m.submissions {
		if s.FormID == formID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockFormRepo) UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus) (*model.FormSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.submissions {
		if s.ID == id {
			s.Status = status
			return s, nil
		}
	}
	return nil, nil
}

type formFixture struct {
	svc    *FormService
	forms  *mockFormRepo
	events *mockEventRepo
	regs   *mockRegistrationRepo
}

func setupFormService(t *testing.T) *formFixture {
	t.Helper()
	regs := &mockRegistrationRepo{}
	f := &formFixture{forms: &mockFormRepo{regs: regs}, events: newMockEventRepo(), regs: regs}
	f.svc = NewFormService(FormServiceConfig{FormRepo: f.forms, EventRepo: f.events, RegistrationRepo: regs})
	return f
}

func feedbackFields() []model.FormField {
	return []model.FormField{
		{Label: "Name", Name: "name", Type: model.FieldTypeText, Required: true},
		{Label: "Email", Name: "email", Type: model.FieldTypeEmail, Required: true},
		{Label: "Year", Name: "year", Type: model.FieldTypeNumber},
	}
}

func TestFormService_Create(t *testing.T) {
	t.Parallel()
	f := setupFormService(t)
	ctx := context.Background()

	form, err := f.svc.Create(ctx, &model.CreateFormRequest{Title: " <i>Feedback</i> ", Fields: feedbackFields()})
	require.NoError(t, err)
	assert.Equal(t, "Feedback", form.Title)
	assert.Nil(t, form.EventID)

	missing := "event:missing"
	_, err = f.svc.Create(ctx, &model.CreateFormRequest{Title: "Signup", Fields: feedbackFields(), EventID: &missing})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestFormService_Submit_Standalone(t *testing.T) {
	t.Parallel()
	f := setupFormService(t)
	ctx := context.Background()
	form, err := f.svc.Create(ctx, &model.CreateFormRequest{Title: "Feedback", Fields: feedbackFields()})
	require.NoError(t, err)

	sub, err := f.svc.Submit(ctx, form.ID, "", &model.SubmitFormRequest{
		Responses: map[string]interface{}{"name": "Ada", "email": " ADA@X.COM ", "year": "3"},
	}, model.SubmissionMetadata{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Nil(t, sub.UserID)
	assert.Equal(t, "ada@x.com", sub.Responses["email"])
	assert.Equal(t, 3.0, sub.Responses["year"])
	assert.Equal(t, "Feedback", sub.Metadata.FormTitle)
	assert.Equal(t, model.SubmissionStatusSubmitted, sub.Status)

	_, err = f.svc.Submit(ctx, form.ID, "", &model.SubmitFormRequest{
		Responses: map[string]interface{}{"email": "not-an-email"},
	}, model.SubmissionMetadata{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
}

func TestFormService_Submit_Inactive(t *testing.T) {
	t.Parallel()
	f := setupFormService(t)
	ctx := context.Background()
	form, err := f.svc.Create(ctx, &model.CreateFormRequest{Title: "Feedback", Fields: feedbackFields()})
	require.NoError(t, err)
	form.IsActive = false

	_, err = f.svc.Submit(ctx, form.ID, "", &model.SubmitFormRequest{}, model.SubmissionMetadata{})
	assert.ErrorIs(t, err, ErrFormInactive)

	_, err = f.svc.Submit(ctx, "form:missing", "", &model.SubmitFormRequest{}, model.SubmissionMetadata{})
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestFormService_Submit_EventLinked(t *testing.T) {
	t.Parallel()
	f := setupFormService(t)
	ctx := context.Background()
	event := f.events.add("Hack Night", true)
	form, err := f.svc.Create(ctx, &model.CreateFormRequest{Title: "Hack Night signup", Fields: feedbackFields(), EventID: &event.ID})
	require.NoError(t, err)

	req := &model.SubmitFormRequest{
		Responses: map[string]interface{}{"name": "Ada", "email": "ada@x.com"},
		Phone:     "9876543210",
		College:   "AU",
		TeamName:  "Segfaults",
	}

	_, err = f.svc.Submit(ctx, form.ID, "", req, model.SubmissionMetadata{})
	assert.ErrorIs(t, err, ErrLoginRequired)

	sub, err := f.svc.Submit(ctx, form.ID, "user:u1", req, model.SubmissionMetadata{})
	require.NoError(t, err)
	require.NotNil(t, sub.UserID)
	require.Len(t, f.regs.regs, 1)
	assert.Equal(t, event.ID, f.regs.regs[0].EventID)
	assert.Equal(t, "Segfaults", f.regs.regs[0].TeamName)

	_, err = f.svc.Submit(ctx, form.ID, "user:u1", req, model.SubmissionMetadata{})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Len(t, f.forms.submissions, 1)

	// registration fields are mandatory on linked forms
	_, err = f.svc.Submit(ctx, form.ID, "user:u2", &model.SubmitFormRequest{
		Responses: map[string]interface{}{"name": "Bob", "email": "bob@x.com"},
	}, model.SubmissionMetadata{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}

func TestFormService_Submit_EventClosed(t *testing.T) {
	t.Parallel()
	f := setupFormService(t)
	ctx := context.Background()
	event := f.events.add("Hack Night", false)
	form, err := f.svc.Create(ctx, &model.CreateFormRequest{Title: "Signup", Fields: feedbackFields(), EventID: &event.ID})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, form.ID, "user:u1", &model.SubmitFormRequest{
		Responses: map[string]interface{}{"name": "Ada", "email": "ada@x.com"},
		Phone:     "1", College: "AU", TeamName: "T",
	}, model.SubmissionMetadata{})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestFormService_Submissions(t *testing.T) {
	t.Parallel()
	f := setupFormService(t)
	ctx := context.Background()
	form, err := f.svc.Create(ctx, &model.CreateFormRequest{Title: "Feedback", Fields: feedbackFields()})
	require.NoError(t, err)
	sub, err := f.svc.Submit(ctx, form.ID, "", &model.SubmitFormRequest{
		Responses: map[string]interface{}{"name": "Ada", "email": "ada@x.com"},
	}, model.SubmissionMetadata{})
	require.NoError(t, err)

	subs, err := f.svc.Submissions(ctx, form.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	reviewed, err := f.svc.UpdateSubmissionStatus(ctx, sub.ID, model.SubmissionStatusReviewed)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusReviewed, reviewed.Status)

	_, err = f.svc.UpdateSubmissionStatus(ctx, "form_submission:missing", model.SubmissionStatusReviewed)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	assert.NoError(t, f.svc.Delete(ctx, form.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, form.ID), ErrFormNotFound)
}
