package repository

import (
	"context"
	"fmt"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
)

var (
	formAliases       = map[string]string{"event": "event_id"}
	submissionAliases = map[string]string{"form": "form_id", "user": "user_id"}
)

// FormRepository handles forms and their submissions
type FormRepository struct {
	db database.Database
}

// NewFormRepository creates a new form repository
func NewFormRepository(db database.Database) *FormRepository {
	return &FormRepository{db: db}
}

func withFormDefaults(f *model.Form) *model.Form {
	if f != nil && f.Fields == nil {
		f.Fields = []model.FormField{}
	}
	return f
}

// Create stores a form definition
func (r *FormRepository) Create(ctx context.Context, req *model.CreateFormRequest) (*model.Form, error) {
	fields := make([]map[string]interface{}, 0, len(req.Fields))
	for _, f := range req.Fields {
		fields = append(fields, map[string]interface{}{
			"label":    f.Label,
			"name":     f.Name,
			"type":     f.Type,
			"required": f.Required,
		})
	}

	vars := map[string]interface{}{
		"title":       req.Title,
		"description": req.Description,
		"fields":      fields,
		"event_id":    nil,
	}
	if req.EventID != nil && *req.EventID != "" {
		eventID, ok := ensureRecordID("event", *req.EventID)
		if !ok {
			return nil, fmt.Errorf("%w: invalid event reference", database.ErrQuery)
		}
		vars["event_id"] = eventID
	}

	query := `
		CREATE form CONTENT {
			title: $title,
			description: $description,
			fields: $fields,
			event: IF $event_id IS NOT NULL THEN type::record($event_id) ELSE NONE END,
			is_active: true,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	form, err := queryOne[model.Form](ctx, r.db, query, vars, formAliases)
	return withFormDefaults(form), err
}

// Get retrieves a form by ID
func (r *FormRepository) Get(ctx context.Context, id string) (*model.Form, error) {
	recordID, ok := ensureRecordID("form", id)
	if !ok {
		return nil, nil
	}
	form, err := queryOne[model.Form](ctx, r.db, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": recordID}, formAliases)
	return withFormDefaults(form), err
}

// List returns forms, newest first
func (r *FormRepository) List(ctx context.Context) ([]*model.Form, error) {
	forms, err := queryAll[model.Form](ctx, r.db, `SELECT * FROM form ORDER BY created_on DESC`, nil, formAliases)
	if err != nil {
		return nil, err
	}
	for _, f := range forms {
		withFormDefaults(f)
	}
	return forms, nil
}

// Delete removes a form together with its submissions
func (r *FormRepository) Delete(ctx context.Context, id string) error {
	recordID, ok := ensureRecordID("form", id)
	if !ok {
		return database.ErrNotFound
	}
	existing, err := r.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if existing == nil {
		return database.ErrNotFound
	}
	vars := map[string]interface{}{"id": recordID}
	return runBatch(ctx, r.db,
		statement{`DELETE form_submission WHERE form = type::record($id)`, vars},
		statement{`DELETE type::record($id)`, vars},
	)
}

func submissionStatement(sub *model.FormSubmission) (statement, error) {
	formID, ok := ensureRecordID("form", sub.FormID)
	if !ok {
		return statement{}, fmt.Errorf("%w: invalid form reference", database.ErrQuery)
	}
	sub.FormID = formID
	key := newRecordKey()
	sub.ID = "form_submission:" + key

	var userID interface{}
	if sub.UserID != nil {
		id, ok := ensureRecordID("user", *sub.UserID)
		if !ok {
			return statement{}, fmt.Errorf("%w: invalid user reference", database.ErrQuery)
		}
		sub.UserID = &id
		userID = id
	}
	status := sub.Status
	if status == "" {
		status = model.SubmissionStatusSubmitted
		sub.Status = status
	}

	return statement{`CREATE type::thing("form_submission", $key) CONTENT {
		form: type::record($form_id),
		title: $title,
		user: IF $user_id IS NOT NULL THEN type::record($user_id) ELSE NONE END,
		responses: $responses,
		status: $status,
		metadata: $metadata,
		submitted_at: time::now()
	}`, map[string]interface{}{
		"key":       key,
		"form_id":   formID,
		"title":     sub.Title,
		"user_id":   userID,
		"responses": sub.Responses,
		"status":    status,
		"metadata": map[string]interface{}{
			"user_agent": sub.Metadata.UserAgent,
			"ip":         sub.Metadata.IP,
			"referrer":   sub.Metadata.Referrer,
			"form_title": sub.Metadata.FormTitle,
		},
	}}, nil
}

// CreateSubmission stores a submission for a form without an event
func (r *FormRepository) CreateSubmission(ctx context.Context, sub *model.FormSubmission) error {
	stmt, err := submissionStatement(sub)
	if err != nil {
		return err
	}
	return runBatch(ctx, r.db, stmt)
}

// SubmitWithRegistration stores the submission, the event registration and
// the registered_events push in one transaction.
func (r *FormRepository) SubmitWithRegistration(ctx context.Context, sub *model.FormSubmission, reg *model.Registration) error {
	stmt, err := submissionStatement(sub)
	if err != nil {
		return err
	}
	regStmts, err := registrationStatements(reg)
	if err != nil {
		return err
	}
	if err := runBatch(ctx, r.db, append([]statement{stmt}, regStmts...)...); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: already registered", database.ErrDuplicate)
		}
		return err
	}
	return nil
}

// ListSubmissions returns a form's submissions, newest first
func (r *FormRepository) ListSubmissions(ctx context.Context, formID string) ([]*model.FormSubmission, error) {
	recordID, ok := ensureRecordID("form", formID)
	if !ok {
		return []*model.FormSubmission{}, nil
	}
	query := `SELECT * FROM form_submission WHERE form = type::record($form_id) ORDER BY submitted_at DESC`
	return queryAll[model.FormSubmission](ctx, r.db, query, map[string]interface{}{"form_id": recordID}, submissionAliases)
}

// UpdateSubmissionStatus moves a submission through review
func (r *FormRepository) UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus) (*model.FormSubmission, error) {
	recordID, ok := ensureRecordID("form_submission", id)
	if !ok {
		return nil, nil
	}
	query := `UPDATE type::record($id) SET status = $status WHERE id = type::record($id) RETURN AFTER`
	return queryOne[model.FormSubmission](ctx, r.db, query, map[string]interface{}{"id": recordID, "status": status}, submissionAliases)
}

// Count returns the number of forms
func (r *FormRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "form", "", nil)
}

// CountSubmissions returns the number of submissions across all forms
func (r *FormRepository) CountSubmissions(ctx context.Context) (int, error) {
	return count(ctx, r.db, "form_submission", "", nil)
}
