package repository

import (
	"context"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
)

// EventRepository handles event data access
type EventRepository struct {
	db database.Database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db database.Database) *EventRepository {
	return &EventRepository{db: db}
}

func withEventDefaults(e *model.Event) *model.Event {
	if e != nil && e.Winners == nil {
		e.Winners = []model.Winner{}
	}
	return e
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	query := `
		CREATE event CONTENT {
			title: $title,
			description: $description,
			rules: $rules,
			date: $date,
			location: $location,
			registration_open: $registration_open,
			image_url: $image_url,
			more_details: $more_details,
			winners: [],
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"title":             event.Title,
		"description":       event.Description,
		"rules":             event.Rules,
		"date":              datetime(event.Date),
		"location":          event.Location,
		"registration_open": event.RegistrationOpen,
		"image_url":         event.ImageURL,
		"more_details":      event.MoreDetails,
	}

	created, err := queryOne[model.Event](ctx, r.db, query, vars, nil)
	if err != nil {
		return err
	}
	if created == nil {
		return database.ErrQuery
	}
	*event = *withEventDefaults(created)
	return nil
}

// Get retrieves an event by ID
func (r *EventRepository) Get(ctx context.Context, id string) (*model.Event, error) {
	recordID, ok := ensureRecordID("event", id)
	if !ok {
		return nil, nil
	}
	event, err := queryOne[model.Event](ctx, r.db, `SELECT * FROM type::record($event_id)`, map[string]interface{}{"event_id": recordID}, nil)
	return withEventDefaults(event), err
}

// Update overwrites the editable fields of an event
func (r *EventRepository) Update(ctx context.Context, event *model.Event) (*model.Event, error) {
	recordID, ok := ensureRecordID("event", event.ID)
	if !ok {
		return nil, nil
	}
	query := `
		UPDATE type::record($event_id) SET
			title = $title,
			description = $description,
			rules = $rules,
			date = $date,
			location = $location,
			registration_open = $registration_open,
			image_url = $image_url,
			more_details = $more_details,
			updated_on = time::now()
		WHERE id = type::record($event_id)
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"event_id":          recordID,
		"title":             event.Title,
		"description":       event.Description,
		"rules":             event.Rules,
		"date":              datetime(event.Date),
		"location":          event.Location,
		"registration_open": event.RegistrationOpen,
		"image_url":         event.ImageURL,
		"more_details":      event.MoreDetails,
	}
	updated, err := queryOne[model.Event](ctx, r.db, query, vars, nil)
	return withEventDefaults(updated), err
}

// Delete removes an event and its registrations. Missing events report
// database.ErrNotFound.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	recordID, ok := ensureRecordID("event", id)
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

	vars := map[string]interface{}{"event_id": recordID}
	return runBatch(ctx, r.db,
		statement{`DELETE registration WHERE event = type::record($event_id)`, vars},
		statement{`UPDATE user SET registered_events = array::complement(registered_events, [type::record($event_id)]) WHERE registered_events CONTAINS type::record($event_id)`, vars},
		statement{`DELETE type::record($event_id)`, vars},
	)
}

// List returns all events, newest date first
func (r *EventRepository) List(ctx context.Context) ([]*model.Event, error) {
	return r.list(ctx, `SELECT * FROM event ORDER BY date DESC`, nil)
}

// ListOpen returns events accepting registrations
func (r *EventRepository) ListOpen(ctx context.Context) ([]*model.Event, error) {
	return r.list(ctx, `SELECT * FROM event WHERE registration_open = true ORDER BY date DESC`, nil)
}

// ListByUser returns the events a user registered for, newest date first
func (r *EventRepository) ListByUser(ctx context.Context, userID string) ([]*model.Event, error) {
	recordID, ok := ensureRecordID("user", userID)
	if !ok {
		return []*model.Event{}, nil
	}
	query := `
		SELECT * FROM event
		WHERE id INSIDE (SELECT VALUE event FROM registration WHERE user = type::record($user_id))
		ORDER BY date DESC
	`
	return r.list(ctx, query, map[string]interface{}{"user_id": recordID})
}

func (r *EventRepository) list(ctx context.Context, query string, vars map[string]interface{}) ([]*model.Event, error) {
	events, err := queryAll[model.Event](ctx, r.db, query, vars, nil)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		withEventDefaults(e)
	}
	return events, nil
}

// SetWinners replaces an event's winners
func (r *EventRepository) SetWinners(ctx context.Context, id string, winners []model.Winner) (*model.Event, error) {
	recordID, ok := ensureRecordID("event", id)
	if !ok {
		return nil, nil
	}
	if winners == nil {
		winners = []model.Winner{}
	}
	stored := make([]map[string]interface{}, 0, len(winners))
	for _, w := range winners {
		stored = append(stored, map[string]interface{}{
			"name":        w.Name,
			"description": w.Description,
			"image":       w.Image,
			"position":    w.Position,
		})
	}
	query := `UPDATE type::record($event_id) SET winners = $winners, updated_on = time::now() RETURN AFTER`
	updated, err := queryOne[model.Event](ctx, r.db, query, map[string]interface{}{"event_id": recordID, "winners": stored}, nil)
	return withEventDefaults(updated), err
}

// Count returns the number of events
func (r *EventRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "event", "", nil)
}
