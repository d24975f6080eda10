package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
)

var registrationAliases = map[string]string{"event": "event_id", "user": "user_id"}

// RegistrationRepository handles event registrations
type RegistrationRepository struct {
	db database.Database
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db database.Database) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// newRecordKey returns a key usable with type::thing
func newRecordKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Exists reports whether the user already registered for the event
func (r *RegistrationRepository) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	eventRecord, ok1 := ensureRecordID("event", eventID)
	userRecord, ok2 := ensureRecordID("user", userID)
	if !ok1 || !ok2 {
		return false, nil
	}
	n, err := count(ctx, r.db, "registration",
		"event = type::record($event_id) AND user = type::record($user_id)",
		map[string]interface{}{"event_id": eventRecord, "user_id": userRecord})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// registrationStatements builds the registration insert plus the
// registered_events push, for use inside a larger batch.
func registrationStatements(reg *model.Registration) ([]statement, error) {
	eventRecord, ok1 := ensureRecordID("event", reg.EventID)
	userRecord, ok2 := ensureRecordID("user", reg.UserID)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: invalid registration reference", database.ErrQuery)
	}
	key := newRecordKey()
	reg.ID = "registration:" + key
	reg.EventID, reg.UserID = eventRecord, userRecord

	vars := map[string]interface{}{
		"key":       key,
		"event_id":  eventRecord,
		"user_id":   userRecord,
		"phone":     reg.Phone,
		"college":   reg.College,
		"team_name": reg.TeamName,
	}
	return []statement{
		{`CREATE type::thing("registration", $key) CONTENT {
			event: type::record($event_id),
			user: type::record($user_id),
			phone: $phone,
			college: $college,
			team_name: $team_name,
			registered_at: time::now()
		}`, vars},
		{`UPDATE type::record($user_id) SET
			registered_events = array::union(registered_events ?? [], [type::record($event_id)]),
			updated_on = time::now()`, vars},
	}, nil
}

// Register records the registration and pushes the event onto the user's
// registered_events in one transaction.
func (r *RegistrationRepository) Register(ctx context.Context, reg *model.Registration) error {
	stmts, err := registrationStatements(reg)
	if err != nil {
		return err
	}
	if err := runBatch(ctx, r.db, stmts...); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: already registered", database.ErrDuplicate)
		}
		return err
	}
	return nil
}

// ListByEvent returns raw registrations for an event
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]*model.Registration, error) {
	recordID, ok := ensureRecordID("event", eventID)
	if !ok {
		return []*model.Registration{}, nil
	}
	query := `SELECT * FROM registration WHERE event = type::record($event_id) ORDER BY registered_at ASC`
	return queryAll[model.Registration](ctx, r.db, query, map[string]interface{}{"event_id": recordID}, registrationAliases)
}

// ListRegistrants joins an event's registrations with their users
func (r *RegistrationRepository) ListRegistrants(ctx context.Context, eventID string) ([]*model.Registrant, error) {
	recordID, ok := ensureRecordID("event", eventID)
	if !ok {
		return []*model.Registrant{}, nil
	}
	query := `
		SELECT
			user AS user_id,
			user.name AS name,
			user.email AS email,
			user.enrollment_number AS enrollment_number,
			phone,
			college,
			team_name,
			registered_at
		FROM registration
		WHERE event = type::record($event_id)
		ORDER BY registered_at ASC
	`
	return queryAll[model.Registrant](ctx, r.db, query, map[string]interface{}{"event_id": recordID}, nil)
}

// Count returns the number of registrations
func (r *RegistrationRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, "registration", "", nil)
}
