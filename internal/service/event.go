package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"mime/multipart"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/upload"
)

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	Get(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, event *model.Event) (*model.Event, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Event, error)
	ListOpen(ctx context.Context) ([]*model.Event, error)
	SetWinners(ctx context.Context, id string, winners []model.Winner) (*model.Event, error)
}

// RegistrantLister lists an event's registrations joined with users
type RegistrantLister interface {
	ListRegistrants(ctx context.Context, eventID string) ([]*model.Registrant, error)
}

// EventService handles events and their winners
type EventService struct {
	eventRepo  EventRepository
	registrant RegistrantLister
	uploader   upload.Uploader
}

// EventServiceConfig holds configuration for the event service
type EventServiceConfig struct {
	EventRepo        EventRepository
	RegistrationRepo RegistrantLister
	Uploader         upload.Uploader
}

// NewEventService creates a new event service
func NewEventService(cfg EventServiceConfig) *EventService {
	return &EventService{
		eventRepo:  cfg.EventRepo,
		registrant: cfg.RegistrationRepo,
		uploader:   cfg.Uploader,
	}
}

// Create stores a new event with its banner uploaded to the CDN
func (s *EventService) Create(ctx context.Context, in *model.EventInput, image *multipart.FileHeader) (*model.Event, error) {
	if image == nil {
		return nil, ErrEventImageRequired
	}
	date, err := model.ParseEventDate(in.Date)
	if err != nil {
		return nil, NewValidationError(model.FieldError{Field: "date", Message: "date must be RFC 3339 or YYYY-MM-DD"})
	}

	url, err := s.uploadImage(ctx, image)
	if err != nil {
		return nil, err
	}

	event := &model.Event{
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		Rules:            in.Rules,
		Date:             date,
		Location:         strings.TrimSpace(in.Location),
		RegistrationOpen: in.RegistrationOpen,
		ImageURL:         url,
		MoreDetails:      in.MoreDetails,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Update overwrites an event; a new image replaces the banner
func (s *EventService) Update(ctx context.Context, id string, in *model.EventInput, image *multipart.FileHeader) (*model.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	date, err := model.ParseEventDate(in.Date)
	if err != nil {
		return nil, NewValidationError(model.FieldError{Field: "date", Message: "date must be RFC 3339 or YYYY-MM-DD"})
	}

	if image != nil {
		url, err := s.uploadImage(ctx, image)
		if err != nil {
			return nil, err
		}
		event.ImageURL = url
	}

	event.Title = strings.TrimSpace(in.Title)
	event.Description = in.Description
	event.Rules = in.Rules
	event.Date = date
	event.Location = strings.TrimSpace(in.Location)
	event.RegistrationOpen = in.RegistrationOpen
	event.MoreDetails = in.MoreDetails

	updated, err := s.eventRepo.Update(ctx, event)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrEventNotFound
	}
	return labelWinners(updated), nil
}

func (s *EventService) uploadImage(ctx context.Context, image *multipart.FileHeader) (string, error) {
	urls, err := upload.UploadFiles(ctx, s.uploader, []*multipart.FileHeader{image}, upload.FolderEvents)
	if err != nil {
		return "", uploadError(err)
	}
	return urls[0], nil
}

// Delete removes an event and its registrations
func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrEventNotFound
		}
		return err
	}
	return nil
}

// Get retrieves an event by ID
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.eventRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return labelWinners(event), nil
}

// List returns every event, newest date first
func (s *EventService) List(ctx context.Context) ([]*model.Event, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		labelWinners(e)
	}
	return events, nil
}

// Ongoing returns events with registration open
func (s *EventService) Ongoing(ctx context.Context) ([]*model.Event, error) {
	return s.eventRepo.ListOpen(ctx)
}

// ===== Winners =====

// AddWinners appends winners to an event. Entries without a name are
// skipped; data:image images are uploaded to the CDN.
func (s *EventService) AddWinners(ctx context.Context, eventID string, in []model.WinnerInput) ([]model.Winner, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	added := s.processWinners(ctx, event, in)
	if len(added) == 0 {
		return nil, ErrNoValidWinners
	}
	return s.saveWinners(ctx, event.ID, append(event.Winners, added...))
}

// ReplaceWinners overwrites an event's winners
func (s *EventService) ReplaceWinners(ctx context.Context, eventID string, in []model.WinnerInput) ([]model.Winner, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	winners := s.processWinners(ctx, event, in)
	if len(winners) == 0 {
		return nil, ErrNoValidWinners
	}
	return s.saveWinners(ctx, event.ID, winners)
}

// GetWinners returns an event's winners ordered by position
func (s *EventService) GetWinners(ctx context.Context, eventID string) ([]model.Winner, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return event.Winners, nil
}

// DeleteWinners clears an event's winners
func (s *EventService) DeleteWinners(ctx context.Context, eventID string) error {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return err
	}
	_, err = s.saveWinners(ctx, event.ID, []model.Winner{})
	return err
}

func (s *EventService) processWinners(ctx context.Context, event *model.Event, in []model.WinnerInput) []model.Winner {
	winners := make([]model.Winner, 0, len(in))
	for i, w := range in {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			slog.Warn("skipping winner without a name", slog.String("event_id", event.ID), slog.Int("index", i))
			continue
		}

		image := w.Image
		if upload.IsDataURI(image) {
			url, err := s.uploader.UploadDataURI(ctx, image, upload.FolderWinners)
			if err != nil {
				// A failed upload keeps the winner without a picture
				slog.Warn("winner image upload failed",
					slog.String("event_id", event.ID),
					slog.Int("index", i),
					slog.String("error", err.Error()))
				url = ""
			}
			image = url
		}

		winners = append(winners, model.Winner{
			Name:        model.SanitizeText(name),
			Description: model.SanitizeText(w.Description),
			Image:       image,
			Position:    w.Position,
		})
	}
	return winners
}

func (s *EventService) saveWinners(ctx context.Context, eventID string, winners []model.Winner) ([]model.Winner, error) {
	updated, err := s.eventRepo.SetWinners(ctx, eventID, winners)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrEventNotFound
	}
	return labelWinners(updated).Winners, nil
}

// labelWinners sorts winners by position and fills PositionLabel ("1st")
func labelWinners(e *model.Event) *model.Event {
	sort.SliceStable(e.Winners, func(i, j int) bool {
		pi, pj := e.Winners[i].Position, e.Winners[j].Position
		if pi <= 0 || pj <= 0 {
			return pj <= 0 && pi > 0
		}
		return pi < pj
	})
	for i := range e.Winners {
		if p := e.Winners[i].Position; p > 0 {
			e.Winners[i].PositionLabel = humanize.Ordinal(p)
		}
	}
	return e
}

// ===== Export =====

// registrantColumns is the header row of a registrations export
var registrantColumns = []string{"id", "name", "email", "enrollment", "phone", "college", "team"}

// ExportRegistrations renders an event's registrants as CSV
func (s *EventService) ExportRegistrations(ctx context.Context, eventID string) (*model.Event, []byte, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	registrants, err := s.registrant.ListRegistrants(ctx, event.ID)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(registrantColumns); err != nil {
		return nil, nil, err
	}
	for _, r := range registrants {
		row := []string{r.UserID, r.Name, r.Email, r.EnrollmentNumber, r.Phone, r.College, r.TeamName}
		if err := w.Write(row); err != nil {
			return nil, nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, nil, err
	}
	return event, buf.Bytes(), nil
}
