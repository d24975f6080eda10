// Package fixtures provides test data factories for repository and
// end-to-end tests.
//
// Each factory method creates an entity with sensible defaults, allows
// customization through option functions and returns the stored model.
//
//	f := fixtures.New(tdb.DB)
//	user := f.CreateUser(t)
//	event := f.CreateEvent(t, fixtures.WithRegistrationOpen(true))
package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the plain password of every fixture user
const DefaultPassword = "testpass123"

// Factory creates test entities in the database
type Factory struct {
	db database.Database
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{db: db}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func testCtx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Email            string
	Name             string
	Password         string
	EnrollmentNumber string
	Role             model.UserRole
}

// WithRole sets the user's role
func WithRole(role model.UserRole) func(*UserOpts) {
	return func(o *UserOpts) { o.Role = role }
}

// WithEmail sets the user's email
func WithEmail(email string) func(*UserOpts) {
	return func(o *UserOpts) { o.Email = email }
}

// CreateUser creates a user with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	id := randomID()
	o := &UserOpts{
		Email:            fmt.Sprintf("user_%s@ahduni.edu.in", id),
		Name:             "User " + id,
		Password:         DefaultPassword,
		EnrollmentNumber: "AU" + id,
		Role:             model.UserRoleUser,
	}
	for _, fn := range opts {
		fn(o)
	}

	// Minimum cost keeps fixtures fast
	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}

	user := &model.User{
		Email:            o.Email,
		Name:             o.Name,
		Hash:             string(hash),
		EnrollmentNumber: o.EnrollmentNumber,
		Role:             o.Role,
	}
	if err := repository.NewUserRepository(f.db).Create(testCtx(t), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	return user
}

// CreateAdmin creates a user with the admin role
func (f *Factory) CreateAdmin(t *testing.T) *model.User {
	t.Helper()
	return f.CreateUser(t, WithRole(model.UserRoleAdmin))
}

// LinkHandle attaches a Codeforces handle to user
func (f *Factory) LinkHandle(t *testing.T, user *model.User, handle string) *model.User {
	t.Helper()
	updated, err := repository.NewUserRepository(f.db).SetCodeforces(testCtx(t), user.ID, handle, nil, nil)
	if err != nil || updated == nil {
		t.Fatalf("fixtures: failed to link handle: %v", err)
	}
	return updated
}

// ============================================================================
// Event Fixtures
// ============================================================================

// EventOpts customizes event creation
type EventOpts struct {
	Title            string
	Date             time.Time
	RegistrationOpen bool
}

// WithRegistrationOpen sets whether the event accepts registrations
func WithRegistrationOpen(open bool) func(*EventOpts) {
	return func(o *EventOpts) { o.RegistrationOpen = open }
}

// WithDate sets the event date
func WithDate(d time.Time) func(*EventOpts) {
	return func(o *EventOpts) { o.Date = d }
}

// CreateEvent creates an event with optional customizations
func (f *Factory) CreateEvent(t *testing.T, opts ...func(*EventOpts)) *model.Event {
	t.Helper()

	o := &EventOpts{
		Title:            "Event " + randomID(),
		Date:             time.Now().Add(7 * 24 * time.Hour).Truncate(time.Second),
		RegistrationOpen: true,
	}
	for _, fn := range opts {
		fn(o)
	}

	event := &model.Event{
		Title:            o.Title,
		Description:      "A test event",
		Date:             o.Date,
		Location:         "Auditorium",
		RegistrationOpen: o.RegistrationOpen,
		ImageURL:         "https://res.cloudinary.com/demo/image/upload/events/test.png",
		MoreDetails:      "Bring a laptop",
	}
	if err := repository.NewEventRepository(f.db).Create(testCtx(t), event); err != nil {
		t.Fatalf("fixtures: failed to create event: %v", err)
	}
	return event
}

// Register registers user for event
func (f *Factory) Register(t *testing.T, event *model.Event, user *model.User) *model.Registration {
	t.Helper()
	reg := &model.Registration{
		EventID:  event.ID,
		UserID:   user.ID,
		Phone:    "9999999999",
		College:  "Ahmedabad University",
		TeamName: "team-" + randomID(),
	}
	if err := repository.NewRegistrationRepository(f.db).Register(testCtx(t), reg); err != nil {
		t.Fatalf("fixtures: failed to register: %v", err)
	}
	return reg
}

// ============================================================================
// Blog Fixtures
// ============================================================================

// CreateBlog creates a published post authored by user
func (f *Factory) CreateBlog(t *testing.T, author *model.User, tags ...string) *model.Blog {
	t.Helper()
	title := "Post " + randomID()
	blog := &model.Blog{
		Title:     title,
		Slug:      model.Slugify(title),
		Content:   "<p>hello</p>",
		Author:    author.Name,
		AuthorID:  author.ID,
		Tags:      model.NormalizeTags(tags),
		Published: true,
	}
	if err := repository.NewBlogRepository(f.db).Create(testCtx(t), blog); err != nil {
		t.Fatalf("fixtures: failed to create blog: %v", err)
	}
	return blog
}

// ============================================================================
// CP Fixtures
// ============================================================================

// CreateProblem posts a practice problem
func (f *Factory) CreateProblem(t *testing.T, contestID int, index string) *model.CPProblem {
	t.Helper()
	p := &model.CPProblem{
		ProblemID: fmt.Sprintf("%d-%s", contestID, index),
		ContestID: contestID,
		Title:     "Problem " + index,
		Link:      fmt.Sprintf("https://codeforces.com/contest/%d/problem/%s", contestID, index),
	}
	if err := repository.NewCPRepository(f.db).CreateProblem(testCtx(t), p); err != nil {
		t.Fatalf("fixtures: failed to create problem: %v", err)
	}
	return p
}
