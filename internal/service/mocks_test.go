package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pclub/portal/api/internal/cache"
	"github.com/pclub/portal/api/internal/codeforces"
	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/mailer"
	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================================
// Users
// ============================================================================

type mockUserRepo struct {
	mu         sync.Mutex
	users      map[string]*model.User
	emailIndex map[string]*model.User
	nextID     int
	getErr     error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:      make(map[string]*model.User),
		emailIndex: make(map[string]*model.User),
	}
}

// add stores a user with a cheap bcrypt hash of password
func (m *mockUserRepo) add(t *testing.T, email, password string, role model.UserRole) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &model.User{Email: email, Name: "User " + email, Hash: string(hash), Role: role}
	if err := m.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emailIndex[user.Email]; ok {
		return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
	}
	m.nextID++
	user.ID = fmt.Sprintf("user:u%d", m.nextID)
	if user.Role == "" {
		user.Role = model.UserRoleUser
	}
	user.RegisteredEvents = []string{}
	user.CreatedOn = time.Now()
	user.UpdatedOn = time.Now()
	m.users[user.ID] = user
	m.emailIndex[user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emailIndex[strings.ToLower(email)], nil
}

func (m *mockUserRepo) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.CodeforcesHandle != nil && strings.EqualFold(*u.CodeforcesHandle, handle) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id string, req *model.UpdateProfileRequest) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.EnrollmentNumber != nil {
		u.EnrollmentNumber = *req.EnrollmentNumber
	}
	if req.CodechefHandle != nil {
		u.CodechefHandle = req.CodechefHandle
	}
	return u, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.Hash = hash
	return nil
}

func (m *mockUserRepo) SetRole(ctx context.Context, id string, role model.UserRole) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	u.Role = role
	return u, nil
}

func (m *mockUserRepo) SetCodeforces(ctx context.Context, id, handle string, rank *string, rating *int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	for _, other := range m.users {
		if other.ID != id && other.CodeforcesHandle != nil && strings.EqualFold(*other.CodeforcesHandle, handle) {
			return nil, fmt.Errorf("%w: handle already linked", database.ErrDuplicate)
		}
	}
	u.CodeforcesHandle = &handle
	u.CodeforcesRank = rank
	u.CodeforcesRating = rating
	return u, nil
}

func (m *mockUserRepo) UpdateCodeforcesRank(ctx context.Context, id string, rank *string, rating *int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	u.CodeforcesRank = rank
	u.CodeforcesRating = rating
	return u, nil
}

func (m *mockUserRepo) ClearCodeforces(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	u.CodeforcesHandle, u.CodeforcesRank, u.CodeforcesRating = nil, nil, nil
	return u, nil
}

func (m *mockUserRepo) Search(ctx context.Context, term string, limit int) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.users {
		if strings.Contains(strings.ToLower(u.Name+u.Email), strings.ToLower(term)) && len(out) < limit {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) ListWithHandles(ctx context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.users {
		if u.CodeforcesHandle != nil {
			out = append(out, u)
		}
	}
	return out, nil
}

// ============================================================================
// Events and registrations
// ============================================================================

type mockEventRepo struct {
	mu     sync.Mutex
	events map[string]*model.Event
	byUser map[string][]*model.Event
	nextID int
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*model.Event), byUser: make(map[string][]*model.Event)}
}

func (m *mockEventRepo) add(title string, open bool) *model.Event {
	e := &model.Event{Title: title, RegistrationOpen: open, Date: time.Now().AddDate(0, 0, 7)}
	_ = m.Create(context.Background(), e)
	return e
}

func (m *mockEventRepo) Create(ctx context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = fmt.Sprintf("event:e%d", m.nextID)
	if e.Winners == nil {
		e.Winners = []model.Winner{}
	}
	m.events[e.ID] = e
	return nil
}

func (m *mockEventRepo) Get(ctx context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	cp.Winners = append([]model.Winner(nil), e.Winners...)
	return &cp, nil
}

func (m *mockEventRepo) Update(ctx context.Context, e *model.Event) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return nil, nil
	}
	m.events[e.ID] = e
	return e, nil
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *mockEventRepo) List(ctx context.Context) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockEventRepo) ListOpen(ctx context.Context) ([]*model.Event, error) {
	all, _ := m.List(ctx)
	var out []*model.Event
	for _, e := range all {
		if e.RegistrationOpen {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEventRepo) ListByUser(ctx context.Context, userID string) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byUser[userID], nil
}

func (m *mockEventRepo) SetWinners(ctx context.Context, id string, winners []model.Winner) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	e.Winners = winners
	cp := *e
	cp.Winners = append([]model.Winner(nil), winners...)
	return &cp, nil
}

type mockRegistrationRepo struct {
	mu          sync.Mutex
	regs        []*model.Registration
	registrants []*model.Registrant
	registerErr error
}

func (m *mockRegistrationRepo) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.regs {
		if r.EventID == eventID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRegistrationRepo) Register(ctx context.Context, reg *model.Registration) error {
	if m.registerErr != nil {
		return m.registerErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	reg.ID = fmt.Sprintf("registration:r%d", len(m.regs)+1)
	m.regs = append(m.regs, reg)
	return nil
}

func (m *mockRegistrationRepo) ListRegistrants(ctx context.Context, eventID string) ([]*model.Registrant, error) {
	return m.registrants, nil
}

// ============================================================================
// Infrastructure
// ============================================================================

// memoryStore is an in-process KeyValueStore with real expiry
type memoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	expires map[string]time.Time
	incrErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte), expires: make(map[string]time.Time)}
}

func (s *memoryStore) GetJSON(ctx context.Context, key string, dst interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exp, ok := s.expires[key]; ok && time.Now().After(exp) {
		delete(s.data, key)
		delete(s.expires, key)
	}
	raw, ok := s.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dst)
}

func (s *memoryStore) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	s.expires[key] = time.Now().Add(ttl)
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
		delete(s.expires, k)
	}
	return nil
}

func (s *memoryStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incrErr != nil {
		return 0, 0, s.incrErr
	}
	if exp, ok := s.expires[key]; ok && time.Now().After(exp) {
		delete(s.data, key)
		delete(s.expires, key)
	}
	var n int64
	if raw, ok := s.data[key]; ok {
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, 0, err
		}
	}
	n++
	raw, _ := json.Marshal(n)
	s.data[key] = raw
	if _, ok := s.expires[key]; !ok {
		s.expires[key] = time.Now().Add(window)
	}
	return n, time.Until(s.expires[key]), nil
}

func (s *memoryStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

// put stores v without going through the service, for seeding state
func (s *memoryStore) put(t *testing.T, key string, v interface{}) {
	t.Helper()
	if err := s.SetJSON(context.Background(), key, v, time.Hour); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
}

type mockMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// lastCode extracts the code from the most recent message
func (m *mockMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no email sent")
	}
	text := m.sent[len(m.sent)-1].Text
	i := strings.Index(text, "Code: ")
	if i < 0 {
		t.Fatalf("no code in %q", text)
	}
	return strings.Fields(text[i+len("Code: "):])[0]
}

type mockUploader struct {
	uploads []string
	err     error
}

func (m *mockUploader) Upload(ctx context.Context, r io.Reader, folder string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploads = append(m.uploads, folder)
	return fmt.Sprintf("https://cdn.example/%s/%d.png", folder, len(m.uploads)), nil
}

func (m *mockUploader) UploadDataURI(ctx context.Context, uri, folder string) (string, error) {
	return m.Upload(ctx, strings.NewReader(uri), folder)
}

// mockCodeforces answers judge calls from func fields
type mockCodeforces struct {
	userStatus    func(handle string) ([]codeforces.Submission, error)
	userInfo      func(handle string) (*codeforces.User, error)
	contestStatus func(contestID int, handle string) ([]codeforces.Submission, error)
	findProblem   func(contestID int, index string) (*codeforces.Problem, error)
}

func (m *mockCodeforces) UserStatus(ctx context.Context, handle string, from, count int) ([]codeforces.Submission, error) {
	if m.userStatus == nil {
		return nil, nil
	}
	return m.userStatus(handle)
}

func (m *mockCodeforces) UserInfo(ctx context.Context, handle string) (*codeforces.User, error) {
	if m.userInfo == nil {
		return &codeforces.User{Handle: handle}, nil
	}
	return m.userInfo(handle)
}

func (m *mockCodeforces) ContestStatus(ctx context.Context, contestID int, handle string) ([]codeforces.Submission, error) {
	if m.contestStatus == nil {
		return nil, nil
	}
	return m.contestStatus(contestID, handle)
}

func (m *mockCodeforces) FindProblem(ctx context.Context, contestID int, index string) (*codeforces.Problem, error) {
	if m.findProblem == nil {
		return nil, codeforces.ErrNotFound
	}
	return m.findProblem(contestID, index)
}

func submission(id int64, at time.Time, contestID int, index, verdict string) codeforces.Submission {
	return codeforces.Submission{
		ID:                  id,
		ContestID:           contestID,
		CreationTimeSeconds: at.Unix(),
		Problem:             codeforces.Problem{ContestID: contestID, Index: index},
		Verdict:             verdict,
	}
}

// newTestJWT returns a token service with short test lifetimes
func newTestJWT(t *testing.T, otpTTL time.Duration) *jwt.Service {
	t.Helper()
	svc, err := jwt.NewService(jwt.Config{
		Secret:    []byte("test-secret-of-sufficient-length!"),
		Issuer:    "pclub-test",
		AccessTTL: time.Hour,
		OTPTTL:    otpTTL,
	})
	if err != nil {
		t.Fatalf("jwt service: %v", err)
	}
	return svc
}
