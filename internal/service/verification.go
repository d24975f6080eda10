package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pclub/portal/api/internal/cache"
	"github.com/pclub/portal/api/internal/codeforces"
	"github.com/pclub/portal/api/internal/model"
)

const (
	verificationWindow = 3 * time.Minute

	// Problem 1408A (Circle Coloring) is the proof-of-ownership target
	verificationContestID = 1408
	verificationIndex     = "A"
	verificationLink      = "https://codeforces.com/problemset/problem/1408/A"
)

// CodeforcesAPI is the slice of the judge client services use
type CodeforcesAPI interface {
	UserStatus(ctx context.Context, handle string, from, count int) ([]codeforces.Submission, error)
	UserInfo(ctx context.Context, handle string) (*codeforces.User, error)
	ContestStatus(ctx context.Context, contestID int, handle string) ([]codeforces.Submission, error)
	FindProblem(ctx context.Context, contestID int, index string) (*codeforces.Problem, error)
}

// HandleRepository defines the user storage used by handle verification
type HandleRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByHandle(ctx context.Context, handle string) (*model.User, error)
	SetCodeforces(ctx context.Context, id, handle string, rank *string, rating *int) (*model.User, error)
	UpdateCodeforcesRank(ctx context.Context, id string, rank *string, rating *int) (*model.User, error)
	ClearCodeforces(ctx context.Context, id string) (*model.User, error)
}

// HandleVerificationService links Codeforces handles to portal accounts
type HandleVerificationService struct {
	userRepo HandleRepository
	store    KeyValueStore
	cf       CodeforcesAPI
	now      func() time.Time
}

// HandleVerificationServiceConfig holds configuration for the service
type HandleVerificationServiceConfig struct {
	UserRepo   HandleRepository
	Store      KeyValueStore
	Codeforces CodeforcesAPI
	Now        func() time.Time // Default: time.Now
}

// NewHandleVerificationService creates a new handle verification service
func NewHandleVerificationService(cfg HandleVerificationServiceConfig) *HandleVerificationService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &HandleVerificationService{
		userRepo: cfg.UserRepo,
		store:    cfg.Store,
		cf:       cfg.Codeforces,
		now:      cfg.Now,
	}
}

// Start opens a verification window for handle. The user proves ownership
// by submitting a compilation error to 1408A before the window closes.
func (s *HandleVerificationService) Start(ctx context.Context, userID, handle string) (*model.VerificationChallenge, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, ErrHandleRequired
	}

	owner, err := s.userRepo.GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if owner != nil && owner.ID != userID {
		return nil, ErrHandleTaken
	}

	started := s.now().UTC()
	pending := model.HandleVerification{Handle: handle, UserID: userID, StartedAt: started}
	if err := s.store.SetJSON(ctx, cache.HandleVerificationKey(userID), pending, verificationWindow); err != nil {
		return nil, fmt.Errorf("%w: store verification: %v", ErrUpstream, err)
	}
	handleVerifications.WithLabelValues("started").Inc()

	return &model.VerificationChallenge{
		Handle:      handle,
		ProblemLink: verificationLink,
		Instructions: fmt.Sprintf(
			"Submit any code that fails to compile to problem 1408A from the account %q within %d minutes, then confirm.",
			handle, int(verificationWindow.Minutes())),
		ExpiresAt: started.Add(verificationWindow),
	}, nil
}

// Verify checks the latest submission of the pending handle and links it
// to the user on success.
func (s *HandleVerificationService) Verify(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.verify(ctx, userID)
	if err != nil {
		handleVerifications.WithLabelValues(verificationOutcome(err)).Inc()
		return nil, err
	}
	handleVerifications.WithLabelValues("verified").Inc()
	return user, nil
}

func (s *HandleVerificationService) verify(ctx context.Context, userID string) (*model.User, error) {
	key := cache.HandleVerificationKey(userID)

	var pending model.HandleVerification
	if err := s.store.GetJSON(ctx, key, &pending); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrNoActiveVerification
		}
		return nil, fmt.Errorf("%w: load verification: %v", ErrUpstream, err)
	}

	if s.now().Sub(pending.StartedAt) > verificationWindow {
		s.discard(ctx, key)
		return nil, ErrVerificationExpired
	}

	subs, err := s.cf.UserStatus(ctx, pending.Handle, 1, 10)
	if err != nil {
		if errors.Is(err, codeforces.ErrNotFound) {
			return nil, ErrHandleNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(subs) == 0 {
		return nil, ErrNoSubmissions
	}

	// Only the newest submission counts.
	latest := subs[0]
	if latest.CreatedAt().Before(pending.StartedAt.Truncate(time.Second)) {
		return nil, ErrNoRecentSubmission
	}
	if latest.Problem.ContestID != verificationContestID || latest.Problem.Index != verificationIndex {
		return nil, ErrWrongProblem
	}
	if latest.Verdict != codeforces.VerdictCompilationError {
		return nil, ErrNotCompilationError
	}

	rank, rating := s.fetchRank(ctx, pending.Handle)
	user, err := s.userRepo.SetCodeforces(ctx, userID, pending.Handle, rank, rating)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrHandleTaken
		}
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.discard(ctx, key)
	return user, nil
}

// RefreshRank re-reads rank and rating for the linked handle
func (s *HandleVerificationService) RefreshRank(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.CodeforcesHandle == nil || *user.CodeforcesHandle == "" {
		return nil, ErrNoHandleLinked
	}

	info, err := s.cf.UserInfo(ctx, *user.CodeforcesHandle)
	if err != nil {
		if errors.Is(err, codeforces.ErrNotFound) {
			return nil, ErrHandleNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	rank, rating := rankOf(info)
	return s.userRepo.UpdateCodeforcesRank(ctx, userID, rank, rating)
}

// RemoveHandle unlinks the user's handle
func (s *HandleVerificationService) RemoveHandle(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.ClearCodeforces(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// fetchRank looks up rank and rating. A failure here does not undo a
// successful verification; the rank can be refreshed later.
func (s *HandleVerificationService) fetchRank(ctx context.Context, handle string) (*string, *int) {
	info, err := s.cf.UserInfo(ctx, handle)
	if err != nil {
		slog.Warn("codeforces user info failed",
			slog.String("handle", handle),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}
	return rankOf(info)
}

func (s *HandleVerificationService) discard(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete handle verification",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// rankOf reports unrated accounts as rank "unrated", rating 0
func rankOf(info *codeforces.User) (*string, *int) {
	rank := info.Rank
	if rank == "" {
		rank = "unrated"
	}
	rating := info.Rating
	return &rank, &rating
}

func verificationOutcome(err error) string {
	switch {
	case errors.Is(err, ErrNoActiveVerification):
		return "no_active"
	case errors.Is(err, ErrVerificationExpired):
		return "expired"
	case errors.Is(err, ErrNoSubmissions), errors.Is(err, ErrNoRecentSubmission):
		return "no_submission"
	case errors.Is(err, ErrWrongProblem):
		return "wrong_problem"
	case errors.Is(err, ErrNotCompilationError):
		return "wrong_verdict"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	}
	return "rejected"
}
