package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pclub/portal/api/internal/model"
)

// LeaderboardPeriod selects which solves count toward a leaderboard
type LeaderboardPeriod string

const (
	PeriodOverall LeaderboardPeriod = "overall"
	PeriodWeekly  LeaderboardPeriod = "weekly"  // last 7 days
	PeriodMonthly LeaderboardPeriod = "monthly" // since the start of the month
)

// ParsePeriod validates a period name. Empty means overall.
func ParsePeriod(s string) (LeaderboardPeriod, error) {
	switch p := LeaderboardPeriod(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodOverall, nil
	case PeriodOverall, PeriodWeekly, PeriodMonthly:
		return p, nil
	}
	return "", ErrInvalidPeriod
}

// SolveSource supplies active problems and their accepted solves
type SolveSource interface {
	ListProblems(ctx context.Context, activeOnly bool) ([]*model.CPProblem, error)
	AcceptedSolves(ctx context.Context, since time.Time) ([]*model.ProblemSolve, error)
}

// HandleLister lists users with a linked handle
type HandleLister interface {
	ListWithHandles(ctx context.Context) ([]*model.User, error)
}

// SnapshotRepository defines the interface for snapshot storage
type SnapshotRepository interface {
	Create(ctx context.Context, s *model.LeaderboardSnapshot) error
	Latest(ctx context.Context, t model.SnapshotType) (*model.LeaderboardSnapshot, error)
	ExistsForPeriod(ctx context.Context, t model.SnapshotType, periodEnd time.Time) (bool, error)
}

// LeaderboardService ranks users by solves of posted problems
type LeaderboardService struct {
	solves    SolveSource
	users     HandleLister
	snapshots SnapshotRepository
	now       func() time.Time
}

// LeaderboardServiceConfig holds configuration for the leaderboard service
type LeaderboardServiceConfig struct {
	Solves    SolveSource
	Users     HandleLister
	Snapshots SnapshotRepository
	Now       func() time.Time // Default: time.Now
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(cfg LeaderboardServiceConfig) *LeaderboardService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &LeaderboardService{
		solves:    cfg.Solves,
		users:     cfg.Users,
		snapshots: cfg.Snapshots,
		now:       cfg.Now,
	}
}

// Leaderboard returns the live ranking for period
func (s *LeaderboardService) Leaderboard(ctx context.Context, period LeaderboardPeriod) ([]model.LeaderboardEntry, error) {
	start, end := periodWindow(period, s.now())
	return s.compute(ctx, start, end)
}

// Rank returns the entry of handle on the period's leaderboard
func (s *LeaderboardService) Rank(ctx context.Context, handle string, period LeaderboardPeriod) (*model.LeaderboardEntry, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, ErrHandleRequired
	}
	entries, err := s.Leaderboard(ctx, period)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if strings.EqualFold(entries[i].CodeforcesHandle, handle) {
			return &entries[i], nil
		}
	}
	return nil, ErrNotRanked
}

// Latest returns the most recent snapshot of type t
func (s *LeaderboardService) Latest(ctx context.Context, t model.SnapshotType) (*model.LeaderboardSnapshot, error) {
	snap, err := s.snapshots.Latest(ctx, t)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// Snapshot freezes the leaderboard for the most recent closed period of
// type t (see snapshotWindow). It is a no-op returning created false when
// that period already has a snapshot.
func (s *LeaderboardService) Snapshot(ctx context.Context, t model.SnapshotType) (*model.LeaderboardSnapshot, bool, error) {
	start, end := snapshotWindow(t, s.now())

	exists, err := s.snapshots.ExistsForPeriod(ctx, t, end)
	if err != nil {
		return nil, false, err
	}
	if exists {
		return nil, false, nil
	}

	entries, err := s.compute(ctx, start, end)
	if err != nil {
		return nil, false, err
	}
	snap := &model.LeaderboardSnapshot{
		Type:        t,
		PeriodStart: start,
		PeriodEnd:   end,
		Entries:     entries,
	}
	if err := s.snapshots.Create(ctx, snap); err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

// compute ranks accepted solves in [start, end). Zero bounds are open.
// Only a user's first accepted solve of each active problem counts; users
// are ordered by solved count, then by total time from posting to solve.
func (s *LeaderboardService) compute(ctx context.Context, start, end time.Time) ([]model.LeaderboardEntry, error) {
	problems, err := s.solves.ListProblems(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(problems) == 0 {
		return []model.LeaderboardEntry{}, nil
	}
	posted := make(map[string]time.Time, len(problems))
	for _, p := range problems {
		posted[model.NormalizeProblemID(p.ProblemID)] = p.PostedAt
	}

	solves, err := s.solves.AcceptedSolves(ctx, start)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListWithHandles(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	type tally struct {
		entry  model.LeaderboardEntry
		solved map[string]bool
	}
	tallies := make(map[string]*tally)
	var order []string

	// solves arrive oldest first, so the first seen per problem is the earliest
	for _, solve := range solves {
		if !end.IsZero() && !solve.SolvedAt.Before(end) {
			continue
		}
		pid := model.NormalizeProblemID(solve.ProblemID)
		postedAt, ok := posted[pid]
		if !ok {
			continue
		}

		t, ok := tallies[solve.UserID]
		if !ok {
			t = &tally{entry: newEntry(solve, byID[solve.UserID]), solved: make(map[string]bool)}
			tallies[solve.UserID] = t
			order = append(order, solve.UserID)
		}
		if t.solved[pid] {
			continue
		}
		t.solved[pid] = true
		t.entry.SolvedCount++
		t.entry.TotalTimeSeconds += int64(solve.SolvedAt.Sub(postedAt) / time.Second)
	}

	entries := make([]model.LeaderboardEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, tallies[id].entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].SolvedCount != entries[j].SolvedCount {
			return entries[i].SolvedCount > entries[j].SolvedCount
		}
		return entries[i].TotalTimeSeconds < entries[j].TotalTimeSeconds
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func newEntry(solve *model.ProblemSolve, user *model.User) model.LeaderboardEntry {
	e := model.LeaderboardEntry{UserID: solve.UserID, CodeforcesHandle: solve.CodeforcesHandle}
	if user != nil {
		e.Name = user.Name
		e.CodeforcesHandle = user.DisplayHandle()
		e.CodeforcesRank = user.CodeforcesRank
		e.CodeforcesRating = user.CodeforcesRating
	}
	if e.CodeforcesHandle == "" {
		e.CodeforcesHandle = model.PlaceholderHandle(solve.UserID)
	}
	return e
}

// periodWindow returns the live window of a period. Overall is unbounded.
func periodWindow(p LeaderboardPeriod, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	switch p {
	case PeriodWeekly:
		return now.AddDate(0, 0, -7), time.Time{}
	case PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), time.Time{}
	}
	return time.Time{}, time.Time{}
}

// snapshotWindow returns the frozen window for a snapshot taken at now:
// the 7 days up to today's midnight, or the last completed calendar month.
// Both windows end in the past so no later solve can belong to them.
func snapshotWindow(t model.SnapshotType, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	if t == model.SnapshotMonthly {
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return end.AddDate(0, -1, 0), end
	}
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -7), end
}
