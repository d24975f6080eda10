package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/model"
)

var solveAliases = map[string]string{"user": "user_id"}

// CPRepository handles posted practice problems and their solves
type CPRepository struct {
	db database.Database
}

// NewCPRepository creates a new competitive-programming repository
func NewCPRepository(db database.Database) *CPRepository {
	return &CPRepository{db: db}
}

// ===== Problems =====

// CreateProblem posts a problem; a repeated problem_id reports
// database.ErrDuplicate.
func (r *CPRepository) CreateProblem(ctx context.Context, p *model.CPProblem) error {
	query := `
		CREATE cp_problem CONTENT {
			problem_id: $problem_id,
			contest_id: $contest_id,
			title: $title,
			link: $link,
			posted_at: time::now(),
			is_active: true
		}
	`
	vars := map[string]interface{}{
		"problem_id": p.ProblemID,
		"contest_id": p.ContestID,
		"title":      p.Title,
		"link":       p.Link,
	}
	created, err := queryOne[model.CPProblem](ctx, r.db, query, vars, nil)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: problem already posted", database.ErrDuplicate)
		}
		return err
	}
	if created == nil {
		return database.ErrQuery
	}
	*p = *created
	return nil
}

// GetProblem retrieves a posted problem by its "<contest>-<index>" id
func (r *CPRepository) GetProblem(ctx context.Context, problemID string) (*model.CPProblem, error) {
	query := `SELECT * FROM cp_problem WHERE problem_id = $problem_id LIMIT 1`
	return queryOne[model.CPProblem](ctx, r.db, query, map[string]interface{}{"problem_id": strings.ToUpper(problemID)}, nil)
}

// ListProblems returns posted problems, newest first
func (r *CPRepository) ListProblems(ctx context.Context, activeOnly bool) ([]*model.CPProblem, error) {
	query := `SELECT * FROM cp_problem ORDER BY posted_at DESC`
	if activeOnly {
		query = `SELECT * FROM cp_problem WHERE is_active = true ORDER BY posted_at DESC`
	}
	return queryAll[model.CPProblem](ctx, r.db, query, nil, nil)
}

// SetProblemActive toggles whether a problem counts toward the leaderboard
func (r *CPRepository) SetProblemActive(ctx context.Context, problemID string, active bool) (*model.CPProblem, error) {
	query := `UPDATE cp_problem SET is_active = $is_active WHERE problem_id = $problem_id RETURN AFTER`
	return queryOne[model.CPProblem](ctx, r.db, query, map[string]interface{}{
		"problem_id": strings.ToUpper(problemID),
		"is_active":  active,
	}, nil)
}

// CountProblems returns the number of posted problems
func (r *CPRepository) CountProblems(ctx context.Context) (int, error) {
	return count(ctx, r.db, "cp_problem", "", nil)
}

// ===== Solves =====

// UpsertSolve records a judged submission keyed by its submission id
func (r *CPRepository) UpsertSolve(ctx context.Context, s *model.ProblemSolve) error {
	userID, ok := ensureRecordID("user", s.UserID)
	if !ok {
		return fmt.Errorf("%w: invalid user reference", database.ErrQuery)
	}
	query := `
		UPSERT type::thing("problem_solve", $submission_id) CONTENT {
			user: type::record($user_id),
			codeforces_handle: $handle,
			problem_id: $problem_id,
			submission_id: $submission_id,
			verdict: $verdict,
			solved_at: $solved_at
		}
	`
	vars := map[string]interface{}{
		"submission_id": s.SubmissionID,
		"user_id":       userID,
		"handle":        s.CodeforcesHandle,
		"problem_id":    strings.ToUpper(s.ProblemID),
		"verdict":       s.Verdict,
		"solved_at":     datetime(s.SolvedAt),
	}
	saved, err := queryOne[model.ProblemSolve](ctx, r.db, query, vars, solveAliases)
	if err != nil {
		return err
	}
	if saved != nil {
		*s = *saved
	}
	return nil
}

// ListSolves returns every recorded submission on a problem, oldest first
func (r *CPRepository) ListSolves(ctx context.Context, problemID string) ([]*model.ProblemSolve, error) {
	query := `SELECT * FROM problem_solve WHERE problem_id = $problem_id ORDER BY solved_at ASC`
	return queryAll[model.ProblemSolve](ctx, r.db, query, map[string]interface{}{"problem_id": strings.ToUpper(problemID)}, solveAliases)
}

// SolvesByHandle returns a handle's recorded submissions, newest first
func (r *CPRepository) SolvesByHandle(ctx context.Context, handle string) ([]*model.ProblemSolve, error) {
	query := `SELECT * FROM problem_solve WHERE string::lowercase(codeforces_handle) = string::lowercase($handle) ORDER BY solved_at DESC`
	return queryAll[model.ProblemSolve](ctx, r.db, query, map[string]interface{}{"handle": handle}, solveAliases)
}

// EarliestAccepted returns a handle's first accepted submission on a problem
func (r *CPRepository) EarliestAccepted(ctx context.Context, problemID, handle string) (*model.ProblemSolve, error) {
	query := `
		SELECT * FROM problem_solve
		WHERE problem_id = $problem_id
			AND string::lowercase(codeforces_handle) = string::lowercase($handle)
			AND verdict = 'OK'
		ORDER BY solved_at ASC
		LIMIT 1
	`
	return queryOne[model.ProblemSolve](ctx, r.db, query, map[string]interface{}{
		"problem_id": strings.ToUpper(problemID),
		"handle":     handle,
	}, solveAliases)
}

// AcceptedSolves returns accepted submissions on active problems, oldest
// first. A zero since returns all of them.
func (r *CPRepository) AcceptedSolves(ctx context.Context, since time.Time) ([]*model.ProblemSolve, error) {
	query := `
		SELECT * FROM problem_solve
		WHERE verdict = 'OK'
			AND problem_id INSIDE (SELECT VALUE problem_id FROM cp_problem WHERE is_active = true)
	`
	vars := map[string]interface{}{}
	if !since.IsZero() {
		query += ` AND solved_at >= $since`
		vars["since"] = datetime(since)
	}
	query += ` ORDER BY solved_at ASC`
	return queryAll[model.ProblemSolve](ctx, r.db, query, vars, solveAliases)
}

// ===== Snapshots =====

// SnapshotRepository stores frozen leaderboards
type SnapshotRepository struct {
	db database.Database
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db database.Database) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create stores a snapshot
func (r *SnapshotRepository) Create(ctx context.Context, s *model.LeaderboardSnapshot) error {
	entries := make([]map[string]interface{}, 0, len(s.Entries))
	for _, e := range s.Entries {
		entry := map[string]interface{}{
			"rank":               e.Rank,
			"user_id":            e.UserID,
			"name":               e.Name,
			"codeforces_handle":  e.CodeforcesHandle,
			"solved_count":       e.SolvedCount,
			"total_time_seconds": e.TotalTimeSeconds,
		}
		if e.CodeforcesRank != nil {
			entry["codeforces_rank"] = *e.CodeforcesRank
		}
		if e.CodeforcesRating != nil {
			entry["codeforces_rating"] = *e.CodeforcesRating
		}
		entries = append(entries, entry)
	}

	query := `
		CREATE leaderboard_snapshot CONTENT {
			type: $type,
			period_start: $period_start,
			period_end: $period_end,
			entries: $entries,
			created_on: time::now()
		}
	`
	created, err := queryOne[model.LeaderboardSnapshot](ctx, r.db, query, map[string]interface{}{
		"type":         s.Type,
		"period_start": datetime(s.PeriodStart),
		"period_end":   datetime(s.PeriodEnd),
		"entries":      entries,
	}, nil)
	if err != nil {
		return err
	}
	if created == nil {
		return database.ErrQuery
	}
	*s = *created
	return nil
}

// Latest returns the most recent snapshot of a type
func (r *SnapshotRepository) Latest(ctx context.Context, t model.SnapshotType) (*model.LeaderboardSnapshot, error) {
	query := `SELECT * FROM leaderboard_snapshot WHERE type = $type ORDER BY period_end DESC LIMIT 1`
	snap, err := queryOne[model.LeaderboardSnapshot](ctx, r.db, query, map[string]interface{}{"type": t}, nil)
	if snap != nil && snap.Entries == nil {
		snap.Entries = []model.LeaderboardEntry{}
	}
	return snap, err
}

// ExistsForPeriod reports whether a snapshot of a type already ends at periodEnd
func (r *SnapshotRepository) ExistsForPeriod(ctx context.Context, t model.SnapshotType, periodEnd time.Time) (bool, error) {
	n, err := count(ctx, r.db, "leaderboard_snapshot", "type = $type AND period_end = $period_end",
		map[string]interface{}{"type": t, "period_end": datetime(periodEnd)})
	return n > 0, err
}

// ===== Stats =====

// StatsRepository computes dashboard counts in one round trip
type StatsRepository struct {
	db database.Database
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db database.Database) *StatsRepository {
	return &StatsRepository{db: db}
}

// dashboardTables are counted in this order
var dashboardTables = []string{
	"user", "event", "registration", "form", "form_submission", "blog",
	"comment", "member", "gallery", "cp_problem", "contact_query",
}

// Dashboard returns record counts per table
func (r *StatsRepository) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	stmts := make([]string, 0, len(dashboardTables))
	for _, t := range dashboardTables {
		stmts = append(stmts, "SELECT count() FROM "+t+" GROUP ALL;")
	}
	result, err := r.db.Query(ctx, strings.Join(stmts, "\n"), nil)
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(dashboardTables))
	for i := range dashboardTables {
		if i < len(result) {
			counts[i] = extractCount(result[i])
		}
	}
	return &model.Dashboard{
		Users:         counts[0],
		Events:        counts[1],
		Registrations: counts[2],
		Forms:         counts[3],
		Submissions:   counts[4],
		Blogs:         counts[5],
		Comments:      counts[6],
		Members:       counts[7],
		Galleries:     counts[8],
		Problems:      counts[9],
		Queries:       counts[10],
	}, nil
}
