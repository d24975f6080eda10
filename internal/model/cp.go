package model

import (
	"strings"
	"time"
)

// CPProblem is a Codeforces problem posted to the club's practice gym
type CPProblem struct {
	ID        string    `json:"id"`
	ProblemID string    `json:"problem_id"` // "<contest>-<index>"
	ContestID int       `json:"contest_id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	PostedAt  time.Time `json:"posted_at"`
	IsActive  bool      `json:"is_active"`
}

// ProblemSolve is a judged submission by a portal user on a posted problem
type ProblemSolve struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	CodeforcesHandle string    `json:"codeforces_handle"`
	ProblemID        string    `json:"problem_id"`
	SubmissionID     int64     `json:"submission_id"`
	Verdict          string    `json:"verdict"`
	SolvedAt         time.Time `json:"solved_at"`
}

// NormalizeProblemID strips separators so "1408-A" and "1408A" compare equal
func NormalizeProblemID(id string) string {
	return strings.ToUpper(strings.ReplaceAll(id, "-", ""))
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank             int     `json:"rank"`
	UserID           string  `json:"user_id"`
	Name             string  `json:"name,omitempty"`
	CodeforcesHandle string  `json:"codeforces_handle"`
	SolvedCount      int     `json:"solved_count"`
	TotalTimeSeconds int64   `json:"total_time_seconds"`
	CodeforcesRank   *string `json:"codeforces_rank,omitempty"`
	CodeforcesRating *int    `json:"codeforces_rating,omitempty"`
}

// SnapshotType is the period a leaderboard snapshot covers
type SnapshotType string

const (
	SnapshotWeekly  SnapshotType = "weekly"
	SnapshotMonthly SnapshotType = "monthly"
)

// LeaderboardSnapshot freezes a leaderboard for a period
type LeaderboardSnapshot struct {
	ID          string             `json:"id"`
	Type        SnapshotType       `json:"type"`
	PeriodStart time.Time          `json:"period_start"`
	PeriodEnd   time.Time          `json:"period_end"`
	Entries     []LeaderboardEntry `json:"entries"`
	CreatedOn   time.Time          `json:"created_on"`
}

// HandleVerification is the pending state kept in the cache while a user
// proves ownership of a Codeforces handle.
type HandleVerification struct {
	Handle    string    `json:"handle"`
	UserID    string    `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
}

// VerificationChallenge tells the user what to submit
type VerificationChallenge struct {
	Handle       string    `json:"handle"`
	ProblemLink  string    `json:"problem_link"`
	Instructions string    `json:"instructions"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type PostProblemRequest struct {
	Link string `json:"link" validate:"required,url"`
}

func (r *PostProblemRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

type SetProblemActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (r *SetProblemActiveRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

type StartVerificationRequest struct {
	Handle string `json:"handle" validate:"required,max=24"`
}

func (r *StartVerificationRequest) Validate() []FieldError {
	r.Handle = strings.TrimSpace(r.Handle)
	return ValidateStruct(r)
}
