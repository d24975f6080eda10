package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pclub/portal/api/internal/codeforces"
	"github.com/pclub/portal/api/internal/model"
)

// CPRepository defines the interface for problem and solve storage
type CPRepository interface {
	CreateProblem(ctx context.Context, p *model.CPProblem) error
	GetProblem(ctx context.Context, problemID string) (*model.CPProblem, error)
	ListProblems(ctx context.Context, activeOnly bool) ([]*model.CPProblem, error)
	SetProblemActive(ctx context.Context, problemID string, active bool) (*model.CPProblem, error)
	UpsertSolve(ctx context.Context, s *model.ProblemSolve) error
	ListSolves(ctx context.Context, problemID string) ([]*model.ProblemSolve, error)
	SolvesByHandle(ctx context.Context, handle string) ([]*model.ProblemSolve, error)
	EarliestAccepted(ctx context.Context, problemID, handle string) (*model.ProblemSolve, error)
	AcceptedSolves(ctx context.Context, since time.Time) ([]*model.ProblemSolve, error)
}

// CPService handles the practice gym: posted problems and their solves
type CPService struct {
	repo     CPRepository
	userRepo UserReader
	cf       CodeforcesAPI
}

// CPServiceConfig holds configuration for the CP service
type CPServiceConfig struct {
	Repo       CPRepository
	UserRepo   UserReader
	Codeforces CodeforcesAPI
}

// NewCPService creates a new CP service
func NewCPService(cfg CPServiceConfig) *CPService {
	return &CPService{
		repo:     cfg.Repo,
		userRepo: cfg.UserRepo,
		cf:       cfg.Codeforces,
	}
}

// PostProblem adds the problem behind a Codeforces link to the gym. A
// problem that is already posted is returned unchanged with created false.
func (s *CPService) PostProblem(ctx context.Context, link string) (*model.CPProblem, bool, error) {
	ref, err := codeforces.ParseProblemLink(link)
	if err != nil {
		return nil, false, ErrInvalidProblemLink
	}

	existing, err := s.repo.GetProblem(ctx, ref.ID())
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	problem, err := s.cf.FindProblem(ctx, ref.ContestID, ref.Index)
	if err != nil {
		if errors.Is(err, codeforces.ErrNotFound) {
			return nil, false, ErrProblemNotFound
		}
		return nil, false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	p := &model.CPProblem{
		ProblemID: ref.ID(),
		ContestID: ref.ContestID,
		Title:     problem.Name,
		Link:      link,
	}
	if err := s.repo.CreateProblem(ctx, p); err != nil {
		if isDuplicate(err) {
			// Lost a race with a concurrent post of the same problem.
			existing, getErr := s.repo.GetProblem(ctx, ref.ID())
			if getErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return p, true, nil
}

// ListProblems returns posted problems, newest first
func (s *CPService) ListProblems(ctx context.Context, activeOnly bool) ([]*model.CPProblem, error) {
	return s.repo.ListProblems(ctx, activeOnly)
}

// GetProblem returns a posted problem by "<contest>-<index>" or "<contest><index>"
func (s *CPService) GetProblem(ctx context.Context, problemID string) (*model.CPProblem, error) {
	ref, err := codeforces.ParseProblemID(problemID)
	if err != nil {
		return nil, ErrProblemNotFound
	}
	p, err := s.repo.GetProblem(ctx, ref.ID())
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProblemNotFound
	}
	return p, nil
}

// SetActive includes or excludes a problem from the leaderboard
func (s *CPService) SetActive(ctx context.Context, problemID string, active bool) (*model.CPProblem, error) {
	p, err := s.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.SetProblemActive(ctx, p.ProblemID, active)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrProblemNotFound
	}
	return updated, nil
}

// SyncSolves pulls the user's submissions on a posted problem from
// Codeforces and records those made after the problem was posted. It
// returns the recorded submissions, oldest first.
func (s *CPService) SyncSolves(ctx context.Context, userID, problemID string) ([]*model.ProblemSolve, error) {
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
	handle := *user.CodeforcesHandle

	problem, err := s.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	ref, err := codeforces.ParseProblemID(problem.ProblemID)
	if err != nil {
		return nil, ErrProblemNotFound
	}

	subs, err := s.cf.ContestStatus(ctx, ref.ContestID, handle)
	if err != nil {
		if errors.Is(err, codeforces.ErrNotFound) {
			return nil, ErrHandleNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var saved []*model.ProblemSolve
	for i := len(subs) - 1; i >= 0; i-- {
		sub := subs[i]
		if sub.Problem.Index != ref.Index || !sub.CreatedAt().After(problem.PostedAt) {
			continue
		}
		solve := &model.ProblemSolve{
			UserID:           user.ID,
			CodeforcesHandle: handle,
			ProblemID:        problem.ProblemID,
			SubmissionID:     sub.ID,
			Verdict:          sub.Verdict,
			SolvedAt:         sub.CreatedAt().UTC(),
		}
		if err := s.repo.UpsertSolve(ctx, solve); err != nil {
			slog.Warn("failed to record submission",
				slog.Int64("submission_id", sub.ID),
				slog.String("problem_id", problem.ProblemID),
				slog.String("error", err.Error()),
			)
			continue
		}
		saved = append(saved, solve)
	}
	if saved == nil {
		saved = []*model.ProblemSolve{}
	}
	return saved, nil
}

// GetVerdict returns the handle's earliest accepted solve of a problem
func (s *CPService) GetVerdict(ctx context.Context, problemID, handle string) (*model.ProblemSolve, error) {
	p, err := s.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	solve, err := s.repo.EarliestAccepted(ctx, p.ProblemID, handle)
	if err != nil {
		return nil, err
	}
	if solve == nil {
		return nil, ErrNotSolved
	}
	return solve, nil
}

// SolvedBy returns accepted solves of a problem, most recent first
func (s *CPService) SolvedBy(ctx context.Context, problemID string) ([]*model.ProblemSolve, error) {
	p, err := s.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	solves, err := s.repo.ListSolves(ctx, p.ProblemID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.ProblemSolve, 0, len(solves))
	for i := len(solves) - 1; i >= 0; i-- {
		if solves[i].Verdict == codeforces.VerdictOK {
			out = append(out, solves[i])
		}
	}
	return out, nil
}

// SolvesByHandle returns every recorded submission of a handle
func (s *CPService) SolvesByHandle(ctx context.Context, handle string) ([]*model.ProblemSolve, error) {
	return s.repo.SolvesByHandle(ctx, handle)
}
