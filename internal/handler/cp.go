package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pclub/portal/api/internal/middleware"
	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/service"
)

// CPService defines the posted-problem operations
type CPService interface {
	PostProblem(ctx context.Context, link string) (*model.CPProblem, bool, error)
	ListProblems(ctx context.Context, activeOnly bool) ([]*model.CPProblem, error)
	GetProblem(ctx context.Context, problemID string) (*model.CPProblem, error)
	SetActive(ctx context.Context, problemID string, active bool) (*model.CPProblem, error)
	SyncSolves(ctx context.Context, userID, problemID string) ([]*model.ProblemSolve, error)
	GetVerdict(ctx context.Context, problemID, handle string) (*model.ProblemSolve, error)
	SolvedBy(ctx context.Context, problemID string) ([]*model.ProblemSolve, error)
	SolvesByHandle(ctx context.Context, handle string) ([]*model.ProblemSolve, error)
}

// LeaderboardService defines the ranking operations
type LeaderboardService interface {
	Leaderboard(ctx context.Context, period service.LeaderboardPeriod) ([]model.LeaderboardEntry, error)
	Rank(ctx context.Context, handle string, period service.LeaderboardPeriod) (*model.LeaderboardEntry, error)
	Latest(ctx context.Context, t model.SnapshotType) (*model.LeaderboardSnapshot, error)
	Snapshot(ctx context.Context, t model.SnapshotType) (*model.LeaderboardSnapshot, bool, error)
}

// CPHandler handles problem and leaderboard endpoints
type CPHandler struct {
	problems    CPService
	leaderboard LeaderboardService
}

// CPHandlerConfig holds the cp handler's dependencies
type CPHandlerConfig struct {
	CPService          CPService
	LeaderboardService LeaderboardService
}

// NewCPHandler creates a new cp handler
func NewCPHandler(cfg CPHandlerConfig) *CPHandler {
	return &CPHandler{
		problems:    cfg.CPService,
		leaderboard: cfg.LeaderboardService,
	}
}

// RegisterRoutes registers problem and leaderboard routes
func (h *CPHandler) RegisterRoutes(mux *http.ServeMux) {
	// Public
	mux.HandleFunc("GET /v1/cp/problems", h.ListProblems)
	mux.HandleFunc("GET /v1/cp/problems/{problemId}", h.GetProblem)
	mux.HandleFunc("GET /v1/cp/problems/{problemId}/solves", h.SolvedBy)
	mux.HandleFunc("GET /v1/cp/problems/{problemId}/verdict/{handle}", h.GetVerdict)
	mux.HandleFunc("GET /v1/cp/handles/{handle}/solves", h.SolvesByHandle)
	mux.HandleFunc("GET /v1/cp/leaderboard", h.Leaderboard)
	mux.HandleFunc("GET /v1/cp/leaderboard/rank/{handle}", h.Rank)
	mux.HandleFunc("GET /v1/cp/leaderboard/snapshots/{type}", h.LatestSnapshot)

	// cp-cym-moderator or admin
	mux.HandleFunc("POST /v1/cp/manage/problems", h.PostProblem)
	mux.HandleFunc("PATCH /v1/cp/manage/problems/{problemId}/active", h.SetActive)
	mux.HandleFunc("POST /v1/cp/manage/leaderboard/snapshots/{type}", h.TakeSnapshot)

	// Any signed-in user
	mux.HandleFunc("POST /v1/users/me/cp/problems/{problemId}/sync", h.SyncSolves)
}

// ===== Problems =====

// ListProblems handles GET /v1/cp/problems?active=true
func (h *CPHandler) ListProblems(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))

	problems, err := h.problems.ListProblems(r.Context(), activeOnly)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if problems == nil {
		problems = []*model.CPProblem{}
	}

	WriteData(w, http.StatusOK, problems)
}

// GetProblem handles GET /v1/cp/problems/{problemId}
func (h *CPHandler) GetProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problems.GetProblem(r.Context(), r.PathValue("problemId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, problem)
}

// PostProblem handles POST /v1/cp/manage/problems. Reposting a known
// problem returns it with 200.
func (h *CPHandler) PostProblem(w http.ResponseWriter, r *http.Request) {
	var req model.PostProblemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	problem, created, err := h.problems.PostProblem(r.Context(), req.Link)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteData(w, status, problem)
}

// SetActive handles PATCH /v1/cp/manage/problems/{problemId}/active
func (h *CPHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req model.SetProblemActiveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	problem, err := h.problems.SetActive(r.Context(), r.PathValue("problemId"), *req.IsActive)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, problem)
}

// ===== Solves =====

// SyncSolves handles POST /v1/users/me/cp/problems/{problemId}/sync
func (h *CPHandler) SyncSolves(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	solves, err := h.problems.SyncSolves(r.Context(), userID, r.PathValue("problemId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, solves)
}

// GetVerdict handles GET /v1/cp/problems/{problemId}/verdict/{handle}
func (h *CPHandler) GetVerdict(w http.ResponseWriter, r *http.Request) {
	solve, err := h.problems.GetVerdict(r.Context(), r.PathValue("problemId"), r.PathValue("handle"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, solve)
}

// SolvedBy handles GET /v1/cp/problems/{problemId}/solves
func (h *CPHandler) SolvedBy(w http.ResponseWriter, r *http.Request) {
	solves, err := h.problems.SolvedBy(r.Context(), r.PathValue("problemId"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, solves)
}

// SolvesByHandle handles GET /v1/cp/handles/{handle}/solves
func (h *CPHandler) SolvesByHandle(w http.ResponseWriter, r *http.Request) {
	solves, err := h.problems.SolvesByHandle(r.Context(), r.PathValue("handle"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if solves == nil {
		solves = []*model.ProblemSolve{}
	}

	WriteData(w, http.StatusOK, solves)
}

// ===== Leaderboard =====

// Leaderboard handles GET /v1/cp/leaderboard?period=overall|weekly|monthly
func (h *CPHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	period, err := service.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	entries, err := h.leaderboard.Leaderboard(r.Context(), period)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}

	WriteData(w, http.StatusOK, entries)
}

// Rank handles GET /v1/cp/leaderboard/rank/{handle}?period=
func (h *CPHandler) Rank(w http.ResponseWriter, r *http.Request) {
	period, err := service.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	entry, err := h.leaderboard.Rank(r.Context(), r.PathValue("handle"), period)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, entry)
}

// snapshotType reads the {type} path value
func snapshotType(r *http.Request) (model.SnapshotType, bool) {
	switch t := model.SnapshotType(r.PathValue("type")); t {
	case model.SnapshotWeekly, model.SnapshotMonthly:
		return t, true
	}
	return "", false
}

// LatestSnapshot handles GET /v1/cp/leaderboard/snapshots/{type}
func (h *CPHandler) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	t, ok := snapshotType(r)
	if !ok {
		WriteServiceError(w, r, service.ErrInvalidPeriod)
		return
	}

	snap, err := h.leaderboard.Latest(r.Context(), t)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, snap)
}

// TakeSnapshot handles POST /v1/cp/manage/leaderboard/snapshots/{type}.
// When the current period is already frozen the existing snapshot is
// returned with 200.
func (h *CPHandler) TakeSnapshot(w http.ResponseWriter, r *http.Request) {
	t, ok := snapshotType(r)
	if !ok {
		WriteServiceError(w, r, service.ErrInvalidPeriod)
		return
	}

	snap, created, err := h.leaderboard.Snapshot(r.Context(), t)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if created {
		WriteData(w, http.StatusCreated, snap)
		return
	}

	snap, err = h.leaderboard.Latest(r.Context(), t)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, snap)
}
