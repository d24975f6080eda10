package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/service"
)

type mockCPService struct {
	postProblemFunc func(ctx context.Context, link string) (*model.CPProblem, bool, error)
	syncSolvesFunc  func(ctx context.Context, userID, problemID string) ([]*model.ProblemSolve, error)
}

func (m *mockCPService) PostProblem(ctx context.Context, link string) (*model.CPProblem, bool, error) {
	if m.postProblemFunc != nil {
		return m.postProblemFunc(ctx, link)
	}
	return nil, false, nil
}

func (m *mockCPService) ListProblems(context.Context, bool) ([]*model.CPProblem, error) {
	return nil, nil
}

func (m *mockCPService) GetProblem(context.Context, string) (*model.CPProblem, error) {
	return nil, service.ErrProblemNotFound
}

func (m *mockCPService) SetActive(context.Context, string, bool) (*model.CPProblem, error) {
	return nil, nil
}

func (m *mockCPService) SyncSolves(ctx context.Context, userID, problemID string) ([]*model.ProblemSolve, error) {
	if m.syncSolvesFunc != nil {
		return m.syncSolvesFunc(ctx, userID, problemID)
	}
	return nil, nil
}

func (m *mockCPService) GetVerdict(context.Context, string, string) (*model.ProblemSolve, error) {
	return nil, service.ErrNotSolved
}

func (m *mockCPService) SolvedBy(context.Context, string) ([]*model.ProblemSolve, error) {
	return []*model.ProblemSolve{}, nil
}

func (m *mockCPService) SolvesByHandle(context.Context, string) ([]*model.ProblemSolve, error) {
	return nil, nil
}

type mockLeaderboardService struct {
	leaderboardFunc func(ctx context.Context, period service.LeaderboardPeriod) ([]model.LeaderboardEntry, error)
	latestFunc      func(ctx context.Context, t model.SnapshotType) (*model.LeaderboardSnapshot, error)
	snapshotFunc    func(ctx context.Context, t model.SnapshotType) (*model.LeaderboardSnapshot, bool, error)
}

func (m *mockLeaderboardService) Leaderboard(ctx context.Context, period service.LeaderboardPeriod) ([]model.LeaderboardEntry, error) {
	if m.leaderboardFunc != nil {
		return m.leaderboardFunc(ctx, period)
	}
	return nil, nil
}

func (m *mockLeaderboardService) Rank(context.Context, string, service.LeaderboardPeriod) (*model.LeaderboardEntry, error) {
	return nil, service.ErrNotRanked
}

func (m *mockLeaderboardService) Latest(ctx context.Context, t model.SnapshotType) (*model.LeaderboardSnapshot, error) {
	if m.latestFunc != nil {
		return m.latestFunc(ctx, t)
	}
	return nil, service.ErrSnapshotNotFound
}

func (m *mockLeaderboardService) Snapshot(ctx context.Context, t model.SnapshotType) (*model.LeaderboardSnapshot, bool, error) {
	if m.snapshotFunc != nil {
		return m.snapshotFunc(ctx, t)
	}
	return nil, false, nil
}

func newCPHandler(cp *mockCPService, lb *mockLeaderboardService) *CPHandler {
	if cp == nil {
		cp = &mockCPService{}
	}
	if lb == nil {
		lb = &mockLeaderboardService{}
	}
	return NewCPHandler(CPHandlerConfig{CPService: cp, LeaderboardService: lb})
}

func TestPostProblem_CreatedVersusExisting(t *testing.T) {
	t.Parallel()

	for _, created := range []bool{true, false} {
		h := newCPHandler(&mockCPService{
			postProblemFunc: func(_ context.Context, link string) (*model.CPProblem, bool, error) {
				return &model.CPProblem{ProblemID: "1408-A", Link: link}, created, nil
			},
		}, nil)
		req := makeJSONRequest(http.MethodPost, "/v1/cp/manage/problems",
			map[string]string{"link": "https://codeforces.com/contest/1408/problem/A"})
		rr := serve(h.RegisterRoutes, req)

		want := http.StatusOK
		if created {
			want = http.StatusCreated
		}
		assert.Equal(t, want, rr.Code, "created=%v", created)
	}
}

func TestLeaderboard_Period(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query      string
		wantPeriod service.LeaderboardPeriod
		wantStatus int
	}{
		{"", service.PeriodOverall, http.StatusOK},
		{"?period=weekly", service.PeriodWeekly, http.StatusOK},
		{"?period=MONTHLY", service.PeriodMonthly, http.StatusOK},
		{"?period=yearly", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()

			var got service.LeaderboardPeriod
			h := newCPHandler(nil, &mockLeaderboardService{
				leaderboardFunc: func(_ context.Context, p service.LeaderboardPeriod) ([]model.LeaderboardEntry, error) {
					got = p
					return nil, nil
				},
			})
			rr := serve(h.RegisterRoutes, httptest.NewRequest(http.MethodGet, "/v1/cp/leaderboard"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantPeriod, got)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, rr.Body.String(), `"data":[]`)
			}
		})
	}
}

func TestLatestSnapshot_UnknownType_ReturnsBadRequest(t *testing.T) {
	t.Parallel()

	h := newCPHandler(nil, nil)
	rr := serve(h.RegisterRoutes, httptest.NewRequest(http.MethodGet, "/v1/cp/leaderboard/snapshots/daily", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLatestSnapshot_NoneYet_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	h := newCPHandler(nil, nil)
	rr := serve(h.RegisterRoutes, httptest.NewRequest(http.MethodGet, "/v1/cp/leaderboard/snapshots/weekly", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTakeSnapshot_AlreadyTaken_ReturnsLatest(t *testing.T) {
	t.Parallel()

	existing := &model.LeaderboardSnapshot{ID: "weekly_1", Type: model.SnapshotWeekly, PeriodEnd: time.Now()}
	h := newCPHandler(nil, &mockLeaderboardService{
		snapshotFunc: func(context.Context, model.SnapshotType) (*model.LeaderboardSnapshot, bool, error) {
			return nil, false, nil
		},
		latestFunc: func(context.Context, model.SnapshotType) (*model.LeaderboardSnapshot, error) {
			return existing, nil
		},
	})
	rr := serve(h.RegisterRoutes, httptest.NewRequest(http.MethodPost, "/v1/cp/manage/leaderboard/snapshots/weekly", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var snap model.LeaderboardSnapshot
	parseDataResponse(t, rr.Body.Bytes(), &snap)
	assert.Equal(t, "weekly_1", snap.ID)
}

func TestSyncSolves_NoHandle_ReturnsBadRequest(t *testing.T) {
	t.Parallel()

	h := newCPHandler(&mockCPService{
		syncSolvesFunc: func(_ context.Context, userID, problemID string) ([]*model.ProblemSolve, error) {
			assert.Equal(t, "user:123", userID)
			assert.Equal(t, "1408A", problemID)
			return nil, service.ErrNoHandleLinked
		},
	}, nil)
	req := withUserContext(httptest.NewRequest(http.MethodPost, "/v1/users/me/cp/problems/1408A/sync", nil), "user:123")
	rr := serve(h.RegisterRoutes, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
