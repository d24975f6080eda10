package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pclub/portal/api/internal/model"
	"github.com/pclub/portal/api/internal/service"
)

var snapshotRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pclub",
		Subsystem: "jobs",
		Name:      "leaderboard_snapshots_total",
		Help:      "Leaderboard snapshot attempts, by type and outcome",
	},
	[]string{"type", "outcome"},
)

// Snapshotter freezes and reads leaderboard snapshots
type Snapshotter interface {
	Snapshot(ctx context.Context, t model.SnapshotType) (*model.LeaderboardSnapshot, bool, error)
	Latest(ctx context.Context, t model.SnapshotType) (*model.LeaderboardSnapshot, error)
}

// LeaderboardSnapshotJob persists a weekly snapshot every 7 days and a
// monthly snapshot of each calendar month once it has ended.
type LeaderboardSnapshotJob struct {
	snapshots Snapshotter
	interval  time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// LeaderboardSnapshotJobConfig holds configuration for the snapshot job
type LeaderboardSnapshotJobConfig struct {
	Snapshots Snapshotter
	Interval  time.Duration    // Default: 1 hour
	Now       func() time.Time // Default: time.Now
}

// NewLeaderboardSnapshotJob creates a new snapshot job
func NewLeaderboardSnapshotJob(cfg LeaderboardSnapshotJobConfig) *LeaderboardSnapshotJob {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &LeaderboardSnapshotJob{
		snapshots: cfg.Snapshots,
		interval:  cfg.Interval,
		now:       cfg.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins checking on the configured interval
func (j *LeaderboardSnapshotJob) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	slog.Info("leaderboard snapshot job started", slog.Duration("interval", j.interval))
}

// Stop gracefully stops the job
func (j *LeaderboardSnapshotJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	slog.Info("leaderboard snapshot job stopped")
}

// IsRunning returns whether the job is running
func (j *LeaderboardSnapshotJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *LeaderboardSnapshotJob) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.checkAndRun()

	for {
		select {
		case <-ticker.C:
			j.checkAndRun()
		case <-j.stopCh:
			return
		}
	}
}

func (j *LeaderboardSnapshotJob) checkAndRun() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := j.RunOnce(ctx); err != nil {
		slog.Error("leaderboard snapshot failed", slog.String("error", err.Error()))
	}
}

// RunOnce takes whichever snapshots are due (for manual trigger or testing).
// Snapshots are idempotent per period, so repeated runs are harmless.
func (j *LeaderboardSnapshotJob) RunOnce(ctx context.Context) error {
	now := j.now().UTC()
	var errs []error

	for _, t := range []model.SnapshotType{model.SnapshotWeekly, model.SnapshotMonthly} {
		due, err := j.due(ctx, t, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if due {
			errs = append(errs, j.take(ctx, t))
		}
	}

	return errors.Join(errs...)
}

// due reports whether a snapshot of type t should be taken at now. Weekly
// is due 7 days after the last period end; monthly once the last snapshot
// ends before the current month starts. Either is due when none exists.
func (j *LeaderboardSnapshotJob) due(ctx context.Context, t model.SnapshotType, now time.Time) (bool, error) {
	latest, err := j.snapshots.Latest(ctx, t)
	if errors.Is(err, service.ErrSnapshotNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if t == model.SnapshotMonthly {
		return latest.PeriodEnd.Before(monthStart(now)), nil
	}
	return !now.Before(latest.PeriodEnd.AddDate(0, 0, 7)), nil
}

func (j *LeaderboardSnapshotJob) take(ctx context.Context, t model.SnapshotType) error {
	snap, created, err := j.snapshots.Snapshot(ctx, t)
	switch {
	case err != nil:
		snapshotRuns.WithLabelValues(string(t), "error").Inc()
		return err
	case !created:
		snapshotRuns.WithLabelValues(string(t), "exists").Inc()
		return nil
	}

	snapshotRuns.WithLabelValues(string(t), "created").Inc()
	slog.Info("leaderboard snapshot saved",
		slog.String("type", string(t)),
		slog.Time("period_start", snap.PeriodStart),
		slog.Time("period_end", snap.PeriodEnd),
		slog.Int("entries", len(snap.Entries)),
	)
	return nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
