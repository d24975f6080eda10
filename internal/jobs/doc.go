// Package jobs implements background work that runs outside HTTP requests.
//
// # Jobs
//
//   - LeaderboardSnapshotJob: freezes the weekly leaderboard every 7 days
//     and each calendar month's leaderboard once the month has ended
//
// Each job owns a ticker goroutine with Start, Stop and IsRunning. RunOnce
// performs a single pass and is used by tests and manual triggers:
//
//	job := jobs.NewLeaderboardSnapshotJob(jobs.LeaderboardSnapshotJobConfig{
//	    Snapshots: leaderboardService,
//	})
//	job.Start()
//	defer job.Stop()
//
// Jobs log failures and keep running.
package jobs
