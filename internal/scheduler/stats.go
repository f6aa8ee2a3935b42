package scheduler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// runSummary is one completed run's outcome, grounded on the teacher's
// APIStats.Summary formatting (internal/api/stats.go).
type runSummary struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Success    int
	Failed     int
	Err        error
}

// RunStats tracks outcomes across export runs in memory for the summary
// logged after each run, the way APIStats tracks GraphQL call stats.
type RunStats struct {
	mu      sync.RWMutex
	history []runSummary
	maxKept int
}

// NewRunStats returns a RunStats retaining the most recent maxKept runs.
func NewRunStats(maxKept int) *RunStats {
	if maxKept <= 0 {
		maxKept = 20
	}
	return &RunStats{maxKept: maxKept}
}

// Record appends a completed run's outcome, trimming the oldest entry once
// maxKept is exceeded.
func (s *RunStats) Record(runID string, started time.Time, success, failed int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, runSummary{
		RunID:     runID,
		StartedAt: started,
		Duration:  time.Since(started),
		Success:   success,
		Failed:    failed,
		Err:       err,
	})
	if len(s.history) > s.maxKept {
		s.history = s.history[len(s.history)-s.maxKept:]
	}
}

// Last returns the most recent run summary, if any.
func (s *RunStats) Last() (runID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return "", false
	}
	return s.history[len(s.history)-1].RunID, true
}

// Summary renders a human-readable report of recent runs, in the
// teacher's "[TAG] summary line" style (internal/api/stats.go Summary).
func (s *RunStats) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return "[export-stats] no runs yet\n"
	}

	var sb strings.Builder
	totalSuccess, totalFailed := 0, 0
	for _, r := range s.history {
		totalSuccess += r.Success
		totalFailed += r.Failed
	}
	sb.WriteString(fmt.Sprintf("[export-stats] %s runs | %s exported | %s failed\n",
		humanize.Comma(int64(len(s.history))), humanize.Comma(int64(totalSuccess)), humanize.Comma(int64(totalFailed))))

	last := s.history[len(s.history)-1]
	status := "ok"
	if last.Err != nil {
		status = last.Err.Error()
	}
	sb.WriteString(fmt.Sprintf("  last run %s: %s ago, took %s, success=%d failed=%d (%s)\n",
		last.RunID, humanize.Time(last.StartedAt), last.Duration.Round(time.Millisecond), last.Success, last.Failed, status))
	return sb.String()
}
