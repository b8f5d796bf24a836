// ABOUTME: Job bookkeeping for the server status display
// ABOUTME: Counts processed and failed transforms and keeps the most recent jobs
package server

import (
	"sync"
	"time"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/voicechanger"
)

// JobInfo describes a finished transform for display
type JobInfo struct {
	Filename string
	Request  voicechanger.Request
	Elapsed  time.Duration
	Err      string
}

type jobStats struct {
	mu        sync.Mutex
	processed int
	failed    int
	recent    []JobInfo
	keep      int
}

func newJobStats(keep int) *jobStats {
	return &jobStats{keep: keep}
}

func (j *jobStats) add(info JobInfo) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if info.Err != "" {
		j.failed++
	} else {
		j.processed++
	}
	j.recent = append([]JobInfo{info}, j.recent...)
	if len(j.recent) > j.keep {
		j.recent = j.recent[:j.keep]
	}
}

func (j *jobStats) snapshot() (processed, failed int, recent []JobInfo) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.processed, j.failed, append([]JobInfo(nil), j.recent...)
}

// recordJob tallies a finished transform and refreshes the TUI
func (s *Server) recordJob(filename string, req voicechanger.Request, elapsed time.Duration, err error) {
	info := JobInfo{Filename: filename, Request: req, Elapsed: elapsed}
	if err != nil {
		info.Err = err.Error()
	}
	s.stats.add(info)
	s.updateTUI()
}

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}

	processed, failed, recent := s.stats.snapshot()
	s.tui.Update(ServerStatus{
		Name:      s.config.Name,
		Port:      s.config.Port,
		Engine:    s.config.Engine.String(),
		Processed: processed,
		Failed:    failed,
		Queued:    s.processor.QueueLength(),
		Recent:    recent,
	})
}
