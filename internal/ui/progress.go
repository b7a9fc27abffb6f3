package ui

import (
	"sync"
	"time"
)

// ProgressTracker manages progress state across pipeline stages.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu         sync.RWMutex
	stage      Stage
	current    int
	total      int
	message    string
	startTime  time.Time
	errCount   int
	warnCount  int
	lastErrors []ErrorEvent
}

// ProgressStats is a snapshot of current progress.
type ProgressStats struct {
	Stage      Stage
	Current    int
	Total      int
	Progress   float64
	Message    string
	Elapsed    time.Duration
	ErrorCount int
	WarnCount  int
}

// NewProgressTracker creates a tracker starting at StageManifest.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		stage:     StageManifest,
		startTime: time.Now(),
	}
}

// SetStage transitions to a new stage, resetting the counter.
func (p *ProgressTracker) SetStage(stage Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = stage
	p.total = total
	p.current = 0
	p.message = ""
}

// Update updates progress within the current stage.
func (p *ProgressTracker) Update(current int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	if message != "" {
		p.message = message
	}
}

// AddError records an error or warning.
func (p *ProgressTracker) AddError(event ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.IsWarn {
		p.warnCount++
	} else {
		p.errCount++
	}
	p.lastErrors = append(p.lastErrors, event)
	if len(p.lastErrors) > 5 {
		p.lastErrors = p.lastErrors[1:]
	}
}

// Stats returns a snapshot of the current state.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var progress float64
	if p.total > 0 {
		progress = float64(p.current) / float64(p.total)
		if progress > 1 {
			progress = 1
		}
	}
	return ProgressStats{
		Stage:      p.stage,
		Current:    p.current,
		Total:      p.total,
		Progress:   progress,
		Message:    p.message,
		Elapsed:    time.Since(p.startTime),
		ErrorCount: p.errCount,
		WarnCount:  p.warnCount,
	}
}

// RecentErrors returns the most recent errors, oldest first.
func (p *ProgressTracker) RecentErrors() []ErrorEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ErrorEvent, len(p.lastErrors))
	copy(out, p.lastErrors)
	return out
}
