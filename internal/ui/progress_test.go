package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_StageTransitions(t *testing.T) {
	p := NewProgressTracker()

	p.SetStage(StageChunks, 8)
	p.Update(3, "chunk-002.json")

	stats := p.Stats()
	assert.Equal(t, StageChunks, stats.Stage)
	assert.Equal(t, 3, stats.Current)
	assert.Equal(t, 8, stats.Total)
	assert.InDelta(t, 0.375, stats.Progress, 0.001)
	assert.Equal(t, "chunk-002.json", stats.Message)

	// Stage change resets the counter.
	p.SetStage(StageIndexing, 0)
	stats = p.Stats()
	assert.Zero(t, stats.Current)
	assert.Zero(t, stats.Progress)
}

func TestProgressTracker_ProgressClamped(t *testing.T) {
	p := NewProgressTracker()
	p.SetStage(StageChunks, 4)
	p.Update(9, "")

	assert.Equal(t, 1.0, p.Stats().Progress)
}

func TestProgressTracker_ErrorCounts(t *testing.T) {
	p := NewProgressTracker()

	p.AddError(ErrorEvent{Err: errors.New("boom")})
	p.AddError(ErrorEvent{Err: errors.New("meh"), IsWarn: true})
	p.AddError(ErrorEvent{Err: errors.New("boom2")})

	stats := p.Stats()
	assert.Equal(t, 2, stats.ErrorCount)
	assert.Equal(t, 1, stats.WarnCount)
	assert.Len(t, p.RecentErrors(), 3)
}

func TestProgressTracker_RecentErrorsBounded(t *testing.T) {
	p := NewProgressTracker()
	for i := 0; i < 10; i++ {
		p.AddError(ErrorEvent{Err: errors.New("x")})
	}
	assert.Len(t, p.RecentErrors(), 5)
}
