package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer_Progress(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))
	require.NoError(t, r.Start(context.Background()))

	r.UpdateProgress(ProgressEvent{Stage: StageChunks, Current: 2, Total: 5})

	out := buf.String()
	assert.Contains(t, out, "[CHUNKS]")
	assert.Contains(t, out, "2/5")
}

func TestPlainRenderer_ZeroTotalNeedsMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.UpdateProgress(ProgressEvent{Stage: StageManifest})
	assert.Empty(t, buf.String())

	r.UpdateProgress(ProgressEvent{Stage: StageManifest, Message: "fetching manifest"})
	assert.Contains(t, buf.String(), "fetching manifest")
}

func TestPlainRenderer_Errors(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.AddError(ErrorEvent{Name: "chunk-001.json", Err: errors.New("HTTP 503")})
	r.AddError(ErrorEvent{Err: errors.New("clip skipped"), IsWarn: true})

	out := buf.String()
	assert.Contains(t, out, "ERROR: chunk-001.json: HTTP 503")
	assert.Contains(t, out, "WARN: clip skipped")
}

func TestPlainRenderer_Complete(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.Complete(CompletionStats{
		Clips:    120,
		Chunks:   4,
		Duration: 1500 * time.Millisecond,
		Warnings: 2,
	})

	out := buf.String()
	assert.Contains(t, out, "120 clips in 4 chunks")
	assert.Contains(t, out, "2 warnings")
	require.NoError(t, r.Stop())
}
