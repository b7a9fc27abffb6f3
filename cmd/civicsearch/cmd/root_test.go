package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/civicsearch/internal/config"
	"github.com/opencivic/civicsearch/internal/index"
)

// runCommand executes the CLI with args and returns captured output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeClip creates a minimal archive clip for build tests.
func writeClip(t *testing.T, dir string, id int, title, transcript string) {
	t.Helper()

	clipDir := filepath.Join(dir, "clips", strconv.Itoa(id))
	require.NoError(t, os.MkdirAll(clipDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(clipDir, "transcript.txt"), []byte(transcript), 0o644))

	meta := map[string]any{
		"clip_id":      id,
		"title":        title,
		"date":         "2024-03-12",
		"meeting_body": "City Council",
		"topics":       []string{"budget"},
		"files":        map[string]string{"transcript": "transcript.txt"},
	}
	data, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(
		filepath.Join(clipDir, "metadata.json"), data, 0o644))
}

// writeTestConfig writes a civicsearch.yaml pointing everything at dir.
func writeTestConfig(t *testing.T, dir string) {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Archive.Dir = filepath.Join(dir, "archive")
	cfg.Index.OutputDir = filepath.Join(dir, "archive", "search")
	require.NoError(t, cfg.Save(dir))
}

func TestVersionCommand_Short(t *testing.T) {
	out, err := runCommand(t, "version", "--short")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}

func TestVersionCommand_JSON(t *testing.T) {
	out, err := runCommand(t, "version", "--json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "version")
	assert.Contains(t, decoded, "go_version")
}

func TestInitCommand_WritesConfig(t *testing.T) {
	dir := t.TempDir()

	out, err := runCommand(t, "--config", dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, config.DefaultConfigFilename)
	assert.FileExists(t, filepath.Join(dir, config.DefaultConfigFilename))
}

func TestInitCommand_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	writeTestConfig(t, dir)

	_, err := runCommand(t, "--config", dir, "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, err = runCommand(t, "--config", dir, "init", "--force")
	require.NoError(t, err)
}

func TestBuildCommand_WritesIndex(t *testing.T) {
	dir := t.TempDir()
	writeTestConfig(t, dir)
	writeClip(t, filepath.Join(dir, "archive"), 1, "Budget Hearing",
		"the annual budget was approved")
	writeClip(t, filepath.Join(dir, "archive"), 2, "Road Repaving",
		"price road widening discussion")

	out, err := runCommand(t, "--config", dir, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "2 clips")

	manifestPath := filepath.Join(dir, "archive", "search", index.ManifestFilename)
	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	var m index.Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, 2, m.TotalClips)
	assert.FileExists(t, filepath.Join(dir, "archive", "search", index.ChunkFilename(0)))
}

func TestStatusCommand_ReportsBuiltIndex(t *testing.T) {
	dir := t.TempDir()
	writeTestConfig(t, dir)
	writeClip(t, filepath.Join(dir, "archive"), 1, "Budget Hearing",
		"the annual budget was approved")

	_, err := runCommand(t, "--config", dir, "build")
	require.NoError(t, err)

	out, err := runCommand(t, "--config", dir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "1 clips in 1 chunks")
	assert.Contains(t, out, index.ChunkFilename(0))
}

func TestStatusCommand_MissingIndexIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	writeTestConfig(t, dir)

	out, err := runCommand(t, "--config", dir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No index found")
}

func TestSearchCommand_RequiresURL(t *testing.T) {
	dir := t.TempDir()
	writeTestConfig(t, dir)

	_, err := runCommand(t, "--config", dir, "search", "budget")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--url")
}
