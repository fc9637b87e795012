package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	recs := make([]domain.ImportRecord, 5)
	batches := chunk(recs, 2)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[2], 1)

	assert.Len(t, chunk(recs, 0), 1)
	assert.Len(t, chunk(recs, 10), 1)
}

func TestImportCommand_DryRun(t *testing.T) {
	t.Setenv("TOPICGRAPH_ENV", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("NEO4J_URI", "")
	t.Setenv("TOPIC_STORE", "")
	t.Setenv("DEFAULT_ASSOCIATIONS", "")
	t.Setenv("LOG_LEVEL", "error")

	dir := t.TempDir()
	path := filepath.Join(dir, "cities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- id: oslo
  title: Oslo
  links:
    part_of: [Norway]
- title: Bergen
  colour: grey
`), 0o644))

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"import", "--dry-run", path})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "dry run: 1 ok, 1 warned, 0 skipped, 0 failed")
	assert.Contains(t, out.String(), "WARN  #1 Bergen [colour]")
}

func TestImportCommand_MissingFile(t *testing.T) {
	t.Setenv("TOPICGRAPH_ENV", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("NEO4J_URI", "")
	t.Setenv("TOPIC_STORE", "")
	t.Setenv("DEFAULT_ASSOCIATIONS", "")

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"import", filepath.Join(t.TempDir(), "nope.json")})
	assert.Error(t, cmd.Execute())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "topicctl")
}
