package codebook_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/domain/codebook"
	"workshop/internal/domain/codebook/codebooktest"
	"workshop/internal/domain/codebooks/simple"
)

func newBackupFixture(t *testing.T) (*codebook.Backup, *codebook.Registry, map[string]*codebooktest.MemRepo[*simple.Row]) {
	t.Helper()

	registry := codebook.NewRegistry()
	repos := make(map[string]*codebooktest.MemRepo[*simple.Row])
	for _, desc := range []codebook.Descriptor[*simple.Row]{simple.Units(), simple.Brands()} {
		repo := codebooktest.NewMemRepo[*simple.Row](desc.Table)
		repos[desc.Name] = repo
		registry.Register(codebook.NewService(desc, repo, codebooktest.NopTxManager{}))
	}

	return codebook.NewBackup(registry, codebooktest.NopTxManager{}), registry, repos
}

func TestEnvelope_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backup, registry, _ := newBackupFixture(t)

	for _, h := range registry.All() {
		_, err := h.SeedDefaults(ctx)
		require.NoError(t, err)
	}

	env, err := backup.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, codebook.EnvelopeVersion, env.Version)
	assert.Len(t, env.Codebooks["unit"], 5)
	assert.NotEmpty(t, env.Codebooks["brand"])

	// Restore into a fresh registry.
	backup2, _, repos2 := newBackupFixture(t)
	stats, err := backup2.ImportAll(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, 5, stats["unit"].Imported)
	assert.Equal(t, 5, repos2["unit"].Len())

	// Restoring again over live data updates, never duplicates.
	stats, err = backup2.ImportAll(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, 0, stats["unit"].Imported)
	assert.Equal(t, 5, stats["unit"].Updated)
	assert.Equal(t, 5, repos2["unit"].Len())
}

func TestImportAll_RejectsUnknownVersion(t *testing.T) {
	ctx := context.Background()
	backup, _, _ := newBackupFixture(t)

	_, err := backup.ImportAll(ctx, &codebook.Envelope{Version: "99.0.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestImportAll_ErrorNamesCodebookAndKey(t *testing.T) {
	ctx := context.Background()
	backup, registry, _ := newBackupFixture(t)

	for _, h := range registry.All() {
		_, err := h.SeedDefaults(ctx)
		require.NoError(t, err)
	}
	env, err := backup.ExportAll(ctx)
	require.NoError(t, err)

	// Corrupt one unit row.
	env.Codebooks["unit"][0] = []byte(`{"code":"","name":""}`)

	backup2, _, _ := newBackupFixture(t)
	_, err = backup2.ImportAll(ctx, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unit")
	assert.Contains(t, err.Error(), "row 1")
}

func TestBackupFile_RoundTripCompressed(t *testing.T) {
	ctx := context.Background()
	backup, registry, _ := newBackupFixture(t)

	for _, h := range registry.All() {
		_, err := h.SeedDefaults(ctx)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "backup.json.zst")
	require.NoError(t, backup.WriteFile(ctx, path))

	backup2, _, repos2 := newBackupFixture(t)
	stats, err := backup2.ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 5, stats["unit"].Imported)
	assert.Equal(t, 5, repos2["unit"].Len())
}
