package codebook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/codebook"
	"workshop/internal/domain/codebook/codebooktest"
	"workshop/internal/domain/codebooks/simple"
)

func newUnitService(t *testing.T) (*codebook.Service[*simple.Row], *codebooktest.MemRepo[*simple.Row]) {
	t.Helper()
	repo := codebooktest.NewMemRepo[*simple.Row]("units")
	svc := codebook.NewService(simple.Units(), repo, codebooktest.NopTxManager{})
	return svc, repo
}

func TestSeedDefaults_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, repo := newUnitService(t)

	first, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Imported)
	assert.Equal(t, 0, first.Skipped)

	second, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 5, second.Skipped)
	assert.Equal(t, 5, repo.Len())
}

func TestImportTyped_UpsertByNaturalKey(t *testing.T) {
	ctx := context.Background()
	svc, repo := newUnitService(t)

	_, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)

	rows := []*simple.Row{
		simple.New("pcs", "pieces (renamed)"),
		simple.New("box", "boxes"),
	}

	// Without update-existing the matched row is skipped.
	stats, err := svc.ImportTyped(ctx, rows, codebook.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, 1, stats.Skipped)

	got, err := repo.GetByKey(ctx, map[string]any{"code": "pcs"})
	require.NoError(t, err)
	assert.Equal(t, "pieces", got.Name)

	// With update-existing the matched row is overwritten.
	stats, err = svc.ImportTyped(ctx, rows, codebook.ImportOptions{UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Skipped)

	got, err = repo.GetByKey(ctx, map[string]any{"code": "pcs"})
	require.NoError(t, err)
	assert.Equal(t, "pieces (renamed)", got.Name)
}

func TestImportTyped_CollectsRowErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUnitService(t)

	rows := []*simple.Row{
		simple.New("pcs", "pieces"),
		simple.New("", "nameless code"),
	}

	stats, err := svc.ImportTyped(ctx, rows, codebook.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Imported)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, 2, stats.Errors[0].Row)
}

func TestImportTyped_FailFastAborts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUnitService(t)

	rows := []*simple.Row{
		simple.New("pcs", "pieces"),
		simple.New("", "bad"),
	}

	_, err := svc.ImportTyped(ctx, rows, codebook.ImportOptions{FailFast: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	svc, repo := newUnitService(t)

	row := simple.New("pcs", "pieces")
	require.NoError(t, svc.Create(ctx, row))

	err := svc.Delete(ctx, row.GetID(), false)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConfirmationRequired))
	assert.Equal(t, 1, repo.Len())

	require.NoError(t, svc.Delete(ctx, row.GetID(), true))
	assert.Equal(t, 0, repo.Len())
}

func TestDelete_RefusedWhileReferenced(t *testing.T) {
	ctx := context.Background()
	svc, repo := newUnitService(t)
	repo.InUseFunc = func(row *simple.Row) (bool, string) {
		return row.Code == "pcs", "warehouse_items"
	}

	row := simple.New("pcs", "pieces")
	require.NoError(t, svc.Create(ctx, row))

	err := svc.Delete(ctx, row.GetID(), true)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForeignKeyInUse))
	assert.Equal(t, 1, repo.Len())
}

func TestDeactivate_KeepsRowResolvable(t *testing.T) {
	ctx := context.Background()
	svc, repo := newUnitService(t)

	row := simple.New("pcs", "pieces")
	require.NoError(t, svc.Create(ctx, row))
	require.NoError(t, svc.Deactivate(ctx, row.GetID()))

	got, err := repo.GetByID(ctx, row.GetID())
	require.NoError(t, err)
	assert.False(t, got.IsActive())

	active, err := svc.List(ctx, codebook.ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active.Items)
}

func TestExportRows_StripsSurrogateIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUnitService(t)

	require.NoError(t, svc.Create(ctx, simple.New("pcs", "pieces")))

	rows, err := svc.ExportRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotContains(t, string(rows[0]), `"id"`)
	assert.NotContains(t, string(rows[0]), `"version"`)
	assert.Contains(t, string(rows[0]), `"pcs"`)
}
