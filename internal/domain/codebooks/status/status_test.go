package status_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/codebook/codebooktest"
	"workshop/internal/domain/codebooks/status"
)

func newService(t *testing.T) *status.Service {
	t.Helper()
	repo := codebooktest.NewMemRepo[*status.Status]("order_statuses")
	svc := status.NewService(repo, codebooktest.NopTxManager{})
	_, err := svc.SeedDefaults(context.Background())
	require.NoError(t, err)
	return svc
}

func TestSeed_GraphIsClosed(t *testing.T) {
	svc := newService(t)

	prepared, err := svc.Get(context.Background(), status.Prepared)
	require.NoError(t, err)
	assert.True(t, prepared.CanTransitionTo(status.InWork))
	assert.False(t, prepared.CanTransitionTo(status.Paid))
	assert.False(t, prepared.IsTerminal())
}

func TestSeed_DefaultWiring(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	walk := []struct{ from, to string }{
		{status.Prepared, status.InWork},
		{status.InWork, status.Waiting},
		{status.Waiting, status.InWork},
		{status.InWork, status.Done},
		{status.Done, status.Invoiced},
		{status.Invoiced, status.Paid},
	}
	for _, step := range walk {
		from, err := svc.Get(ctx, step.from)
		require.NoError(t, err)
		assert.True(t, from.CanTransitionTo(step.to), "%s -> %s", step.from, step.to)
	}

	for _, terminal := range []string{status.Paid, status.Cancelled} {
		s, err := svc.Get(ctx, terminal)
		require.NoError(t, err)
		assert.True(t, s.IsTerminal(), terminal)
	}

	done, err := svc.Get(ctx, status.Done)
	require.NoError(t, err)
	assert.True(t, done.NotifyCustomer)
}

func TestValidateGraph_UnknownTarget(t *testing.T) {
	a := status.New("a", "A")
	a.AllowedTransitions = []string{"ghost"}

	err := status.ValidateGraph([]*status.Status{a})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeIntegrityViolation))
}

func TestValidate_SelfTransitionRejected(t *testing.T) {
	a := status.New("a", "A")
	a.AllowedTransitions = []string{"a"}

	err := a.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}
