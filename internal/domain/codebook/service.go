package codebook

import (
	"context"
	"encoding/json"
	"fmt"

	"workshop/internal/core/apperror"
	"workshop/internal/core/tx"
	"workshop/pkg/logger"
)

// ImportOptions controls how imported rows are applied.
type ImportOptions struct {
	// UpdateExisting overwrites rows matched by natural key. When false
	// such rows are counted as skipped.
	UpdateExisting bool

	// FailFast aborts on the first bad row instead of collecting it in the
	// error list. Envelope restore uses this so one bad row rolls back
	// the whole restore.
	FailFast bool
}

// Service implements codebook operations shared by every parameter table.
type Service[T Row] struct {
	desc  Descriptor[T]
	repo  Repository[T]
	txm   tx.Manager
	hooks *HookRegistry[T]
}

// NewService creates a codebook service.
func NewService[T Row](desc Descriptor[T], repo Repository[T], txm tx.Manager) *Service[T] {
	return &Service[T]{
		desc:  desc,
		repo:  repo,
		txm:   txm,
		hooks: NewHookRegistry[T](),
	}
}

// Name returns the logical codebook name.
func (s *Service[T]) Name() string { return s.desc.Name }

// Hooks exposes the lifecycle hook registry for concrete codebooks.
func (s *Service[T]) Hooks() *HookRegistry[T] { return s.hooks }

// List returns rows matching the filter.
func (s *Service[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter)
}

// GetByID returns one row by surrogate identity.
func (s *Service[T]) GetByID(ctx context.Context, id int64) (T, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByKey returns one row located by natural key conditions.
func (s *Service[T]) GetByKey(ctx context.Context, conds map[string]any) (T, error) {
	return s.repo.GetByKey(ctx, conds)
}

// Create validates and persists a new row.
func (s *Service[T]) Create(ctx context.Context, row T) error {
	if err := row.Validate(ctx); err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeCreate, row); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, row); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, AfterCreate, row); err != nil {
			return err
		}

		logger.Info(ctx, "codebook row created",
			"codebook", s.desc.Name,
			"key", row.NaturalKey(),
			"id", row.GetID(),
		)
		return nil
	})
}

// Update validates and persists changes to an existing row. The repository
// rejects the write when the stored version does not match.
func (s *Service[T]) Update(ctx context.Context, row T) error {
	if err := row.Validate(ctx); err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeUpdate, row); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, row); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, AfterUpdate, row); err != nil {
			return err
		}

		logger.Info(ctx, "codebook row updated",
			"codebook", s.desc.Name,
			"key", row.NaturalKey(),
			"id", row.GetID(),
		)
		return nil
	})
}

// Deactivate clears the active flag. The row stays resolvable for history.
func (s *Service[T]) Deactivate(ctx context.Context, id int64) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SetActive(ctx, id, false)
	})
}

// Activate restores a deactivated row.
func (s *Service[T]) Activate(ctx context.Context, id int64) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SetActive(ctx, id, true)
	})
}

// Delete removes a row permanently. Deletion of a referenced row is refused,
// and the caller must set confirm after an explicit user confirmation.
func (s *Service[T]) Delete(ctx context.Context, id int64, confirm bool) error {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !confirm {
		return apperror.NewConfirmationRequired(
			fmt.Sprintf("deleting %s %q is permanent; deactivate it to keep history", s.desc.Name, row.NaturalKey()))
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inUse, where, err := s.repo.InUse(ctx, row)
		if err != nil {
			return err
		}
		if inUse {
			return apperror.NewForeignKeyInUse(s.desc.Name, row.NaturalKey()).
				WithDetail("referenced_by", where)
		}

		if err := s.hooks.Run(ctx, BeforeDelete, row); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, AfterDelete, row); err != nil {
			return err
		}

		logger.Info(ctx, "codebook row deleted",
			"codebook", s.desc.Name,
			"key", row.NaturalKey(),
			"id", id,
		)
		return nil
	})
}

// SeedDefaults plants the codebook's default rows. Rows already present
// (matched by natural key) are left untouched, so the operation is
// idempotent and safe on a populated database.
func (s *Service[T]) SeedDefaults(ctx context.Context) (ImportStats, error) {
	if s.desc.Seed == nil {
		return ImportStats{}, nil
	}

	var stats ImportStats
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		stats, err = s.applyRows(ctx, s.desc.Seed(), ImportOptions{FailFast: true})
		return err
	})
	if err != nil {
		return ImportStats{}, err
	}

	logger.Info(ctx, "codebook defaults seeded",
		"codebook", s.desc.Name,
		"imported", stats.Imported,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// ImportTyped upserts rows by natural key inside one transaction.
func (s *Service[T]) ImportTyped(ctx context.Context, rows []T, opts ImportOptions) (ImportStats, error) {
	var stats ImportStats
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		stats, err = s.applyRows(ctx, rows, opts)
		return err
	})
	if err != nil {
		return ImportStats{}, err
	}
	return stats, nil
}

// applyRows matches each row by natural key and inserts, updates or skips it.
// Must run inside a transaction.
func (s *Service[T]) applyRows(ctx context.Context, rows []T, opts ImportOptions) (ImportStats, error) {
	var stats ImportStats

	for i, row := range rows {
		if err := s.applyRow(ctx, row, opts.UpdateExisting, &stats); err != nil {
			if opts.FailFast {
				return ImportStats{}, fmt.Errorf("%s row %d (%s): %w", s.desc.Name, i+1, row.NaturalKey(), err)
			}
			stats.Errors = append(stats.Errors, ImportError{
				Row:     i + 1,
				Key:     row.NaturalKey(),
				Message: err.Error(),
			})
		}
	}

	return stats, nil
}

func (s *Service[T]) applyRow(ctx context.Context, row T, updateExisting bool, stats *ImportStats) error {
	if err := row.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.GetByKey(ctx, row.KeyConds())
	switch {
	case err == nil:
		if !updateExisting {
			stats.Skipped++
			return nil
		}
		row.SetID(existing.GetID())
		row.SetVersion(existing.GetVersion())
		if err := s.hooks.Run(ctx, BeforeUpdate, row); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, row); err != nil {
			return err
		}
		stats.Updated++
		return nil

	case apperror.IsNotFound(err):
		if err := s.hooks.Run(ctx, BeforeCreate, row); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, row); err != nil {
			return err
		}
		stats.Imported++
		return nil

	default:
		return err
	}
}

// ExportRows serializes all rows (active and inactive) for the backup
// envelope. Surrogate identity and lock version never leave the database.
func (s *Service[T]) ExportRows(ctx context.Context) ([]json.RawMessage, error) {
	rows, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		raw, err := marshalLogical(row)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", s.desc.Name, row.NaturalKey(), err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// ImportRows decodes envelope rows and upserts them by natural key.
func (s *Service[T]) ImportRows(ctx context.Context, raw []json.RawMessage, opts ImportOptions) (ImportStats, error) {
	rows := make([]T, 0, len(raw))
	for i, r := range raw {
		row := s.desc.New()
		if err := json.Unmarshal(r, row); err != nil {
			if opts.FailFast {
				return ImportStats{}, apperror.NewInvalidInput(
					fmt.Sprintf("%s row %d: %v", s.desc.Name, i+1, err))
			}
			continue
		}
		rows = append(rows, row)
	}
	return s.ImportTyped(ctx, rows, opts)
}

// marshalLogical strips id and version from the JSON rendition so exported
// rows carry only logical columns.
func marshalLogical(row any) (json.RawMessage, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	delete(m, "id")
	delete(m, "version")

	return json.Marshal(m)
}
