package codebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"workshop/internal/core/apperror"
	"workshop/internal/core/tx"
	"workshop/pkg/logger"
)

// EnvelopeVersion is the current backup format version (semver).
const EnvelopeVersion = "1.0.0"

// Envelope is the backup container for all codebooks.
type Envelope struct {
	Version   string                       `json:"version"`
	Timestamp time.Time                    `json:"timestamp"`
	Codebooks map[string][]json.RawMessage `json:"codebooks"`
}

// Backup exports and imports whole-registry envelopes.
type Backup struct {
	registry *Registry
	txm      tx.Manager
}

// NewBackup creates the backup service over a registry.
func NewBackup(registry *Registry, txm tx.Manager) *Backup {
	return &Backup{registry: registry, txm: txm}
}

// ExportAll captures every registered codebook into one envelope. The read
// runs in a single transaction so the snapshot is consistent.
func (b *Backup) ExportAll(ctx context.Context) (*Envelope, error) {
	env := &Envelope{
		Version:   EnvelopeVersion,
		Timestamp: time.Now().UTC(),
		Codebooks: make(map[string][]json.RawMessage),
	}

	err := b.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, h := range b.registry.All() {
			rows, err := h.ExportRows(ctx)
			if err != nil {
				return fmt.Errorf("export %s: %w", h.Name(), err)
			}
			env.Codebooks[h.Name()] = rows
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return env, nil
}

// ImportAll restores an envelope in one transaction. Any bad row rolls back
// the whole restore, the returned error names the codebook and natural key.
// Rows are upserted by natural key, so restoring over live data updates
// matching rows instead of duplicating them.
func (b *Backup) ImportAll(ctx context.Context, env *Envelope) (map[string]ImportStats, error) {
	if majorOf(env.Version) != majorOf(EnvelopeVersion) {
		return nil, apperror.NewInvalidInput(
			fmt.Sprintf("unsupported envelope version %q, want %s", env.Version, EnvelopeVersion))
	}

	stats := make(map[string]ImportStats)
	err := b.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		// Registration order resolves cross-codebook references.
		for _, h := range b.registry.All() {
			rows, ok := env.Codebooks[h.Name()]
			if !ok {
				continue
			}
			st, err := h.ImportRows(ctx, rows, ImportOptions{UpdateExisting: true, FailFast: true})
			if err != nil {
				return err
			}
			stats[h.Name()] = st
		}

		for name := range env.Codebooks {
			if _, err := b.registry.Get(name); err != nil {
				return apperror.NewInvalidInput(fmt.Sprintf("envelope contains unknown codebook %q", name))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "envelope restored", "codebooks", len(stats))
	return stats, nil
}

// majorOf extracts the semver major component.
func majorOf(version string) string {
	if i := strings.IndexByte(version, '.'); i >= 0 {
		return version[:i]
	}
	return version
}

// WriteFile serializes the envelope to path. A ".zst" suffix selects
// zstd compression, anything else writes plain JSON.
func (b *Backup) WriteFile(ctx context.Context, path string) error {
	env, err := b.ExportAll(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	var zw *zstd.Encoder
	if strings.HasSuffix(path, ".zst") {
		zw, err = zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("init compressor: %w", err)
		}
		w = zw
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("finish compression: %w", err)
		}
	}
	return f.Sync()
}

// ReadFile restores an envelope from path, transparently decompressing
// ".zst" files.
func (b *Backup) ReadFile(ctx context.Context, path string) (map[string]ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("init decompressor: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, apperror.NewInvalidInput("backup file is not a valid envelope").WithCause(err)
	}

	return b.ImportAll(ctx, &env)
}
