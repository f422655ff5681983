package status

import (
	"context"

	"workshop/internal/core/apperror"
	"workshop/internal/core/tx"
	"workshop/internal/domain/codebook"
)

// Service provides order status operations and transition checks.
type Service struct {
	*codebook.Service[*Status]
	repo codebook.Repository[*Status]
}

// NewService creates the order status service.
func NewService(repo codebook.Repository[*Status], txm tx.Manager) *Service {
	base := codebook.NewService(Descriptor(), repo, txm)
	return &Service{Service: base, repo: repo}
}

// SeedDefaults plants the default statuses and verifies the resulting
// transition graph is closed.
func (s *Service) SeedDefaults(ctx context.Context) (codebook.ImportStats, error) {
	stats, err := s.Service.SeedDefaults(ctx)
	if err != nil {
		return stats, err
	}

	all, err := s.repo.All(ctx)
	if err != nil {
		return stats, err
	}
	if err := ValidateGraph(all); err != nil {
		return stats, err
	}
	return stats, nil
}

// Get returns a status by code.
func (s *Service) Get(ctx context.Context, code string) (*Status, error) {
	return s.repo.GetByKey(ctx, map[string]any{"code": code})
}

// Initial returns the entry status for new orders: the active
// non-terminal status with no incoming edges, lowest sort order winning.
func (s *Service) Initial(ctx context.Context) (*Status, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	incoming := make(map[string]bool)
	for _, st := range all {
		for _, target := range st.AllowedTransitions {
			incoming[target] = true
		}
	}

	var initial *Status
	for _, st := range all {
		if !st.Active || st.IsTerminal() || incoming[st.Code] {
			continue
		}
		if initial == nil || st.SortOrder < initial.SortOrder {
			initial = st
		}
	}
	if initial == nil {
		return nil, apperror.NewIntegrityViolation("no initial order status configured")
	}
	return initial, nil
}
