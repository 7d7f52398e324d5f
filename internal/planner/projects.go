package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/dori/planner/internal/db"
	"github.com/dori/planner/internal/model"
)

// CreateProject stores a project for the owner. Names need not be unique.
func (s *Service) CreateProject(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, invalid("name", "must not be empty")
	}

	id, err := s.store.CreateProject(ctx, name, s.owner)
	if err != nil {
		return 0, fmt.Errorf("create project: %w", err)
	}
	s.invalidate()
	return id, nil
}

// AdoptLegacy reassigns rows of legacyOwner, and rows without an owner, to
// the service owner. Stored overdue labels become pending.
func (s *Service) AdoptLegacy(ctx context.Context, legacyOwner int64) (db.AdoptResult, error) {
	if legacyOwner == s.owner {
		return db.AdoptResult{}, invalid("legacy_owner", "must differ from the current owner")
	}

	res, err := s.store.AdoptLegacyRows(ctx, s.owner, legacyOwner)
	if err != nil {
		return db.AdoptResult{}, fmt.Errorf("adopt legacy rows: %w", err)
	}
	s.invalidate()
	return res, nil
}

// ownProject returns project id if it belongs to the owner
func (s *Service) ownProject(ctx context.Context, id int64) (*model.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.OwnerID != s.owner {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return p, nil
}
