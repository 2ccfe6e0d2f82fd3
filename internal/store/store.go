// Package store persists the engine state. Two backends exist: a JSON file
// replaced atomically on every save, and an SQLite database.
package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/Kavirubc/gitscout/internal/config"
	"github.com/Kavirubc/gitscout/pkg/models"
)

// Store loads and saves the full engine state
type Store interface {
	Load(ctx context.Context) (*models.State, error)
	Save(ctx context.Context, s *models.State) error
	Close() error
}

// Open returns the backend selected by cfg
func Open(cfg config.StateConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path), nil
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown state backend: %s", cfg.Backend)
	}
}

// SetActive flips the active flag of the persisted record, leaving the rest
// as the store currently holds it. Used by processes that do not own an
// engine, such as the watch commands.
func SetActive(ctx context.Context, st Store, active bool) error {
	s, err := st.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	s.Active = active
	if err := st.Save(ctx, s); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// record is the on-disk document. Field names match what earlier releases
// wrote so existing config.json files keep loading.
type record struct {
	Search        models.Filter             `json:"search"`
	Notif         models.NotificationTarget `json:"notif"`
	IsActive      bool                      `json:"is_active"`
	KnownIssueIDs []int64                   `json:"known_issue_ids"`
	LastItems     []models.Item             `json:"last_items"`
}

func toRecord(s *models.State) record {
	return record{
		Search:        s.Filter,
		Notif:         s.Target,
		IsActive:      s.Active,
		KnownIssueIDs: s.SeenList(),
		LastItems:     s.LastFetch,
	}
}

func fromRecord(r record) *models.State {
	s := &models.State{
		Filter:    r.Search,
		Target:    r.Notif,
		Active:    r.IsActive,
		SeenIDs:   make(map[int64]struct{}, len(r.KnownIssueIDs)),
		LastFetch: r.LastItems,
	}
	for _, id := range r.KnownIssueIDs {
		s.SeenIDs[id] = struct{}{}
	}
	s.Normalize()
	return s
}

// mergeIDs returns the sorted union of a and b
func mergeIDs(a, b []int64) []int64 {
	set := make(map[int64]struct{}, len(a)+len(b))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		set[id] = struct{}{}
	}
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
