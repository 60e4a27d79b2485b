// Package comparison manages the bounded, session-persisted set of partners a
// visitor has picked for side-by-side comparison.
package comparison

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"go.uber.org/zap"
)

// Limit is the maximum number of partners in a comparison.
const Limit = 3

// Manager owns one session's selection. The in-memory copy is authoritative;
// the store is written best-effort and storage failures are logged, never
// returned.
type Manager struct {
	mu        sync.Mutex
	store     Store
	logger    *zap.Logger
	ids       []string
	truncated bool
}

// NewManager loads the persisted selection, enforcing the limit and dropping
// duplicates in case the stored value was tampered with.
func NewManager(ctx context.Context, store Store, logger *zap.Logger) *Manager {
	m := &Manager{
		store:  store,
		logger: logger.Named("comparison"),
	}
	stored, err := store.Load(ctx)
	if err != nil {
		m.logger.Warn("Failed to load comparison selection", zap.Error(err))
	}
	m.ids, m.truncated = bound(stored)
	return m
}

// Selection returns the current ids in insertion order.
func (m *Manager) Selection() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.ids)
}

// Truncated reports whether the last loaded or replaced selection held more
// than Limit ids.
func (m *Manager) Truncated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.truncated
}

// Contains reports whether id is selected.
func (m *Manager) Contains(id string) bool {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.ids, id)
}

// Toggle removes id when selected and appends it otherwise. Ids are compared
// after trimming. Adding past the limit leaves the selection unchanged and
// returns ErrCapacityExceeded.
func (m *Manager) Toggle(ctx context.Context, id string) ([]string, error) {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := slices.Index(m.ids, id); i >= 0 {
		m.ids = slices.Delete(slices.Clone(m.ids), i, i+1)
		m.persist(ctx)
		return slices.Clone(m.ids), nil
	}
	if err := m.add(ctx, id); err != nil {
		return slices.Clone(m.ids), err
	}
	return slices.Clone(m.ids), nil
}

// Add selects id. Selecting an id twice is a no-op.
func (m *Manager) Add(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Contains(m.ids, id) {
		return nil
	}
	return m.add(ctx, id)
}

// Remove deselects id and reports whether it was selected.
func (m *Manager) Remove(ctx context.Context, id string) bool {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.ids, id)
	if i < 0 {
		return false
	}
	m.ids = slices.Delete(slices.Clone(m.ids), i, i+1)
	m.persist(ctx)
	return true
}

// Clear empties the selection.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = nil
	m.truncated = false
	m.persist(ctx)
}

// SetSelection replaces the selection wholesale, dropping blanks and
// duplicates and truncating from the tail.
func (m *Manager) SetSelection(ctx context.Context, ids []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids, m.truncated = bound(ids)
	m.persist(ctx)
	return slices.Clone(m.ids)
}

// SeedFromQuery replaces the selection from a comma-separated selectedIds
// query value. An empty value leaves the selection untouched.
func (m *Manager) SeedFromQuery(ctx context.Context, raw string) []string {
	ids := ParseIDs(raw)
	if len(ids) == 0 {
		return m.Selection()
	}
	return m.SetSelection(ctx, ids)
}

// ParseIDs splits a comma-separated id list, dropping empty entries.
func ParseIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// add expects a trimmed id that is not yet selected.
func (m *Manager) add(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty partner id", e.ErrInvalidInput)
	}
	if len(m.ids) >= Limit {
		return fmt.Errorf("%w: max %d partners", e.ErrCapacityExceeded, Limit)
	}
	m.ids = append(slices.Clone(m.ids), id)
	m.persist(ctx)
	return nil
}

func (m *Manager) persist(ctx context.Context) {
	if err := m.store.Save(ctx, slices.Clone(m.ids)); err != nil {
		m.logger.Warn("Failed to persist comparison selection",
			zap.Error(err),
			zap.Strings("ids", m.ids),
		)
	}
}

func bound(in []string) ([]string, bool) {
	out := make([]string, 0, Limit)
	overflow := false
	for _, id := range in {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		if len(out) == Limit {
			overflow = true
			break
		}
		out = append(out, id)
	}
	return out, overflow
}
