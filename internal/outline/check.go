package outline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/eykd/booktree-go/internal/domain"
)

// Check returns integrity findings: those recorded when the outline was
// loaded, structural findings of every book, and entries whose content item
// no longer exists.
func (m *Manager) Check(ctx context.Context) ([]domain.Finding, error) {
	m.mu.RLock()
	findings := append([]domain.Finding{}, m.loadFindings...)
	m.mu.RUnlock()

	for _, root := range m.Books() {
		b, err := m.bookSnapshot(root.ItemID)
		if err != nil {
			// Removed since Books returned.
			continue
		}
		findings = append(findings, b.Validate()...)
		if m.content == nil {
			continue
		}
		for _, e := range b.DocumentOrder() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			_, err := m.content.Lookup(ctx, e.ItemID)
			if errors.Is(err, domain.ErrUnknownItem) {
				findings = append(findings, domain.Finding{
					Type:     domain.FindingMissingContent,
					Severity: domain.SeverityError,
					Message:  fmt.Sprintf("entry %s in book %s references missing content", e.ItemID, e.BookID),
					Item:     e.ItemID,
				})
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("looking up %s: %w", e.ItemID, err)
			}
		}
	}
	return findings, nil
}

// Repair persists the outline as loaded: recomputed depths are written back
// and entries that were left out of every book are deleted from storage. It
// returns the change it applied.
func (m *Manager) Repair(ctx context.Context) (domain.Change, error) {
	release, err := m.acquire(ctx)
	if err != nil {
		return domain.Change{}, err
	}
	defer release()

	m.mu.RLock()
	ids := make([]string, 0, len(m.books))
	for id := range m.books {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)

	var ch domain.Change
	for _, id := range ids {
		st, cur, err := m.lockBook(id)
		if err != nil {
			continue
		}
		defer st.mu.Unlock()
		ch.Upserts = append(ch.Upserts, cur.DocumentOrder()...)
	}

	m.mu.RLock()
	for _, f := range m.loadFindings {
		switch f.Type {
		case domain.FindingMissingRoot, domain.FindingOrphanEntry:
			if _, placed := m.index[f.Item]; !placed {
				ch.Deletes = append(ch.Deletes, f.Item)
			}
		}
	}
	m.mu.RUnlock()

	if err := m.persist(ctx, ch); err != nil {
		return domain.Change{}, err
	}

	m.mu.Lock()
	m.loadFindings = nil
	m.mu.Unlock()

	m.logger.Info("repaired outline",
		zap.Int("entries", len(ch.Upserts)),
		zap.Int("deleted", len(ch.Deletes)))
	return ch, nil
}
