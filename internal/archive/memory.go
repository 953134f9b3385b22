package archive

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/cheese-solo/internal/domain"
)

// memory is the in-process sink used when no external store is configured.
type memory struct {
	mu    sync.RWMutex
	games map[string]domain.GameRecord
}

func NewMemory() Sink {
	return &memory{games: make(map[string]domain.GameRecord)}
}

func (m *memory) Save(ctx context.Context, rec domain.GameRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	rec.MovesUCI = append([]string(nil), rec.MovesUCI...)
	rec.MovesSAN = append([]string(nil), rec.MovesSAN...)
	m.mu.Lock()
	m.games[rec.ID] = rec
	m.mu.Unlock()
	return nil
}

func (m *memory) Recent(ctx context.Context, limit int) ([]domain.GameRecord, error) {
	m.mu.RLock()
	items := make([]domain.GameRecord, 0, len(m.games))
	for _, g := range m.games {
		items = append(items, g)
	}
	m.mu.RUnlock()
	sortRecent(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memory) Close() error { return nil }

// sortRecent orders by EndedAt desc, then id for a stable result.
func sortRecent(items []domain.GameRecord) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
}
