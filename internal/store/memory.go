package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nao1215/sismoscrape/internal/model"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*model.Row
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*model.Row)}
}

// Scan returns copies of all records ordered by rank, then id.
func (m *MemoryStore) Scan(ctx context.Context) ([]*model.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]*model.Row, 0, len(m.records))
	for _, row := range m.records {
		rows = append(rows, row.Clone())
	}
	sortRows(rows)
	return rows, nil
}

// Delete removes the records with the given ids.
func (m *MemoryStore) Delete(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

// Put stores copies of rows keyed by id.
func (m *MemoryStore) Put(ctx context.Context, rows ...*model.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, row := range rows {
		if row.ID() == "" {
			return fmt.Errorf("row %d: %w", i, ErrMissingID)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range rows {
		m.records[row.ID()] = row.Clone()
	}
	return nil
}

// Len returns the number of records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

func sortRows(rows []*model.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rank() != rows[j].Rank() {
			return rows[i].Rank() < rows[j].Rank()
		}
		return rows[i].ID() < rows[j].ID()
	})
}
