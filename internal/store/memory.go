package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryClient keeps every table in process memory. It backs local development
// (STORE_DRIVER=memory) and the service tests.
type MemoryClient struct {
	mu     sync.RWMutex
	tables map[string][]Record
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{tables: make(map[string][]Record)}
}

func (m *MemoryClient) Fetch(_ context.Context, table string, q *Query) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return cloneAll(Apply(q, m.tables[table])), nil
}

func (m *MemoryClient) Count(_ context.Context, table string, q *Query) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(Apply(q.withoutWindow(), m.tables[table])), nil
}

func (m *MemoryClient) Insert(_ context.Context, table string, records ...Record) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := make([]Record, 0, len(records))
	for _, r := range records {
		row := r.Clone()
		if row == nil {
			row = Record{}
		}
		if !row.Has("id") {
			row["id"] = uuid.NewString()
		}
		m.tables[table] = append(m.tables[table], row)
		inserted = append(inserted, row.Clone())
	}
	return inserted, nil
}

func (m *MemoryClient) Update(_ context.Context, table string, q *Query, patch Record) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var updated []Record
	for _, row := range m.tables[table] {
		if !q.Match(row) {
			continue
		}
		for k, v := range patch {
			row[k] = v
		}
		updated = append(updated, row.Clone())
	}
	return updated, nil
}

func (m *MemoryClient) Delete(_ context.Context, table string, q *Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.tables[table]
	kept := rows[:0]
	for _, row := range rows {
		if !q.Match(row) {
			kept = append(kept, row)
		}
	}
	m.tables[table] = kept
	return nil
}

func cloneAll(rows []Record) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
