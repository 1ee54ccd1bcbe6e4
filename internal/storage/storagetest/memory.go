// Package storagetest provides an in-memory storage.Gateway for tests.
package storagetest

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/joao-fontenele/springbucks/internal/storage"
)

// Memory keeps entities in a map, using the same Mapping as the SQL
// repository for ids and timestamps. It enforces no relations.
type Memory[E any] struct {
	// Errors makes an operation fail: keys are "save", "find_by_id",
	// "find_all" and "delete_by_id".
	Errors map[string]error

	mu      sync.Mutex
	mapping storage.Mapping[E]
	rows    map[int64]E
	nextID  int64
	clock   time.Time
}

func NewMemory[E any](mapping storage.Mapping[E]) *Memory[E] {
	return &Memory[E]{
		Errors:  map[string]error{},
		mapping: mapping,
		rows:    map[int64]E{},
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *Memory[E]) Save(_ context.Context, ptr *E) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.Errors["save"]; err != nil {
		return err
	}
	if _, err := m.mapping.Args(ptr); err != nil {
		return err
	}

	m.clock = m.clock.Add(time.Second)
	createTime, updateTime := m.mapping.Timestamps(ptr)

	id := m.mapping.ID(ptr)
	if id == 0 {
		m.nextID++
		m.mapping.SetID(ptr, m.nextID)
		*createTime = m.clock
	} else {
		stored, ok := m.rows[id]
		if !ok {
			return fmt.Errorf("id %d: %w", id, storage.ErrNotFound)
		}
		storedCreate, _ := m.mapping.Timestamps(&stored)
		*createTime = *storedCreate
	}
	*updateTime = m.clock

	m.rows[m.mapping.ID(ptr)] = *ptr
	return nil
}

func (m *Memory[E]) FindByID(_ context.Context, id int64) (E, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.Errors["find_by_id"]; err != nil {
		return *new(E), err
	}

	ent, ok := m.rows[id]
	if !ok {
		return ent, fmt.Errorf("id %d: %w", id, storage.ErrNotFound)
	}
	return ent, nil
}

func (m *Memory[E]) FindAll(_ context.Context) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		m.mu.Lock()
		if err := m.Errors["find_all"]; err != nil {
			m.mu.Unlock()
			yield(*new(E), err)
			return
		}
		ids := make([]int64, 0, len(m.rows))
		for id := range m.rows {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		ents := make([]E, 0, len(ids))
		for _, id := range ids {
			ents = append(ents, m.rows[id])
		}
		m.mu.Unlock()

		for _, ent := range ents {
			if !yield(ent, nil) {
				return
			}
		}
	}
}

func (m *Memory[E]) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.Errors["delete_by_id"]; err != nil {
		return err
	}

	if _, ok := m.rows[id]; !ok {
		return fmt.Errorf("id %d: %w", id, storage.ErrNotFound)
	}
	delete(m.rows, id)
	return nil
}

func (m *Memory[E]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
