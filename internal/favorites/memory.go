package favorites

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps favorites in process memory. A partition survives the
// removal of its last id.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[string]*orderedSet
}

type orderedSet struct {
	ids   []int
	index map[int]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[int]struct{})}
}

func (s *orderedSet) add(id int) {
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *orderedSet) remove(id int) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	s.ids = slices.DeleteFunc(s.ids, func(v int) bool { return v == id })
	return true
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{partitions: make(map[string]*orderedSet)}
}

func (m *MemoryStore) List(_ context.Context, user string) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.partitions[user]
	if !ok {
		return []int{}, nil
	}
	return slices.Clone(set.ids), nil
}

func (m *MemoryStore) Add(_ context.Context, user string, id int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(user, id), nil
}

func (m *MemoryStore) addLocked(user string, id int) int {
	set, ok := m.partitions[user]
	if !ok {
		set = newOrderedSet()
		m.partitions[user] = set
	}
	set.add(id)
	return len(set.ids)
}

func (m *MemoryStore) Remove(_ context.Context, user string, id int) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.partitions[user]
	if !ok {
		return false, 0, ErrNoFavorites
	}
	removed := set.remove(id)
	return removed, len(set.ids), nil
}

func (m *MemoryStore) Contains(_ context.Context, user string, id int) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.partitions[user]
	if !ok {
		return false, nil
	}
	_, found := set.index[id]
	return found, nil
}

func (m *MemoryStore) Toggle(_ context.Context, user string, id int) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.partitions[user]; ok && set.remove(id) {
		return false, len(set.ids), nil
	}
	return true, m.addLocked(user, id), nil
}

var _ Store = (*MemoryStore)(nil)
