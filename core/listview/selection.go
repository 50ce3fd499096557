package listview

import "sync"

// Selection tracks the record under focus by id only, so it can never hold a stale copy.
type Selection[T Entity] struct {
	mu  sync.RWMutex
	id  int
	set bool
}

func (s *Selection[T]) Select(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id, s.set = id, true
}

func (s *Selection[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id, s.set = 0, false
}

func (s *Selection[T]) Selected() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, s.set
}

// Resolve looks the selected id up in items. An absent id resolves to nothing.
func (s *Selection[T]) Resolve(items []T) (T, bool) {
	var zero T
	id, ok := s.Selected()
	if !ok {
		return zero, false
	}
	for _, item := range items {
		if item.GetID() == id {
			return item, true
		}
	}
	return zero, false
}
