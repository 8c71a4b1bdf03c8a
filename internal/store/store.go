package store

import (
	"slices"
	"sort"
	"sync"
)

// Listener is called after every dispatch with the resulting state.
type Listener func(State)

// Store owns the item collection. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int
}

func New() *Store {
	return &Store{
		state:     InitialState(),
		listeners: make(map[int]Listener),
	}
}

func (s *Store) Dispatch(action Action) {
	if action == nil {
		return
	}

	s.mu.Lock()
	s.state = Reduce(s.state, action)
	snapshot := s.state.clone()
	listeners := make([]Listener, 0, len(s.listeners))
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

// Subscribe registers fn and returns a func that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Item(nil), s.state.Items...)
}

func (s *Store) Has(originalURL string) bool {
	if originalURL == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.state.FindByOriginalURL(originalURL)
	return ok
}

func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Items)
}

// Reduce applies action to state and returns the next state. The input is
// never modified.
func Reduce(state State, action Action) State {
	next := state.clone()

	switch a := action.(type) {
	case UpdateItem:
		idx := slices.IndexFunc(next.Items, func(item Item) bool { return item.ID == a.Item.ID })
		if idx >= 0 {
			next.Items[idx] = a.Item
		} else {
			next.Items = append(next.Items, a.Item)
		}
	case RemoveItem:
		idx := slices.IndexFunc(next.Items, func(item Item) bool { return item.ID == a.ID })
		if idx < 0 {
			return next
		}
		if next.Items[idx].OriginalURL == next.OpenedItem {
			next.OpenedItem = ""
		}
		next.Items = slices.Delete(next.Items, idx, idx+1)
	case ClearItems:
		next.Items = nil
		next.OpenedItem = ""
	case IndicateScanning:
		next.Scanning = a.Value
	case OpenItem:
		if _, ok := next.FindByOriginalURL(a.OriginalURL); ok {
			next.OpenedItem = a.OriginalURL
		}
	case CloseItem:
		next.OpenedItem = ""
	case SetScene:
		if a.Scene == "" {
			a.Scene = SceneHome
		}
		next.Scene = a.Scene
	}
	return next
}

// SortedByDistance returns items nearest first, ties broken by title.
func SortedByDistance(items []Item) []Item {
	out := append([]Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Title < out[j].Title
	})
	return out
}
