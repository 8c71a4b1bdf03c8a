package lifecycle

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// State is an app visibility transition.
type State string

const (
	Active     State = "active"
	Background State = "background"
)

func ParseState(raw string) (State, error) {
	switch State(strings.ToLower(strings.TrimSpace(raw))) {
	case Active:
		return Active, nil
	case Background:
		return Background, nil
	default:
		return "", fmt.Errorf("unknown lifecycle state %q", raw)
	}
}

// Source emits lifecycle transitions to subscribers.
type Source interface {
	Subscribe(fn func(State)) (unsubscribe func())
}

// Broadcaster fans published states out to subscribers in subscription
// order. The zero value is not usable; use NewBroadcaster.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]func(State)
	nextID int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]func(State))}
}

func (b *Broadcaster) Subscribe(fn func(State)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *Broadcaster) Publish(state State) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
