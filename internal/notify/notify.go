// Package notify carries local notification events from the host shell.
// Delivery itself happens elsewhere; the app only observes launches and
// dismissals.
package notify

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type Event string

const (
	EventAppLaunch Event = "applaunch"
	EventDismiss   Event = "dismiss"
)

func ParseEvent(raw string) (Event, error) {
	switch Event(strings.ToLower(strings.TrimSpace(raw))) {
	case EventAppLaunch:
		return EventAppLaunch, nil
	case EventDismiss:
		return EventDismiss, nil
	default:
		return "", fmt.Errorf("unknown notification event %q", raw)
	}
}

type Source interface {
	// LaunchedApp reports whether the process was started by tapping a
	// notification.
	LaunchedApp() bool
	Subscribe(fn func(Event)) (unsubscribe func())
}

type Broadcaster struct {
	mu       sync.Mutex
	launched bool
	subs     map[int]func(Event)
	nextID   int
}

func NewBroadcaster(launchedApp bool) *Broadcaster {
	return &Broadcaster{
		launched: launchedApp,
		subs:     make(map[int]func(Event)),
	}
}

func (b *Broadcaster) LaunchedApp() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.launched
}

func (b *Broadcaster) Subscribe(fn func(Event)) func() {
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

func (b *Broadcaster) Publish(event Event) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}
