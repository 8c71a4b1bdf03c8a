package beacon

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"nearby_go/internal/coordinator"
	"nearby_go/internal/store"
)

// ItemID is the stable id of the item broadcasting rawURL.
func ItemID(rawURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(rawURL)).String()
}

type Status struct {
	Running    bool      `json:"running"`
	Cycles     uint64    `json:"cycles"`
	Sightings  uint64    `json:"sightings"`
	Resolved   uint64    `json:"resolved"`
	Lost       uint64    `json:"lost"`
	LastURL    string    `json:"lastUrl,omitempty"`
	LastSeenAt time.Time `json:"lastSeenAt,omitempty"`
	LastError  string    `json:"lastError,omitempty"`
}

// Scanner replays a schedule of advertisements as if a radio were sighting
// them, resolving new URLs into items.
type Scanner struct {
	schedule Schedule
	resolver Resolver
	opts     coordinator.ScannerOptions
	clock    clock.Clock
	logger   *log.Entry

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	status Status
	// Last known item per URL, used for distance-only updates.
	items map[string]store.Item
}

type Option func(*Scanner)

func WithClock(c clock.Clock) Option {
	return func(s *Scanner) {
		if c != nil {
			s.clock = c
		}
	}
}

func New(schedule Schedule, resolver Resolver, opts coordinator.ScannerOptions, options ...Option) *Scanner {
	if resolver == nil {
		resolver = OfflineResolver{}
	}
	s := &Scanner{
		schedule: schedule,
		resolver: resolver,
		opts:     opts,
		clock:    clock.RealClock{},
		logger:   log.WithField("component", "beacon"),
		items:    make(map[string]store.Item),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Factory binds a schedule and resolver into a coordinator.ScannerFactory.
// The built scanner is also handed to onBuild when it is not nil.
func Factory(schedule Schedule, resolver Resolver, onBuild func(*Scanner), options ...Option) coordinator.ScannerFactory {
	return func(opts coordinator.ScannerOptions) coordinator.Scanner {
		s := New(schedule, resolver, opts, options...)
		if onBuild != nil {
			onBuild(s)
		}
		return s
	}
}

// Start launches the replay goroutine. The returned channel is closed once
// the goroutine runs, or yields ErrEmptySchedule.
func (s *Scanner) Start(parent context.Context) <-chan error {
	started := make(chan error, 1)
	if len(s.schedule.Advertisements) == 0 {
		started <- ErrEmptySchedule
		return started
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		close(started)
		return started
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.status.Running = true
	s.status.LastError = ""
	done := s.done
	s.mu.Unlock()

	go s.replay(ctx, done, started)
	return started
}

// Stop cancels the replay without waiting for it.
func (s *Scanner) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current replay goroutine has exited.
func (s *Scanner) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Scanner) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scanner) replay(ctx context.Context, done chan struct{}, started chan<- error) {
	defer close(done)
	defer s.finishStopped(done)

	close(started)
	s.logger.Debug("replay started")

	events, period := s.schedule.timeline()
	for {
		cycleStart := s.clock.Now()
		for _, ev := range events {
			if !s.sleepUntil(ctx, cycleStart.Add(ev.at)) {
				return
			}
			switch ev.kind {
			case sighted:
				s.sight(ctx, ev.ad)
			case lost:
				s.lose(ctx, ev.ad)
			}
		}
		if !s.schedule.Loop {
			s.logger.Debug("schedule finished")
			<-ctx.Done()
			return
		}
		if !s.sleepUntil(ctx, cycleStart.Add(period)) {
			return
		}
		s.mu.Lock()
		s.status.Cycles++
		s.mu.Unlock()
	}
}

func (s *Scanner) sight(ctx context.Context, ad Advertisement) {
	now := s.clock.Now()
	s.mu.Lock()
	s.status.Sightings++
	s.status.LastURL = ad.URL
	s.status.LastSeenAt = now
	cached, known := s.items[ad.URL]
	s.mu.Unlock()

	if s.opts.ShouldPopulateItem != nil && !s.opts.ShouldPopulateItem(ad.URL) {
		if !known {
			s.logger.WithField("url", ad.URL).Debug("already listed, skipping resolve")
			return
		}
		cached.Distance = ad.Distance
		cached.UpdatedAt = now
		s.remember(cached)
		s.update(ctx, cached)
		return
	}

	md, err := s.resolver.Resolve(ctx, ad.URL)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.setError(err)
		if errors.Is(err, ErrResolverUnavailable) {
			s.logger.WithError(err).WithField("url", ad.URL).Warn("metadata resolution failed")
			if s.opts.OnNetworkError != nil {
				s.opts.OnNetworkError()
			}
			return
		}
		s.logger.WithError(err).WithField("url", ad.URL).Info("resolver rejected url, using offline metadata")
		md = offlineMetadata(ad.URL)
	}

	item := store.Item{
		ID:          ItemID(ad.URL),
		OriginalURL: ad.URL,
		URL:         md.URL,
		DisplayURL:  md.DisplayURL,
		Title:       md.Title,
		Description: md.Description,
		Icon:        md.Icon,
		Distance:    ad.Distance,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.status.Resolved++
	s.mu.Unlock()
	s.remember(item)
	s.update(ctx, item)
}

func (s *Scanner) lose(ctx context.Context, ad Advertisement) {
	s.mu.Lock()
	delete(s.items, ad.URL)
	s.status.Lost++
	s.mu.Unlock()

	if ctx.Err() == nil && s.opts.OnLost != nil {
		s.opts.OnLost(ItemID(ad.URL))
	}
}

func (s *Scanner) update(ctx context.Context, item store.Item) {
	if ctx.Err() == nil && s.opts.OnUpdate != nil {
		s.opts.OnUpdate(item)
	}
}

func (s *Scanner) remember(item store.Item) {
	s.mu.Lock()
	s.items[item.OriginalURL] = item
	s.mu.Unlock()
}

func (s *Scanner) setError(err error) {
	s.mu.Lock()
	s.status.LastError = err.Error()
	s.mu.Unlock()
}

// finishStopped resets the running state unless a newer replay has already
// taken over.
func (s *Scanner) finishStopped(done chan struct{}) {
	s.mu.Lock()
	if s.done == done {
		s.cancel = nil
		s.status.Running = false
	}
	s.mu.Unlock()
	s.logger.Debug("replay stopped")
}

func (s *Scanner) sleepUntil(ctx context.Context, at time.Time) bool {
	d := at.Sub(s.clock.Now())
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	t := s.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C():
		return true
	}
}
