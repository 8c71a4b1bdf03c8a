package beacon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"nearby_go/internal/coordinator"
	"nearby_go/internal/store"
)

func TestParseSchedule(t *testing.T) {
	raw := []byte(`
loop: false
period: 10s
advertisements:
  - url: https://example.com/a
    appear: 0s
    lost: 4s
    distance: 1.5
  - url: https://example.com/b
    appear: 2s
    distance: 3
`)
	sched, err := ParseSchedule(raw)
	require.NoError(t, err)

	assert.False(t, sched.Loop)
	assert.Equal(t, 10*time.Second, sched.Period)
	require.Len(t, sched.Advertisements, 2)
	assert.Equal(t, Advertisement{
		URL:      "https://example.com/a",
		Lost:     4 * time.Second,
		Distance: 1.5,
	}, sched.Advertisements[0])
}

func TestParseScheduleRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing url", raw: "advertisements:\n  - appear: 1s\n"},
		{name: "lost before appear", raw: "advertisements:\n  - url: a\n    appear: 3s\n    lost: 2s\n"},
		{name: "negative distance", raw: "advertisements:\n  - url: a\n    distance: -1\n"},
		{name: "bad yaml", raw: "advertisements: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedule([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadScheduleEmptyPathIsDemo(t *testing.T) {
	sched, err := LoadSchedule("")
	require.NoError(t, err)
	assert.Equal(t, DemoSchedule(), sched)
	assert.NoError(t, sched.Validate())
}

func TestTimelineOrdering(t *testing.T) {
	sched := Schedule{
		Period: time.Second,
		Advertisements: []Advertisement{
			{URL: "b", Appear: 2 * time.Second, Lost: 5 * time.Second},
			{URL: "a", Appear: 0, Lost: 2 * time.Second},
		},
	}
	events, period := sched.timeline()

	require.Len(t, events, 4)
	assert.Equal(t, "a", events[0].ad.URL)
	assert.Equal(t, sighted, events[1].kind)
	assert.Equal(t, "b", events[1].ad.URL)
	assert.Equal(t, lost, events[2].kind)
	assert.Equal(t, "a", events[2].ad.URL)
	assert.Equal(t, 5*time.Second, period)
}

func TestTimelineHasMinimumPeriod(t *testing.T) {
	sched := Schedule{Loop: true, Advertisements: []Advertisement{{URL: "a"}}}
	events, period := sched.timeline()

	require.Len(t, events, 1)
	assert.Equal(t, minCyclePeriod, period)
}

func TestItemIDIsStable(t *testing.T) {
	assert.Equal(t, ItemID("https://example.com"), ItemID("https://example.com"))
	assert.NotEqual(t, ItemID("https://example.com"), ItemID("https://example.org"))
}

func TestOfflineResolver(t *testing.T) {
	md, err := OfflineResolver{}.Resolve(context.Background(), "https://example.com/path/")
	require.NoError(t, err)
	assert.Equal(t, "example.com", md.Title)
	assert.Equal(t, "example.com/path", md.DisplayURL)
	assert.Equal(t, "https://example.com/path/", md.URL)
}

func fastResolver(baseURL string, retries int) *HTTPResolver {
	r := NewHTTPResolver(baseURL, time.Second, retries)
	r.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return r
}

func TestHTTPResolver(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/resolve-scan", r.URL.Path)

		var req resolveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Objects, 1)

		_ = json.NewEncoder(w).Encode(resolveResponse{Metadata: []Metadata{{
			URL:         req.Objects[0].URL,
			Title:       "Exhibit",
			Description: "Room 12",
			Icon:        "https://example.com/icon.png",
		}}})
	}))
	defer srv.Close()

	md, err := fastResolver(srv.URL+"/", 2).Resolve(context.Background(), "https://example.com/x")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Exhibit", md.Title)
	assert.Equal(t, "Room 12", md.Description)
	assert.Equal(t, "example.com/x", md.DisplayURL)
}

func TestHTTPResolverRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(resolveResponse{})
	}))
	defer srv.Close()

	md, err := fastResolver(srv.URL, 2).Resolve(context.Background(), "https://example.com/x")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "example.com", md.Title)
}

func TestHTTPResolverUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := fastResolver(srv.URL, 1).Resolve(context.Background(), "https://example.com/x")
	assert.ErrorIs(t, err, ErrResolverUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPResolverRejectedIsNotNetworkError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := fastResolver(srv.URL, 3).Resolve(context.Background(), "https://example.com/x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrResolverUnavailable))
	assert.Equal(t, int32(1), calls.Load())
}

type recorder struct {
	mu            sync.Mutex
	updates       []store.Item
	lost          []string
	networkErrors int
	known         map[string]bool
}

func newRecorder() *recorder {
	return &recorder{known: make(map[string]bool)}
}

func (r *recorder) options() coordinator.ScannerOptions {
	return coordinator.ScannerOptions{
		OnUpdate: func(item store.Item) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.updates = append(r.updates, item)
			r.known[item.OriginalURL] = true
		},
		OnLost: func(id string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.lost = append(r.lost, id)
		},
		OnNetworkError: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.networkErrors++
		},
		ShouldPopulateItem: func(url string) bool {
			r.mu.Lock()
			defer r.mu.Unlock()
			return !r.known[url]
		},
	}
}

func (r *recorder) snapshot() ([]store.Item, []string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]store.Item(nil), r.updates...), append([]string(nil), r.lost...), r.networkErrors
}

func TestScannerReplay(t *testing.T) {
	sched := Schedule{Advertisements: []Advertisement{
		{URL: "https://example.com/a", Appear: 0, Lost: 20 * time.Millisecond, Distance: 2},
		{URL: "https://example.com/b", Appear: 5 * time.Millisecond, Distance: 4},
		{URL: "https://example.com/b", Appear: 10 * time.Millisecond, Distance: 1},
	}}
	rec := newRecorder()
	s := New(sched, nil, rec.options())

	started := s.Start(context.Background())
	require.NoError(t, <-started)

	require.Eventually(t, func() bool {
		_, lost, _ := rec.snapshot()
		return len(lost) == 1
	}, 2*time.Second, time.Millisecond)
	s.Stop()
	s.Wait()

	updates, lost, netErrs := rec.snapshot()
	require.Len(t, updates, 3)
	assert.Equal(t, ItemID("https://example.com/a"), updates[0].ID)
	assert.Equal(t, "example.com", updates[0].Title)
	assert.Equal(t, ItemID("https://example.com/b"), updates[1].ID)
	assert.Equal(t, 4.0, updates[1].Distance)
	// Second sighting of b only moves it.
	assert.Equal(t, updates[1].ID, updates[2].ID)
	assert.Equal(t, 1.0, updates[2].Distance)
	assert.Equal(t, []string{ItemID("https://example.com/a")}, lost)
	assert.Zero(t, netErrs)

	st := s.Status()
	assert.False(t, st.Running)
	assert.Equal(t, uint64(3), st.Sightings)
	assert.Equal(t, uint64(2), st.Resolved)
	assert.Equal(t, uint64(1), st.Lost)
}

type countingResolver struct {
	calls atomic.Int32
}

func (r *countingResolver) Resolve(ctx context.Context, url string) (Metadata, error) {
	r.calls.Add(1)
	return OfflineResolver{}.Resolve(ctx, url)
}

func TestScannerAsksBeforeResolving(t *testing.T) {
	sched := Schedule{Advertisements: []Advertisement{{URL: "https://example.com/a"}}}
	resolver := &countingResolver{}
	var asked atomic.Int32
	opts := coordinator.ScannerOptions{
		OnUpdate: func(store.Item) { t.Error("unexpected update") },
		ShouldPopulateItem: func(string) bool {
			asked.Add(1)
			return false
		},
	}
	s := New(sched, resolver, opts)

	require.NoError(t, <-s.Start(context.Background()))
	require.Eventually(t, func() bool {
		return s.Status().Sightings == 1
	}, 2*time.Second, time.Millisecond)
	s.Stop()
	s.Wait()

	assert.Equal(t, int32(1), asked.Load())
	assert.Zero(t, resolver.calls.Load())
	assert.Zero(t, s.Status().Resolved)
}

func TestScannerLoopWaitsBetweenCycles(t *testing.T) {
	sched, err := ParseSchedule([]byte("loop: true\nadvertisements:\n  - url: https://a.example\n"))
	require.NoError(t, err)

	fake := clocktesting.NewFakeClock(time.Now())
	rec := newRecorder()
	s := New(sched, nil, rec.options(), WithClock(fake))

	require.NoError(t, <-s.Start(context.Background()))
	require.Eventually(t, func() bool {
		updates, _, _ := rec.snapshot()
		return len(updates) == 1 && fake.HasWaiters()
	}, 2*time.Second, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	updates, _, _ := rec.snapshot()
	assert.Len(t, updates, 1)
	assert.Zero(t, s.Status().Cycles)

	fake.Step(minCyclePeriod)
	require.Eventually(t, func() bool {
		updates, _, _ := rec.snapshot()
		return len(updates) == 2
	}, 2*time.Second, time.Millisecond)
	s.Stop()
	s.Wait()

	updates, _, _ = rec.snapshot()
	assert.Equal(t, updates[0].ID, updates[1].ID)
	assert.Equal(t, uint64(1), s.Status().Cycles)
	assert.Equal(t, uint64(1), s.Status().Resolved)
}

func TestScannerNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sched := Schedule{Advertisements: []Advertisement{{URL: "https://example.com/a"}}}
	rec := newRecorder()
	s := New(sched, fastResolver(srv.URL, 0), rec.options())

	require.NoError(t, <-s.Start(context.Background()))
	require.Eventually(t, func() bool {
		_, _, netErrs := rec.snapshot()
		return netErrs == 1
	}, 2*time.Second, time.Millisecond)
	s.Stop()
	s.Wait()

	updates, _, _ := rec.snapshot()
	assert.Empty(t, updates)
	assert.NotEmpty(t, s.Status().LastError)
}

func TestScannerEmptySchedule(t *testing.T) {
	s := New(Schedule{}, nil, coordinator.ScannerOptions{})
	err := <-s.Start(context.Background())
	assert.ErrorIs(t, err, ErrEmptySchedule)
	assert.False(t, s.Status().Running)
}

func TestScannerRestart(t *testing.T) {
	sched := Schedule{Advertisements: []Advertisement{{URL: "https://example.com/a", Appear: time.Hour}}}
	s := New(sched, nil, coordinator.ScannerOptions{})

	require.NoError(t, <-s.Start(context.Background()))
	s.Stop()
	require.NoError(t, <-s.Start(context.Background()))
	assert.True(t, s.Status().Running)

	s.Stop()
	s.Wait()
	assert.False(t, s.Status().Running)
}

func TestFactoryHandsOutScanner(t *testing.T) {
	var built *Scanner
	factory := Factory(DemoSchedule(), nil, func(s *Scanner) { built = s })

	sc := factory(coordinator.ScannerOptions{})
	require.NotNil(t, built)
	assert.Same(t, built, sc)
}
