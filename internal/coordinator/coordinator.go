package coordinator

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"nearby_go/internal/lifecycle"
	"nearby_go/internal/notify"
	"nearby_go/internal/store"
	"nearby_go/internal/telemetry"
	"nearby_go/internal/track"
)

const (
	// DefaultInitialScanPeriod is how long we expect nearby items to take
	// to show up. If nothing is found by then we assume nothing is there.
	DefaultInitialScanPeriod = 8 * time.Second
	DefaultAlertCooldown     = 500 * time.Millisecond
	DefaultStartTimeout      = 15 * time.Second

	queueSize = 256
)

// ErrAlreadyRunning is returned by Run when the loop is already running.
var ErrAlreadyRunning = errors.New("coordinator already running")

// State is a point-in-time view of the coordinator.
type State struct {
	Scanning           bool `json:"scanning"`
	IndicatingScanning bool `json:"indicatingScanning"`
	NetworkAlertOpen   bool `json:"networkAlertOpen"`
	GraceTimerArmed    bool `json:"graceTimerArmed"`
	StartPending       bool `json:"startPending"`
}

// Coordinator owns the scanner and reconciles lifecycle, scanner and user
// events into one scanning state.
type Coordinator struct {
	scanner       Scanner
	sink          ActionSink
	items         ItemSource
	clock         clock.WithDelayedExecution
	alerter       Alerter
	tracker       track.Tracker
	lifecycle     lifecycle.Source
	notifications notify.Source
	metrics       *telemetry.ScanMetrics
	logger        *log.Entry

	initialScanPeriod            time.Duration
	alertCooldown                time.Duration
	startTimeout                 time.Duration
	keepsBackgroundScanningAlive bool

	events  chan event
	done    chan struct{}
	running atomic.Bool
	final   State

	// Owned by the Run goroutine.
	ctx                context.Context
	scanning           bool
	indicatingScanning bool
	networkAlertOpen   bool
	startGen           uint64
	startPending       bool
	startTimer         clock.Timer
	graceGen           uint64
	graceTimer         clock.Timer
}

// Option is a function that configures the coordinator
type Option func(*Coordinator)

// WithClock replaces the wall clock used for timers.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(co *Coordinator) {
		if c != nil {
			co.clock = c
		}
	}
}

func WithInitialScanPeriod(d time.Duration) Option {
	return func(c *Coordinator) {
		c.initialScanPeriod = d
	}
}

func WithAlertCooldown(d time.Duration) Option {
	return func(c *Coordinator) {
		c.alertCooldown = d
	}
}

// WithStartTimeout bounds how long a scanner start may stay unsettled. Zero
// disables the bound.
func WithStartTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.startTimeout = d
	}
}

func WithKeepsBackgroundScanningAlive(keep bool) Option {
	return func(c *Coordinator) {
		c.keepsBackgroundScanningAlive = keep
	}
}

func WithAlerter(a Alerter) Option {
	return func(c *Coordinator) {
		if a != nil {
			c.alerter = a
		}
	}
}

func WithTracker(t track.Tracker) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.tracker = t
		}
	}
}

func WithLifecycle(src lifecycle.Source) Option {
	return func(c *Coordinator) {
		c.lifecycle = src
	}
}

func WithNotifications(src notify.Source) Option {
	return func(c *Coordinator) {
		c.notifications = src
	}
}

func WithMetrics(m *telemetry.ScanMetrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// New creates the coordinator and the scanner it owns.
func New(newScanner ScannerFactory, sink ActionSink, items ItemSource, opts ...Option) *Coordinator {
	c := &Coordinator{
		sink:              sink,
		items:             items,
		clock:             clock.RealClock{},
		alerter:           LogAlerter{},
		tracker:           track.Nop{},
		logger:            log.WithField("component", "coordinator"),
		initialScanPeriod: DefaultInitialScanPeriod,
		alertCooldown:     DefaultAlertCooldown,
		startTimeout:      DefaultStartTimeout,
		events:            make(chan event, queueSize),
		done:              make(chan struct{}),
		ctx:               context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.tracker.Track(track.EventAppLaunch)
	if c.notifications != nil && c.notifications.LaunchedApp() {
		c.tracker.Track(track.EventAppOpenFromNotification)
	}

	c.scanner = newScanner(ScannerOptions{
		OnUpdate:           func(item store.Item) { c.enqueue(scannerUpdateEvent{item: item}) },
		OnLost:             func(id string) { c.enqueue(scannerLostEvent{id: id}) },
		OnNetworkError:     func() { c.enqueue(networkErrorEvent{}) },
		ShouldPopulateItem: c.ShouldPopulateItem,
	})
	return c
}

// ShouldPopulateItem reports whether url is new: no current item shares its
// original URL. It only reads the item collection.
func (c *Coordinator) ShouldPopulateItem(url string) bool {
	if c.items == nil {
		return true
	}
	return !c.items.Has(url)
}

// Run processes events until ctx is cancelled, then stops the scanner.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	c.ctx = ctx
	defer close(c.done)

	var unsubscribe []func()
	if c.lifecycle != nil {
		unsubscribe = append(unsubscribe, c.lifecycle.Subscribe(c.LifecycleChanged))
	}
	if c.notifications != nil {
		unsubscribe = append(unsubscribe, c.notifications.Subscribe(func(e notify.Event) {
			c.enqueue(notificationEvent{event: e})
		}))
	}
	defer func() {
		for _, fn := range unsubscribe {
			fn()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return nil
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// Mount starts the first scan once the UI is up.
func (c *Coordinator) Mount() {
	c.enqueue(mountEvent{})
}

func (c *Coordinator) StartScanning() {
	c.enqueue(startScanningEvent{})
}

func (c *Coordinator) StopScanning() {
	c.enqueue(stopScanningEvent{})
}

func (c *Coordinator) LifecycleChanged(state lifecycle.State) {
	c.enqueue(lifecycleEvent{state: state})
}

// Refresh restarts scanning from an empty item list.
func (c *Coordinator) Refresh() {
	c.enqueue(refreshEvent{})
}

// Snapshot returns the current state once every event queued before the
// call has been handled. After Run returns it reports the final state.
func (c *Coordinator) Snapshot() State {
	reply := make(chan State, 1)
	select {
	case c.events <- snapshotEvent{reply: reply}:
	case <-c.done:
		return c.final
	}
	select {
	case st := <-reply:
		return st
	case <-c.done:
		return c.final
	}
}

func (c *Coordinator) enqueue(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// enqueueFromAlert is used by alert buttons, which LogAlerter presses on the
// loop goroutine itself. A full queue must not block the loop on its own
// channel.
func (c *Coordinator) enqueueFromAlert(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	default:
		go c.enqueue(ev)
	}
}

func (c *Coordinator) state() State {
	return State{
		Scanning:           c.scanning,
		IndicatingScanning: c.indicatingScanning,
		NetworkAlertOpen:   c.networkAlertOpen,
		GraceTimerArmed:    c.graceTimer != nil,
		StartPending:       c.startPending,
	}
}

func (c *Coordinator) teardown() {
	c.stopScanning()
	c.cancelGraceTimer()
	c.cancelStartTimer()
	c.final = c.state()
	c.logger.Debug("coordinator stopped")
}
