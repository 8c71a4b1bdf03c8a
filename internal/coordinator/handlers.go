package coordinator

import (
	"context"

	log "github.com/sirupsen/logrus"

	"nearby_go/internal/lifecycle"
	"nearby_go/internal/notify"
	"nearby_go/internal/store"
	"nearby_go/internal/track"
)

type event interface{}

type (
	mountEvent           struct{}
	startScanningEvent   struct{}
	stopScanningEvent    struct{}
	refreshEvent         struct{}
	networkErrorEvent    struct{}
	networkAlertClosed   struct{}
	alertCooldownElapsed struct{}
	lifecycleEvent       struct{ state lifecycle.State }
	notificationEvent    struct{ event notify.Event }
	scannerUpdateEvent   struct{ item store.Item }
	scannerLostEvent     struct{ id string }
	startTimeoutEvent    struct{ gen uint64 }
	graceElapsedEvent    struct{ gen uint64 }
	snapshotEvent        struct{ reply chan<- State }
)

type startCompletedEvent struct {
	gen uint64
	err error
}

func (c *Coordinator) handle(ev event) {
	switch e := ev.(type) {
	case mountEvent:
		c.logger.Debug("mounted")
		c.startScanning()
	case startScanningEvent:
		c.startScanning()
	case stopScanningEvent:
		c.stopScanning()
	case lifecycleEvent:
		c.onLifecycleChanged(e.state)
	case refreshEvent:
		c.onRefresh()
	case scannerUpdateEvent:
		c.dispatch(store.UpdateItem{Item: e.item})
	case scannerLostEvent:
		c.dispatch(store.RemoveItem{ID: e.id})
	case networkErrorEvent:
		c.onScannerNetworkError()
	case networkAlertClosed:
		c.onNetworkAlertClosed()
	case alertCooldownElapsed:
		c.networkAlertOpen = false
	case notificationEvent:
		c.onNotification(e.event)
	case startCompletedEvent:
		c.onStartCompleted(e.gen, e.err)
	case startTimeoutEvent:
		c.onStartTimeout(e.gen)
	case graceElapsedEvent:
		c.onGraceElapsed(e.gen)
	case snapshotEvent:
		e.reply <- c.state()
	default:
		c.logger.WithField("event", ev).Warn("unknown event")
	}
}

func (c *Coordinator) startScanning() {
	if c.scanning {
		return
	}
	c.logger.Debug("start scanning")
	c.indicate(true)
	c.scanning = true
	c.metrics.SetScanning(true)
	c.metrics.ObserveTransition("start")

	c.startGen++
	gen := c.startGen
	c.startPending = true
	done := c.scanner.Start(c.ctx)
	if done == nil {
		c.onStartCompleted(gen, nil)
		return
	}
	c.armStartTimer(gen)
	go c.awaitStart(c.ctx, gen, done)
}

func (c *Coordinator) awaitStart(ctx context.Context, gen uint64, done <-chan error) {
	select {
	case err := <-done:
		c.enqueue(startCompletedEvent{gen: gen, err: err})
	case <-ctx.Done():
	}
}

func (c *Coordinator) stopScanning() {
	if !c.scanning {
		return
	}
	c.logger.Debug("stop scanning")
	c.scanner.Stop()
	c.scanning = false
	c.startPending = false
	c.cancelStartTimer()
	c.cancelGraceTimer()
	c.metrics.SetScanning(false)
	c.metrics.ObserveTransition("stop")
	c.indicate(false)
}

func (c *Coordinator) onStartCompleted(gen uint64, err error) {
	if gen != c.startGen || !c.scanning {
		c.logger.WithField("generation", gen).Debug("ignoring stale scanner start")
		return
	}
	c.startPending = false
	c.cancelStartTimer()

	if err != nil {
		c.logger.WithError(err).Warn("scanner failed to start")
		c.metrics.ObserveStartFailure("error")
		c.scanning = false
		c.metrics.SetScanning(false)
		c.indicate(false)
		return
	}

	c.cancelGraceTimer()
	c.graceGen++
	graceGen := c.graceGen
	c.graceTimer = c.clock.AfterFunc(c.initialScanPeriod, func() {
		c.enqueue(graceElapsedEvent{gen: graceGen})
	})
}

func (c *Coordinator) onGraceElapsed(gen uint64) {
	if gen != c.graceGen || c.graceTimer == nil {
		return
	}
	c.graceTimer = nil
	c.indicate(false)
}

func (c *Coordinator) onStartTimeout(gen uint64) {
	if gen != c.startGen || !c.startPending {
		return
	}
	c.startTimer = nil
	c.logger.WithField("timeout", c.startTimeout).Warn("scanner start did not settle")
	c.metrics.ObserveStartFailure("timeout")
	if c.indicatingScanning {
		c.indicate(false)
	}
}

func (c *Coordinator) onLifecycleChanged(state lifecycle.State) {
	c.logger.WithField("state", state).Info("app state changed")
	switch state {
	case lifecycle.Active:
		c.tracker.Track(track.EventAppInForeground)
		c.startScanning()
	case lifecycle.Background:
		c.tracker.Track(track.EventAppInBackground)
		// Where the OS only delivers radio callbacks to a running scanner,
		// keep it alive so deferred notifications still fire.
		if !c.keepsBackgroundScanningAlive {
			c.stopScanning()
		}
	}
}

func (c *Coordinator) onRefresh() {
	c.logger.Info("refresh requested")
	c.tracker.Track(track.EventPullRefresh)
	c.stopScanning()
	c.dispatch(store.ClearItems{})
	c.startScanning()
}

func (c *Coordinator) onScannerNetworkError() {
	c.logger.Debug("on network error")
	if c.networkAlertOpen {
		c.metrics.ObserveAlert("suppressed")
		return
	}
	c.networkAlertOpen = true
	c.metrics.ObserveAlert("shown")
	c.logger.Warn("scanner network error")

	c.alerter.Alert(Alert{
		Title:   networkAlertTitle,
		Message: networkAlertMessage,
		Buttons: []AlertButton{{
			Text:    networkAlertOK,
			OnPress: func() { c.enqueueFromAlert(networkAlertClosed{}) },
		}},
	})
}

// onNetworkAlertClosed re-arms alerts after a cooldown so errors from the
// same failure burst do not reopen the dialog.
func (c *Coordinator) onNetworkAlertClosed() {
	c.clock.AfterFunc(c.alertCooldown, func() {
		c.enqueue(alertCooldownElapsed{})
	})
}

func (c *Coordinator) onNotification(e notify.Event) {
	switch e {
	case notify.EventAppLaunch:
		c.tracker.Track(track.EventAppLaunchFromNotification)
	case notify.EventDismiss:
		c.tracker.Track(track.EventNotificationDismiss)
	}
}

func (c *Coordinator) indicate(value bool) {
	c.indicatingScanning = value
	c.metrics.SetIndicating(value)
	c.dispatch(store.IndicateScanning{Value: value})
}

func (c *Coordinator) dispatch(action store.Action) {
	c.logger.WithFields(log.Fields{"action": action.Type()}).Trace("dispatch")
	c.metrics.ObserveIntent(string(action.Type()))
	if c.sink != nil {
		c.sink.Dispatch(action)
	}
}

func (c *Coordinator) armStartTimer(gen uint64) {
	c.cancelStartTimer()
	if c.startTimeout <= 0 {
		return
	}
	c.startTimer = c.clock.AfterFunc(c.startTimeout, func() {
		c.enqueue(startTimeoutEvent{gen: gen})
	})
}

func (c *Coordinator) cancelStartTimer() {
	if c.startTimer != nil {
		c.startTimer.Stop()
		c.startTimer = nil
	}
}

func (c *Coordinator) cancelGraceTimer() {
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
}
