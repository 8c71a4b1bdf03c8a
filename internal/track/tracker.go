package track

//go:generate mockgen -destination=mocks/mock_tracker.go -package=mocks -source=tracker.go Tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Event names an analytics event. Values are stable across releases.
type Event string

const (
	EventAppLaunch                 Event = "app_launch"
	EventAppOpenFromNotification   Event = "app_open_from_notification"
	EventAppLaunchFromNotification Event = "app_launch_from_notification"
	EventNotificationDismiss       Event = "notification_dismiss"
	EventAppInForeground           Event = "app_in_foreground"
	EventAppInBackground           Event = "app_in_background"
	EventPullRefresh               Event = "pull_refresh"
)

// Tracker receives fire-and-forget analytics events. Implementations must
// not block.
type Tracker interface {
	Track(event Event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Track(Event) {}

// Recorder counts events in prometheus and logs them at debug level.
type Recorder struct {
	events *prometheus.CounterVec
	logger *log.Entry
}

func NewRecorder(registry prometheus.Registerer) *Recorder {
	r := &Recorder{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nearby",
			Subsystem: "app",
			Name:      "events_total",
			Help:      "Tracked app events",
		}, []string{"event"}),
		logger: log.WithField("component", "track"),
	}
	if registry != nil {
		registry.MustRegister(r.events)
	}
	return r
}

func (r *Recorder) Track(event Event) {
	r.events.WithLabelValues(string(event)).Inc()
	r.logger.WithField("event", event).Debug("track")
}
