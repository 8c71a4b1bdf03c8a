package coordinator

import (
	log "github.com/sirupsen/logrus"
)

const (
	networkAlertTitle   = "Network error"
	networkAlertMessage = "Please check your internet connection"
	networkAlertOK      = "OK"
)

// Alert is a blocking user-facing dialog.
type Alert struct {
	Title   string
	Message string
	Buttons []AlertButton
}

type AlertButton struct {
	Text    string
	OnPress func()
}

// Alerter surfaces alerts to the user. Alert must not block.
type Alerter interface {
	Alert(alert Alert)
}

// LogAlerter logs alerts and acknowledges them immediately by pressing the
// first button. It is used when no UI is attached.
type LogAlerter struct{}

func (LogAlerter) Alert(alert Alert) {
	log.WithFields(log.Fields{
		"component": "alert",
		"title":     alert.Title,
	}).Warn(alert.Message)

	if len(alert.Buttons) > 0 && alert.Buttons[0].OnPress != nil {
		alert.Buttons[0].OnPress()
	}
}
