package midi

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// Alerter shows a blocking-style message to the user
type Alerter interface {
	Alert(msg string)
}

// AlertFunc adapts a function to Alerter
type AlertFunc func(msg string)

func (f AlertFunc) Alert(msg string) { f(msg) }

// DesktopAlerter pops a desktop notification with a sound
type DesktopAlerter struct {
	title  string
	logger *zap.SugaredLogger
}

func NewDesktopAlerter(title string, logger *zap.SugaredLogger) *DesktopAlerter {
	return &DesktopAlerter{title: title, logger: logger.Named("alert")}
}

func (a *DesktopAlerter) Alert(msg string) {
	a.logger.Infow("Alert", "message", msg)
	if err := beeep.Alert(a.title, msg, ""); err != nil {
		a.logger.Warnw("Failed to show desktop alert", "error", err)
	}
}
