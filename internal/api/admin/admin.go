// Package admin serves the operator endpoints of the bot.
package admin

import (
	"github.com/massmux/SatsZapBot/internal/notify"
)

// Notifications is the notification state table.
type Notifications interface {
	Get(userID int64) (notify.State, bool)
	Enable(userID int64) (notify.State, error)
	Disable(userID int64, reason string) (notify.State, error)
}

// Reporter reports the last poll cycle.
type Reporter interface {
	LastReport() notify.Report
}

type Service struct {
	notifications Notifications
	poller        Reporter
}

func New(notifications Notifications, poller Reporter) Service {
	return Service{
		notifications: notifications,
		poller:        poller,
	}
}
