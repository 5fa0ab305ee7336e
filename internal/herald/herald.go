// Package herald announces handover events to chat platforms. Delivery is
// best-effort: a failed notifier is logged and never fails the turn that
// triggered it.
package herald

import (
	"context"
	"log"

	"github.com/zulandar/roundtable/internal/config"
)

// Announcement carries the moderator's handover payload.
type Announcement struct {
	SessionID     string
	Summary       string
	FinalProposal string
	Options       []string
}

// Notifier delivers an announcement to one platform.
type Notifier interface {
	Name() string
	Announce(ctx context.Context, a Announcement) error
}

// Herald fans an announcement out to every configured notifier.
type Herald struct {
	notifiers []Notifier
}

func New(notifiers ...Notifier) *Herald {
	return &Herald{notifiers: notifiers}
}

// FromConfig builds a Herald with the notifiers the config enables. A config
// with no targets yields a Herald that does nothing.
func FromConfig(cfg config.HeraldConfig) *Herald {
	var ns []Notifier
	if cfg.SlackWebhookURL != "" {
		ns = append(ns, NewSlackNotifier(cfg.SlackWebhookURL))
	}
	if cfg.DiscordWebhookID != "" {
		ns = append(ns, NewDiscordNotifier(cfg.DiscordWebhookID, cfg.DiscordWebhookToken))
	}
	return New(ns...)
}

// Announce delivers a to every notifier. Failures are logged per notifier
// and do not stop the fan-out.
func (h *Herald) Announce(ctx context.Context, a Announcement) {
	for _, n := range h.notifiers {
		if err := n.Announce(ctx, a); err != nil {
			log.Printf("herald: %s announce failed for session %s: %v", n.Name(), a.SessionID, err)
		}
	}
}

// Enabled reports whether any notifier is configured.
func (h *Herald) Enabled() bool {
	return len(h.notifiers) > 0
}
