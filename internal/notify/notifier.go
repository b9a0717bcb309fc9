// Package notify delivers best-effort anomaly reports to a configured
// administrator. Notification is diagnostic only: every failure is swallowed
// and logged, and never aborts the calling cycle.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dutybot/internal/cache"
	"dutybot/internal/chat"
)

// defaultReadyWait bounds how long a single notification waits for the
// initial chat-user directory population. Notify is called from inside the
// serialized staging pass, so an unbounded wait would stall the whole cycle
// and prevent the very directory refresh that opens the barrier from ever
// being retried.
const defaultReadyWait = 10 * time.Second

// Notifier sends direct messages to the admin once the chat-user directory
// has been populated for the first time.
type Notifier struct {
	chat      chat.API
	store     *cache.Store
	admin     string
	log       *slog.Logger
	readyWait time.Duration

	ready chan struct{}
	once  sync.Once
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithReadyWait overrides the maximum time a notification waits for the
// initial directory population.
func WithReadyWait(d time.Duration) Option {
	return func(n *Notifier) {
		n.readyWait = d
	}
}

// New creates a notifier for the given admin chat handle. An empty handle
// disables notification entirely.
func New(api chat.API, store *cache.Store, admin string, log *slog.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		chat:      api,
		store:     store,
		admin:     admin,
		log:       log,
		readyWait: defaultReadyWait,
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// MarkReady releases notifications blocked on the initial population of the
// chat-user directory. Safe to call many times; only the first matters.
func (n *Notifier) MarkReady() {
	n.once.Do(func() { close(n.ready) })
}

// Notify resolves the admin's chat handle and sends a direct message.
// Waits for the chat-user directory to be populated once, but never longer
// than the ready-wait bound; a message that cannot be delivered in time is
// dropped and logged.
func (n *Notifier) Notify(ctx context.Context, message string) {
	if n.admin == "" {
		n.log.Debug("admin notification skipped, no admin configured", "message", message)
		return
	}

	timer := time.NewTimer(n.readyWait)
	defer timer.Stop()

	select {
	case <-n.ready:
	case <-ctx.Done():
		n.log.Warn("admin notification dropped, user directory never became ready", "message", message)
		return
	case <-timer.C:
		n.log.Warn("admin notification dropped, user directory still not populated",
			"waited", n.readyWait.String(), "message", message)
		return
	}

	adminID, ok := n.store.ChatUsers[n.admin]
	if !ok {
		n.log.Warn("admin notification dropped, admin handle not in user directory",
			"admin", n.admin, "message", message)
		return
	}

	if err := n.chat.SendDirectMessage(ctx, adminID, message); err != nil {
		n.log.Warn("admin notification failed", "admin", n.admin, "error", err)
	}
}
