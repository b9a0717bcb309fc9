// Package engine drives the reconciliation loop: refresh the four caches,
// release the admin notifier once the user directory exists, then let the
// topic synchronizer walk the due tasks. One pass of that sequence is a
// cycle; cycles repeat on a fixed interval until the context is cancelled.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"dutybot/internal/notify"
)

// CalendarSource refreshes the spreadsheet-backed caches.
type CalendarSource interface {
	RefreshCalendars(ctx context.Context) error
	RefreshDutyNames(ctx context.Context) error
}

// DirectorySource refreshes the chat-workspace-backed caches.
type DirectorySource interface {
	RefreshUsers(ctx context.Context) error
	RefreshConversations(ctx context.Context) error
}

// TopicSyncer runs the per-task topic reconciliation pass.
type TopicSyncer interface {
	RunCycle(ctx context.Context)
}

// Engine owns the periodic cycle. It is created once at startup and runs
// until its context is cancelled.
type Engine struct {
	sheets    CalendarSource
	directory DirectorySource
	syncer    TopicSyncer
	notifier  *notify.Notifier
	interval  time.Duration
	log       *slog.Logger
}

// New creates an engine running one cycle per interval.
func New(sheets CalendarSource, directory DirectorySource, syncer TopicSyncer, notifier *notify.Notifier, interval time.Duration, log *slog.Logger) *Engine {
	return &Engine{
		sheets:    sheets,
		directory: directory,
		syncer:    syncer,
		notifier:  notifier,
		interval:  interval,
		log:       log,
	}
}

// Run executes the first cycle immediately, then one per interval, and
// blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("engine starting", "interval", e.interval.String())

	e.runCycle(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine shutting down")
			return nil
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}

// runCycle refreshes the four caches concurrently, then runs the topic
// pass. Refresh failures are logged and skipped; the synchronizer works
// with whatever cache state survived, so one flaky upstream never stalls
// the others.
func (e *Engine) runCycle(ctx context.Context) {
	log := e.log.With("cycle", uuid.New().String())
	log.Info("cycle started")

	refreshes := []struct {
		name string
		run  func(context.Context) error
	}{
		{"calendars", e.sheets.RefreshCalendars},
		{"dutyNames", e.sheets.RefreshDutyNames},
		{"users", e.directory.RefreshUsers},
		{"conversations", e.directory.RefreshConversations},
	}

	var wg sync.WaitGroup
	for _, r := range refreshes {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.run(ctx); err != nil {
				log.Error("refresh failed", "source", r.name, "error", err)
				return
			}
			if r.name == "users" {
				// Admin notifications need the user directory to
				// resolve the admin's handle. Gate them on the first
				// successful refresh.
				e.notifier.MarkReady()
			}
		}()
	}
	wg.Wait()

	e.syncer.RunCycle(ctx)
	log.Info("cycle finished")
}
