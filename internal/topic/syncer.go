// Package topic implements the topic synchronizer: the per-task state
// machine that decides whether, and how, to mutate a conversation's topic
// exactly once per due cycle.
package topic

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"dutybot/internal/cache"
	"dutybot/internal/chat"
	"dutybot/internal/config"
	"dutybot/internal/duty"
	"dutybot/internal/notify"
	"dutybot/internal/snapshot"
)

// Synchronizer walks every enabled task once per cycle, staging topic
// mutations in the pending-write buffer and committing them in one batched
// pass at the end.
type Synchronizer struct {
	chat     chat.API
	store    *cache.Store
	notifier *notify.Notifier
	snaps    snapshot.Store
	log      *slog.Logger

	now func() time.Time
}

// New creates a synchronizer.
func New(api chat.API, store *cache.Store, notifier *notify.Notifier, snaps snapshot.Store, log *slog.Logger) *Synchronizer {
	return &Synchronizer{
		chat:     api,
		store:    store,
		notifier: notifier,
		snaps:    snaps,
		log:      log,
		now:      time.Now,
	}
}

// ShouldUpdate reports whether a task is due. A task is due when it has
// never been updated, or when the current moment is at or past today's
// update time and that update time is itself after the recorded last
// update. The second clause prevents re-firing after a successful same-day
// update while letting a restarted process catch up immediately.
func ShouldUpdate(task *config.Task, now time.Time) bool {
	if task.LastUpdate.IsZero() {
		return true
	}
	updateAt := task.UpdateTime.On(now)
	return !now.Before(updateAt) && updateAt.After(task.LastUpdate)
}

// RunCycle stages every due task, commits the pending buffer, stamps all
// processed tasks and clears the buffer. Tasks run serially so coalescing
// order is deterministic when several target one conversation.
func (s *Synchronizer) RunCycle(ctx context.Context) {
	now := s.now()
	var processed []*config.Task

	for _, task := range s.store.Tasks {
		if task.Disabled {
			continue
		}
		if !ShouldUpdate(task, now) {
			continue
		}
		processed = append(processed, task)

		log := s.log.With("task", task.Name)
		log.Info("task due", "updateTime", task.UpdateTime.String())

		outcome := duty.Resolve(task, now, s.store)
		switch outcome.Kind {
		case duty.Missing:
			log.Info("duty not resolvable", "reason", outcome.Reason)
			if outcome.ShouldNotify(now) {
				s.notifier.Notify(ctx, fmt.Sprintf("Timetable %q: %s", task.Name, outcome.Reason))
			}
		case duty.NoDuty:
			log.Info("no duty today, holiday marker")
		case duty.Resolved:
			if err := s.stage(ctx, task, outcome.Handle, log); err != nil {
				log.Error("staging failed", "error", err)
			}
		}
	}

	s.commit(ctx)

	// Stamp regardless of individual outcome: a failed commit is not
	// retried until the next due window.
	stamp := s.now()
	for _, task := range processed {
		task.LastUpdate = stamp
	}
	s.store.ClearPending()
}

// stage computes the desired topic for a task and records it in the
// pending-write buffer. Reads the topic from the buffer when another task
// already staged a change for the same conversation this cycle, avoiding a
// redundant remote read and coalescing the writes.
func (s *Synchronizer) stage(ctx context.Context, task *config.Task, handle string, log *slog.Logger) error {
	channelID, ok := s.store.Conversations[task.Channel]
	if !ok {
		log.Warn("conversation not found in directory", "channel", task.Channel)
		s.notifier.Notify(ctx, fmt.Sprintf("Channel %q not found for timetable %q", task.Channel, task.Name))
		return nil
	}

	current, staged := s.store.PendingTopics[task.Channel]
	if !staged {
		var err error
		current, err = s.chat.GetTopic(ctx, channelID)
		if err != nil {
			return fmt.Errorf("failed to read topic of %q: %w", task.Channel, err)
		}
	}

	mentions := Mentions(current)
	if len(mentions) == 0 {
		log.Warn("no mentions in topic", "topic", current)
		s.notifier.Notify(ctx, fmt.Sprintf("No users found in topic of channel %q", task.Channel))
		return nil
	}
	if task.DevIndex >= len(mentions) {
		log.Warn("mention index out of range", "devIndex", task.DevIndex, "found", len(mentions))
		s.notifier.Notify(ctx, fmt.Sprintf("No user with index %d found in topic of channel %q", task.DevIndex, task.Channel))
		return nil
	}

	userID, ok := s.store.ChatUsers[handle]
	if !ok {
		log.Warn("chat handle not in user directory", "handle", handle)
		s.notifier.Notify(ctx, fmt.Sprintf("Developer %q not found in cache!", handle))
		return nil
	}

	target := Mention(userID)
	if mentions[task.DevIndex] == target {
		log.Info("current duty already set, nothing to do")
		return nil
	}

	newTopic := strings.Replace(current, mentions[task.DevIndex], target, 1)
	s.store.PendingTopics[task.Channel] = newTopic
	log.Info("topic staged", "topic", newTopic)
	return nil
}

// commit writes every staged topic exactly once, in deterministic order.
// A failed write is logged and skipped; it does not block other
// conversations' commits.
func (s *Synchronizer) commit(ctx context.Context) {
	if len(s.store.PendingTopics) == 0 {
		return
	}

	channels := make([]string, 0, len(s.store.PendingTopics))
	for name := range s.store.PendingTopics {
		channels = append(channels, name)
	}
	sort.Strings(channels)

	committed := make(map[string]string)
	for _, name := range channels {
		newTopic := s.store.PendingTopics[name]
		channelID, ok := s.store.Conversations[name]
		if !ok {
			s.log.Error("staged conversation vanished from directory", "channel", name)
			continue
		}
		if err := s.chat.SetTopic(ctx, channelID, newTopic); err != nil {
			s.log.Error("topic commit failed", "channel", name, "error", err)
			continue
		}
		committed[name] = newTopic
		s.log.Info("topic committed", "channel", name)
	}

	if len(committed) > 0 {
		if err := s.snaps.Save(ctx, "topics", committed); err != nil {
			s.log.Warn("snapshot write failed", "name", "topics", "error", err)
		}
	}
}
