package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dutybot/internal/cache"
	"dutybot/internal/chat"
	"dutybot/internal/snapshot"
)

// Directory refreshes the chat-user and conversation directories from the
// chat collaborator. Both are rebuilt into a fresh mapping and swapped in
// only on full success, so deactivated accounts and deleted conversations
// drop out and a mid-pagination failure never leaves a half-built directory.
type Directory struct {
	chat  chat.API
	store *cache.Store
	snaps snapshot.Store
	log   *slog.Logger

	now   func() time.Time
	delay func(time.Duration)
}

// NewDirectory creates the chat-side ingestion adapter.
func NewDirectory(api chat.API, store *cache.Store, snaps snapshot.Store, log *slog.Logger) *Directory {
	return &Directory{
		chat:  api,
		store: store,
		snaps: snaps,
		log:   log,
		now:   time.Now,
		delay: time.Sleep,
	}
}

// RefreshUsers rebuilds the chat-user directory. A no-op while fresh.
func (d *Directory) RefreshUsers(ctx context.Context) error {
	if cache.Fresh(d.store.ChatUsersUpdated, directoryFreshness, d.now()) {
		return nil
	}
	d.log.Debug("updating chat users")

	users := make(map[string]string)
	cursor := ""
	for {
		page, err := d.chat.ListUsers(ctx, cursor)
		if err != nil {
			return fmt.Errorf("failed to list chat users: %w", err)
		}
		for _, u := range page.Users {
			if u.Deactivated {
				continue
			}
			users[u.Handle] = u.ID
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
		d.delay(pageDelay)
	}

	d.store.ChatUsers = users
	d.store.ChatUsersUpdated = d.now()
	d.saveSnapshot(ctx, "slackUsers", users)
	d.log.Info("chat users updated", "count", len(users))
	return nil
}

// RefreshConversations rebuilds the conversation directory. A no-op while
// fresh.
func (d *Directory) RefreshConversations(ctx context.Context) error {
	if cache.Fresh(d.store.ConversationsUpdated, directoryFreshness, d.now()) {
		return nil
	}
	d.log.Debug("updating conversations")

	conversations := make(map[string]string)
	cursor := ""
	for {
		page, err := d.chat.ListConversations(ctx, cursor)
		if err != nil {
			return fmt.Errorf("failed to list conversations: %w", err)
		}
		for _, c := range page.Conversations {
			conversations[c.Name] = c.ID
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
		d.delay(pageDelay)
	}

	d.store.Conversations = conversations
	d.store.ConversationsUpdated = d.now()
	d.saveSnapshot(ctx, "channels", conversations)
	d.log.Info("conversations updated", "count", len(conversations))
	return nil
}

func (d *Directory) saveSnapshot(ctx context.Context, name string, v any) {
	if err := d.snaps.Save(ctx, name, v); err != nil {
		d.log.Warn("snapshot write failed", "name", name, "error", err)
	}
}
