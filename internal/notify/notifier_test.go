package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dutybot/internal/cache"
	"dutybot/internal/chat"
)

type fakeChat struct {
	dmErr error
	sent  []string // "userID: text"
}

func (f *fakeChat) ListUsers(context.Context, string) (chat.UsersPage, error) {
	return chat.UsersPage{}, nil
}

func (f *fakeChat) ListConversations(context.Context, string) (chat.ConversationsPage, error) {
	return chat.ConversationsPage{}, nil
}

func (f *fakeChat) GetTopic(context.Context, string) (string, error) { return "", nil }

func (f *fakeChat) SetTopic(context.Context, string, string) error { return nil }

func (f *fakeChat) SendDirectMessage(_ context.Context, userID, text string) error {
	if f.dmErr != nil {
		return f.dmErr
	}
	f.sent = append(f.sent, userID+": "+text)
	return nil
}

var _ chat.API = (*fakeChat)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotify(t *testing.T) {
	t.Run("delivers once ready", func(t *testing.T) {
		api := &fakeChat{}
		store := cache.New(nil)
		store.ChatUsers["ann.kh"] = "U42"

		n := New(api, store, "ann.kh", discardLogger())
		n.MarkReady()
		n.Notify(context.Background(), "something broke")

		require.Len(t, api.sent, 1)
		assert.Equal(t, "U42: something broke", api.sent[0])
	})

	t.Run("blocks until MarkReady", func(t *testing.T) {
		api := &fakeChat{}
		store := cache.New(nil)
		store.ChatUsers["ann.kh"] = "U42"

		n := New(api, store, "ann.kh", discardLogger())

		delivered := make(chan struct{})
		go func() {
			n.Notify(context.Background(), "delayed")
			close(delivered)
		}()

		select {
		case <-delivered:
			t.Fatal("notification must not be delivered before the directory is ready")
		case <-time.After(50 * time.Millisecond):
		}

		n.MarkReady()
		select {
		case <-delivered:
		case <-time.After(time.Second):
			t.Fatal("notification never delivered after MarkReady")
		}
		assert.Len(t, api.sent, 1)
	})

	t.Run("context cancellation drops the message", func(t *testing.T) {
		api := &fakeChat{}
		n := New(api, cache.New(nil), "ann.kh", discardLogger())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		n.Notify(ctx, "never leaves") // returns instead of blocking forever

		assert.Empty(t, api.sent)
	})

	t.Run("wait for the directory is bounded", func(t *testing.T) {
		api := &fakeChat{}
		store := cache.New(nil)
		store.ChatUsers["ann.kh"] = "U42"

		// Never marked ready: the first users refresh keeps failing.
		n := New(api, store, "ann.kh", discardLogger(), WithReadyWait(20*time.Millisecond))

		returned := make(chan struct{})
		go func() {
			n.Notify(context.Background(), "dropped")
			close(returned)
		}()

		select {
		case <-returned:
		case <-time.After(2 * time.Second):
			t.Fatal("Notify must give up once the ready wait elapses")
		}
		assert.Empty(t, api.sent)
	})

	t.Run("no admin configured", func(t *testing.T) {
		api := &fakeChat{}
		n := New(api, cache.New(nil), "", discardLogger())
		n.MarkReady()
		n.Notify(context.Background(), "ignored")
		assert.Empty(t, api.sent)
	})

	t.Run("admin handle not in directory", func(t *testing.T) {
		api := &fakeChat{}
		n := New(api, cache.New(nil), "ann.kh", discardLogger())
		n.MarkReady()
		n.Notify(context.Background(), "ignored")
		assert.Empty(t, api.sent)
	})

	t.Run("transport failure is swallowed", func(t *testing.T) {
		api := &fakeChat{dmErr: fmt.Errorf("dm failed")}
		store := cache.New(nil)
		store.ChatUsers["ann.kh"] = "U42"

		n := New(api, store, "ann.kh", discardLogger())
		n.MarkReady()
		n.Notify(context.Background(), "swallowed") // must not panic or propagate
		assert.Empty(t, api.sent)
	})

	t.Run("MarkReady is idempotent", func(t *testing.T) {
		n := New(&fakeChat{}, cache.New(nil), "ann.kh", discardLogger())
		n.MarkReady()
		n.MarkReady()
	})
}
