package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsers(t *testing.T) {
	t.Run("single page with deactivated member", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users.list", r.URL.Path)
			assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
			fmt.Fprint(w, `{"ok":true,"members":[
				{"name":"ivan.ivanov","id":"U9","deleted":false},
				{"name":"old.timer","id":"U1","deleted":true}
			],"response_metadata":{"next_cursor":""}}`)
		}))
		defer srv.Close()

		client := NewSlackClient("xoxb-test", WithAPIRoot(srv.URL))
		page, err := client.ListUsers(context.Background(), "")
		require.NoError(t, err)

		require.Len(t, page.Users, 2)
		assert.Equal(t, User{Handle: "ivan.ivanov", ID: "U9"}, page.Users[0])
		assert.True(t, page.Users[1].Deactivated)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("cursor is forwarded", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "page-2", r.URL.Query().Get("cursor"))
			fmt.Fprint(w, `{"ok":true,"members":[],"response_metadata":{"next_cursor":"page-3"}}`)
		}))
		defer srv.Close()

		client := NewSlackClient("xoxb-test", WithAPIRoot(srv.URL))
		page, err := client.ListUsers(context.Background(), "page-2")
		require.NoError(t, err)
		assert.Equal(t, "page-3", page.NextCursor)
	})

	t.Run("api-level error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":false,"error":"invalid_auth"}`)
		}))
		defer srv.Close()

		client := NewSlackClient("xoxb-bad", WithAPIRoot(srv.URL))
		_, err := client.ListUsers(context.Background(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid_auth")
	})
}

func TestListConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations.list", r.URL.Path)
		fmt.Fprint(w, `{"ok":true,"channels":[
			{"name":"backend-duty","id":"C100"},
			{"name":"support-duty","id":"C200"}
		],"response_metadata":{"next_cursor":"more"}}`)
	}))
	defer srv.Close()

	client := NewSlackClient("xoxb-test", WithAPIRoot(srv.URL))
	page, err := client.ListConversations(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, page.Conversations, 2)
	assert.Equal(t, Conversation{Name: "backend-duty", ID: "C100"}, page.Conversations[0])
	assert.Equal(t, "more", page.NextCursor)
}

func TestGetTopic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations.info", r.URL.Path)
		assert.Equal(t, "C100", r.URL.Query().Get("channel"))
		fmt.Fprint(w, `{"ok":true,"channel":{"topic":{"value":"The master is <@U1>"}}}`)
	}))
	defer srv.Close()

	client := NewSlackClient("xoxb-test", WithAPIRoot(srv.URL))
	topic, err := client.GetTopic(context.Background(), "C100")
	require.NoError(t, err)
	assert.Equal(t, "The master is <@U1>", topic)
}

func TestSetTopic(t *testing.T) {
	t.Run("posts channel and topic", func(t *testing.T) {
		var got map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/conversations.setTopic", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			fmt.Fprint(w, `{"ok":true}`)
		}))
		defer srv.Close()

		client := NewSlackClient("xoxb-test", WithAPIRoot(srv.URL))
		err := client.SetTopic(context.Background(), "C100", "The master is <@U9>")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"channel": "C100", "topic": "The master is <@U9>"}, got)
	})

	t.Run("ack failure surfaces", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":false,"error":"not_in_channel"}`)
		}))
		defer srv.Close()

		client := NewSlackClient("xoxb-test", WithAPIRoot(srv.URL))
		err := client.SetTopic(context.Background(), "C100", "topic")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not_in_channel")
	})
}

func TestSendDirectMessage(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		switch r.URL.Path {
		case "/conversations.open":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "U42", body["users"])
			fmt.Fprint(w, `{"ok":true,"channel":{"id":"D777"}}`)
		case "/chat.postMessage":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "D777", body["channel"])
			assert.Equal(t, "something broke", body["text"])
			fmt.Fprint(w, `{"ok":true}`)
		default:
			t.Fatalf("unexpected call to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewSlackClient("xoxb-test", WithAPIRoot(srv.URL))
	err := client.SendDirectMessage(context.Background(), "U42", "something broke")
	require.NoError(t, err)
	assert.Equal(t, []string{"/conversations.open", "/chat.postMessage"}, calls)
}

func TestHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewSlackClient("xoxb-test", WithAPIRoot(srv.URL))
	_, err := client.GetTopic(context.Background(), "C100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
}
