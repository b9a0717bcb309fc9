package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIRoot = "https://slack.com/api"
	listPageLimit  = "200"
	defaultTimeout = 10 * time.Second
)

// SlackClient talks to the Slack Web API. It implements API.
type SlackClient struct {
	token      string
	apiRoot    string
	httpClient *http.Client
}

// SlackOption customizes a SlackClient.
type SlackOption func(*SlackClient)

// WithAPIRoot overrides the API root. Used by tests to point at a fake server.
func WithAPIRoot(root string) SlackOption {
	return func(c *SlackClient) {
		c.apiRoot = strings.TrimRight(root, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) SlackOption {
	return func(c *SlackClient) {
		c.httpClient = httpClient
	}
}

// NewSlackClient creates a client authenticating with the given bot token.
func NewSlackClient(token string, opts ...SlackOption) *SlackClient {
	c := &SlackClient{
		token:      token,
		apiRoot:    defaultAPIRoot,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ack is the envelope every Slack Web API response carries.
type ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (c *SlackClient) get(ctx context.Context, method string, params url.Values, out any) error {
	endpoint := c.apiRoot + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, method, out)
}

func (c *SlackClient) post(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiRoot+"/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method, out)
}

func (c *SlackClient) do(req *http.Request, method string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("slack %s: failed to read response: %w", method, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack %s status=%d body=%s", method, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var envelope ack
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("slack %s: failed to decode response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("slack %s error: %s", method, envelope.Error)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("slack %s: failed to decode response: %w", method, err)
		}
	}
	return nil
}

// ListUsers fetches one page of users.list.
func (c *SlackClient) ListUsers(ctx context.Context, cursor string) (UsersPage, error) {
	params := url.Values{"limit": {listPageLimit}}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var resp struct {
		Members []struct {
			Name    string `json:"name"`
			ID      string `json:"id"`
			Deleted bool   `json:"deleted"`
		} `json:"members"`
		ResponseMetadata struct {
			NextCursor string `json:"next_cursor"`
		} `json:"response_metadata"`
	}
	if err := c.get(ctx, "users.list", params, &resp); err != nil {
		return UsersPage{}, err
	}

	page := UsersPage{NextCursor: resp.ResponseMetadata.NextCursor}
	for _, m := range resp.Members {
		page.Users = append(page.Users, User{Handle: m.Name, ID: m.ID, Deactivated: m.Deleted})
	}
	return page, nil
}

// ListConversations fetches one page of conversations.list.
func (c *SlackClient) ListConversations(ctx context.Context, cursor string) (ConversationsPage, error) {
	params := url.Values{"limit": {listPageLimit}}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var resp struct {
		Channels []struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		} `json:"channels"`
		ResponseMetadata struct {
			NextCursor string `json:"next_cursor"`
		} `json:"response_metadata"`
	}
	if err := c.get(ctx, "conversations.list", params, &resp); err != nil {
		return ConversationsPage{}, err
	}

	page := ConversationsPage{NextCursor: resp.ResponseMetadata.NextCursor}
	for _, ch := range resp.Channels {
		page.Conversations = append(page.Conversations, Conversation{Name: ch.Name, ID: ch.ID})
	}
	return page, nil
}

// GetTopic reads the current topic text of a channel via conversations.info.
func (c *SlackClient) GetTopic(ctx context.Context, channelID string) (string, error) {
	var resp struct {
		Channel struct {
			Topic struct {
				Value string `json:"value"`
			} `json:"topic"`
		} `json:"channel"`
	}
	params := url.Values{"channel": {channelID}}
	if err := c.get(ctx, "conversations.info", params, &resp); err != nil {
		return "", err
	}
	return resp.Channel.Topic.Value, nil
}

// SetTopic replaces a channel's topic via conversations.setTopic.
func (c *SlackClient) SetTopic(ctx context.Context, channelID string, topic string) error {
	payload := map[string]string{
		"channel": channelID,
		"topic":   topic,
	}
	return c.post(ctx, "conversations.setTopic", payload, nil)
}

// SendDirectMessage opens (or reuses) a direct-message conversation with the
// user and posts the text into it.
func (c *SlackClient) SendDirectMessage(ctx context.Context, userID string, text string) error {
	var opened struct {
		Channel struct {
			ID string `json:"id"`
		} `json:"channel"`
	}
	if err := c.post(ctx, "conversations.open", map[string]string{"users": userID}, &opened); err != nil {
		return err
	}

	payload := map[string]string{
		"channel": opened.Channel.ID,
		"text":    text,
	}
	return c.post(ctx, "chat.postMessage", payload, nil)
}
