// Package chat provides the chat collaborator contract consumed by the
// reconciliation core, and its Slack Web API implementation.
package chat

import "context"

// User is one entry of the chat user directory.
type User struct {
	Handle      string // display-name-level identifier
	ID          string // transport-level user id
	Deactivated bool
}

// UsersPage is one page of the user listing. An empty NextCursor means the
// listing is complete.
type UsersPage struct {
	Users      []User
	NextCursor string
}

// Conversation is one entry of the conversation directory.
type Conversation struct {
	Name string
	ID   string // transport-level channel id
}

// ConversationsPage is one page of the conversation listing.
type ConversationsPage struct {
	Conversations []Conversation
	NextCursor    string
}

// API is the capability contract the core consumes. Transport and auth
// mechanics live entirely behind it.
type API interface {
	ListUsers(ctx context.Context, cursor string) (UsersPage, error)
	ListConversations(ctx context.Context, cursor string) (ConversationsPage, error)
	GetTopic(ctx context.Context, channelID string) (string, error)
	SetTopic(ctx context.Context, channelID string, topic string) error
	SendDirectMessage(ctx context.Context, userID string, text string) error
}
