// Package transport defines the interfaces the client core consumes to
// reach the work-order API, plus the error taxonomy shared by all
// implementations.
//
// The core never implements these: persistence and ordering are owned by
// the remote API. The primary implementation is pull-based HTTP
// (transport/rest); push channels (transport/mqtt) are additive and feed
// the same append/normalize contract.
package transport

import (
	"context"

	"github.com/workorder-org/workorder-go/core"
)

// DirectorySource supplies the user roster.
type DirectorySource interface {
	// ListUsers fetches the full directory. Order is the fetch order and
	// is preserved by consumers (mention ranking is stable on it).
	ListUsers(ctx context.Context) ([]core.User, error)

	// GetUser fetches a single directory entry by id.
	GetUser(ctx context.Context, id core.UserID) (core.User, error)
}

// NewPost is the payload for creating or replacing a post.
type NewPost struct {
	Title      string          `json:"title"`
	Category   core.Category   `json:"category"`
	Importance core.Importance `json:"importance"`
	Content    string          `json:"content"`
}

// PostSource supplies and mutates board posts.
type PostSource interface {
	// ListPosts fetches the full unfiltered post set. Visibility
	// filtering is a client-side concern (core/board).
	ListPosts(ctx context.Context) ([]core.Post, error)

	// GetPost fetches a single post by id.
	GetPost(ctx context.Context, id string) (core.Post, error)

	// CreatePost submits a new post and returns the created entity.
	CreatePost(ctx context.Context, p NewPost) (core.Post, error)

	// UpdatePost replaces a post by id with the same shape as creation.
	UpdatePost(ctx context.Context, id string, p NewPost) (core.Post, error)
}

// CommentSource supplies and appends post comments.
type CommentSource interface {
	ListComments(ctx context.Context, postID string) ([]core.Comment, error)
	CreateComment(ctx context.Context, postID, content string) (core.Comment, error)
}

// NewRoom is the payload for creating a chat room. Participants are
// fixed at creation.
type NewRoom struct {
	Name         string        `json:"name"`
	Participants []core.UserID `json:"participants"`
}

// RoomSource supplies and creates chat rooms.
type RoomSource interface {
	ListRooms(ctx context.Context) ([]core.ChatRoom, error)
	CreateRoom(ctx context.Context, r NewRoom) (core.ChatRoom, error)
}

// MessageSource supplies and appends room messages.
type MessageSource interface {
	// ListMessages fetches a room's messages in server order. The
	// returned order is authoritative and must not be re-sorted.
	ListMessages(ctx context.Context, roomID core.RoomID) ([]core.Message, error)

	// SendMessage submits text to a room and returns the server-echoed
	// message. Nothing is appended locally unless this succeeds.
	SendMessage(ctx context.Context, roomID core.RoomID, text string) (core.Message, error)
}

// Credentials is a bearer token plus the identity it belongs to, as
// returned by signup and login.
type Credentials struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// Authenticator establishes a session. The resulting token is opaque to
// the core; components only care whether a viewer identity is available.
type Authenticator interface {
	Signup(ctx context.Context, username, password, name, position string) (Credentials, error)
	Login(ctx context.Context, username, password string) (Credentials, error)
}

// PushEvent is one server-originated event delivered over a push feed.
type PushEvent struct {
	// RoomID is the room the event belongs to.
	RoomID core.RoomID

	// Message is the created message.
	Message core.Message
}

// PushHandler is called for each decoded push event.
type PushHandler func(ev PushEvent)

// StateHandler is called when a push feed's connection state changes.
type StateHandler func(feed PushFeed, event Event)

// PushFeed is an additive push channel for chat messages. Attaching one
// never changes the synchronizer's append/normalize contract; it only
// removes the need to poll.
type PushFeed interface {
	// Start begins the feed's connection and event handling. The
	// provided context controls the feed's lifetime.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the feed.
	Stop() error
	// IsConnected returns true if the feed is currently connected.
	IsConnected() bool
	// SetPushHandler sets the callback for incoming events.
	SetPushHandler(fn PushHandler)
	// SetStateHandler sets the callback for connection state changes.
	SetStateHandler(fn StateHandler)
	// Subscribe starts delivery of events for the given room.
	Subscribe(roomID core.RoomID) error
	// Unsubscribe stops delivery of events for the given room.
	Unsubscribe(roomID core.RoomID) error
}

// Event represents push feed state change events.
type Event int

const (
	// EventConnected is fired when the feed connects.
	EventConnected Event = iota
	// EventDisconnected is fired when the feed disconnects.
	EventDisconnected
	// EventReconnecting is fired when the feed is attempting to reconnect.
	EventReconnecting
	// EventError is fired when an error occurs.
	EventError
)

func (e Event) String() string {
	switch e {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventReconnecting:
		return "reconnecting"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
