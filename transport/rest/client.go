// Package rest implements the work-order API over plain HTTPS
// request/response. It is the primary, pull-based transport: every
// collection the core holds is a read-once snapshot fetched here.
//
// The bearer credential is injected through an explicit token source;
// nothing in this package reads ambient session storage.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/workorder-org/workorder-go/core"
	"github.com/workorder-org/workorder-go/transport"
)

// Compile-time interface checks.
var (
	_ transport.DirectorySource = (*Client)(nil)
	_ transport.PostSource      = (*Client)(nil)
	_ transport.CommentSource   = (*Client)(nil)
	_ transport.RoomSource      = (*Client)(nil)
	_ transport.MessageSource   = (*Client)(nil)
	_ transport.Authenticator   = (*Client)(nil)
)

const (
	// DefaultBaseURL is the deployed API root.
	DefaultBaseURL = "https://api.work-order.org/v1"

	// defaultTimeout bounds a single request when the caller's context
	// carries no deadline of its own.
	defaultTimeout = 15 * time.Second
)

// TokenSource supplies the current bearer credential, or "" when no
// session is established. It is called per request so a re-login is
// picked up without rebuilding the client.
type TokenSource func() string

// Config holds the configuration for a REST client.
type Config struct {
	// BaseURL is the API root (default: DefaultBaseURL).
	BaseURL string
	// Token supplies the bearer credential for authenticated calls.
	// Optional; unauthenticated calls (signup, login) never use it.
	Token TokenSource
	// HTTPClient is the underlying client. If nil, a client with a
	// default timeout is used.
	HTTPClient *http.Client
	// Logger is the logger to use. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client talks to the work-order API.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// New creates a REST client with the given configuration.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		cfg:  cfg,
		http: hc,
		log:  cfg.Logger.WithGroup("rest"),
	}
}

// do performs one request/response cycle and decodes the body into out
// (unless out is nil). Errors map onto the transport taxonomy:
// NetworkError when the request could not complete, ServerError on a
// non-2xx status, DecodeError on an unparseable success body.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any, authed bool) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("X-Request-Id", uuid.NewString())
	}
	if authed && c.cfg.Token != nil {
		if tok := c.cfg.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &transport.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := extractReason(resp.Body)
		c.log.Debug("request rejected", "op", op, "status", resp.StatusCode, "reason", reason)
		return &transport.ServerError{Op: op, Status: resp.StatusCode, Reason: reason}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &transport.DecodeError{Op: op, Err: err}
	}
	return nil
}

// extractReason pulls the server's failure reason out of a non-success
// body: the "error" or "message" field of a JSON object, falling back to
// the raw text when the body is not JSON.
func extractReason(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var shaped struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &shaped) == nil {
		if shaped.Error != "" {
			return shaped.Error
		}
		if shaped.Message != "" {
			return shaped.Message
		}
	}
	return strings.TrimSpace(string(raw))
}

// ListUsers fetches the full user directory.
func (c *Client) ListUsers(ctx context.Context) ([]core.User, error) {
	var users []core.User
	if err := c.do(ctx, "list users", http.MethodGet, "/users", nil, &users, true); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one directory entry by id.
func (c *Client) GetUser(ctx context.Context, id core.UserID) (core.User, error) {
	var u core.User
	err := c.do(ctx, "get user", http.MethodGet, "/users/"+url.PathEscape(id.String()), nil, &u, true)
	return u, err
}

// ListPosts fetches the full unfiltered post set.
func (c *Client) ListPosts(ctx context.Context) ([]core.Post, error) {
	var posts []core.Post
	if err := c.do(ctx, "list posts", http.MethodGet, "/posts", nil, &posts, true); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches one post by id.
func (c *Client) GetPost(ctx context.Context, id string) (core.Post, error) {
	var p core.Post
	err := c.do(ctx, "get post", http.MethodGet, "/posts/"+url.PathEscape(id), nil, &p, true)
	return p, err
}

// CreatePost submits a new post.
func (c *Client) CreatePost(ctx context.Context, p transport.NewPost) (core.Post, error) {
	var created core.Post
	err := c.do(ctx, "create post", http.MethodPost, "/posts", p, &created, true)
	return created, err
}

// UpdatePost replaces a post by id with the same shape as creation.
func (c *Client) UpdatePost(ctx context.Context, id string, p transport.NewPost) (core.Post, error) {
	var updated core.Post
	err := c.do(ctx, "update post", http.MethodPut, "/posts/"+url.PathEscape(id), p, &updated, true)
	return updated, err
}

// ListComments fetches a post's comments.
func (c *Client) ListComments(ctx context.Context, postID string) ([]core.Comment, error) {
	var comments []core.Comment
	path := "/posts/" + url.PathEscape(postID) + "/comments"
	if err := c.do(ctx, "list comments", http.MethodGet, path, nil, &comments, true); err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment appends a comment to a post.
func (c *Client) CreateComment(ctx context.Context, postID, content string) (core.Comment, error) {
	var created core.Comment
	path := "/posts/" + url.PathEscape(postID) + "/comments"
	payload := struct {
		Content string `json:"content"`
	}{Content: content}
	err := c.do(ctx, "create comment", http.MethodPost, path, payload, &created, true)
	return created, err
}

// ListRooms fetches the viewer's chat rooms.
func (c *Client) ListRooms(ctx context.Context) ([]core.ChatRoom, error) {
	var rooms []core.ChatRoom
	if err := c.do(ctx, "list rooms", http.MethodGet, "/chat-rooms", nil, &rooms, true); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateRoom creates a chat room with a fixed participant set.
func (c *Client) CreateRoom(ctx context.Context, r transport.NewRoom) (core.ChatRoom, error) {
	var created core.ChatRoom
	err := c.do(ctx, "create room", http.MethodPost, "/chat-rooms", r, &created, true)
	return created, err
}

// ListMessages fetches a room's messages in server order.
func (c *Client) ListMessages(ctx context.Context, roomID core.RoomID) ([]core.Message, error) {
	var msgs []core.Message
	path := "/chat-rooms/" + url.PathEscape(roomID.String()) + "/messages"
	if err := c.do(ctx, "list messages", http.MethodGet, path, nil, &msgs, true); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage submits text to a room and returns the server-echoed
// message.
func (c *Client) SendMessage(ctx context.Context, roomID core.RoomID, text string) (core.Message, error) {
	var created core.Message
	path := "/chat-rooms/" + url.PathEscape(roomID.String()) + "/messages"
	payload := struct {
		Text string `json:"text"`
	}{Text: text}
	err := c.do(ctx, "send message", http.MethodPost, path, payload, &created, true)
	if err == nil && created.RoomID.IsZero() {
		created.RoomID = roomID
	}
	return created, err
}

// Signup registers a new user and returns the established credentials.
func (c *Client) Signup(ctx context.Context, username, password, name, position string) (transport.Credentials, error) {
	var creds transport.Credentials
	payload := struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Position string `json:"position"`
	}{username, password, name, position}
	err := c.do(ctx, "signup", http.MethodPost, "/users", payload, &creds, false)
	return creds, err
}

// Login authenticates an existing user.
func (c *Client) Login(ctx context.Context, username, password string) (transport.Credentials, error) {
	var creds transport.Credentials
	payload := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password}
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", payload, &creds, false)
	return creds, err
}
