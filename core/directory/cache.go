// Package directory caches the user roster and supplies the lookups the
// rest of the client depends on: id resolution for sender display and
// prefix matching for mention autocompletion.
package directory

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/workorder-org/workorder-go/core"
	"github.com/workorder-org/workorder-go/core/mention"
	"github.com/workorder-org/workorder-go/transport"
)

// Config configures a Cache.
type Config struct {
	// Source supplies the roster. Required.
	Source transport.DirectorySource

	// Logger for refresh diagnostics. Falls back to slog.Default() if nil.
	Logger *slog.Logger
}

// Cache holds the current user roster. Within a session users are
// immutable once fetched; a refresh replaces the roster wholesale,
// preserving the fetch order the server returned (mention ranking is
// stable on it).
type Cache struct {
	cfg Config
	log *slog.Logger

	group singleflight.Group

	mu    sync.RWMutex
	users []core.User
	byID  map[core.UserID]core.User
}

// New creates a Cache over the given directory source.
func New(cfg Config) *Cache {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		cfg:  cfg,
		log:  logger.WithGroup("directory"),
		byID: make(map[core.UserID]core.User),
	}
}

// Refresh fetches the roster and replaces the cached copy. Concurrent
// callers are coalesced into a single fetch. On failure the previous
// roster (possibly empty) is kept, a diagnostic is logged, and the error
// is returned; callers remain usable either way.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		users, err := c.cfg.Source.ListUsers(ctx)
		if err != nil {
			c.log.Warn("directory refresh failed", "error", err)
			return nil, err
		}

		byID := make(map[core.UserID]core.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}

		c.mu.Lock()
		c.users = users
		c.byID = byID
		c.mu.Unlock()

		c.log.Debug("directory refreshed", "count", len(users))
		return nil, nil
	})
	return err
}

// Users returns a snapshot of the roster in fetch order.
func (c *Cache) Users() []core.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.User, len(c.users))
	copy(out, c.users)
	return out
}

// ByID returns the roster entry for the given id, if present.
func (c *Cache) ByID(id core.UserID) (core.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.byID[id]
	return u, ok
}

// DisplayName resolves an id to "username (name)". Until the roster
// resolves the id, the raw identifier is returned so callers can render
// something meaningful while fetches are still in flight.
func (c *Cache) DisplayName(id core.UserID) string {
	if u, ok := c.ByID(id); ok {
		return u.Username + " (" + u.Name + ")"
	}
	return id.String()
}

// MatchPrefix returns the roster entries whose username starts with
// prefix, case-insensitively, in roster order.
func (c *Cache) MatchPrefix(prefix string) []core.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return mention.RankCandidates(prefix, c.users)
}

// Count returns the number of cached roster entries.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}
