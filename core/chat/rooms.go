package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/workorder-org/workorder-go/core"
	"github.com/workorder-org/workorder-go/transport"
)

var (
	// ErrRoomNameRequired is returned when a room is created without a name.
	ErrRoomNameRequired = errors.New("room name is required")

	// ErrNoParticipants is returned when a room is created with an empty
	// participant set. Participants are fixed at creation.
	ErrNoParticipants = errors.New("at least one participant is required")
)

// RoomListConfig configures a RoomList.
type RoomListConfig struct {
	// Rooms is the room transport. Required.
	Rooms transport.RoomSource

	// Logger for refresh diagnostics. Falls back to slog.Default() if nil.
	Logger *slog.Logger
}

// RoomList holds the viewer's chat rooms. The room-list fetch is
// independent of the directory and message fetches and may settle in any
// order; an empty list is the usable degraded state when a load fails.
type RoomList struct {
	cfg RoomListConfig
	log *slog.Logger

	mu    sync.RWMutex
	rooms []core.ChatRoom
	byID  map[core.RoomID]core.ChatRoom
}

// NewRoomList creates a RoomList over the given room source.
func NewRoomList(cfg RoomListConfig) *RoomList {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomList{
		cfg:  cfg,
		log:  logger.WithGroup("rooms"),
		byID: make(map[core.RoomID]core.ChatRoom),
	}
}

// Refresh fetches the room list and replaces the cached copy. On failure
// the previous (possibly empty) list is kept and a diagnostic is logged;
// the caller stays usable with an empty list.
func (l *RoomList) Refresh(ctx context.Context) error {
	rooms, err := l.cfg.Rooms.ListRooms(ctx)
	if err != nil {
		l.log.Warn("room list refresh failed", "error", err)
		return err
	}

	byID := make(map[core.RoomID]core.ChatRoom, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}

	l.mu.Lock()
	l.rooms = rooms
	l.byID = byID
	l.mu.Unlock()

	l.log.Debug("room list refreshed", "count", len(rooms))
	return nil
}

// Create submits a new room with a fixed participant set, adds it to the
// cached list on acknowledgment, and returns it. Nothing is added unless
// the server confirmed creation.
func (l *RoomList) Create(ctx context.Context, name string, participants []core.UserID) (core.ChatRoom, error) {
	if strings.TrimSpace(name) == "" {
		return core.ChatRoom{}, ErrRoomNameRequired
	}
	if len(participants) == 0 {
		return core.ChatRoom{}, ErrNoParticipants
	}

	created, err := l.cfg.Rooms.CreateRoom(ctx, transport.NewRoom{
		Name:         name,
		Participants: participants,
	})
	if err != nil {
		l.log.Warn("room create failed", "error", err)
		return core.ChatRoom{}, err
	}

	l.mu.Lock()
	l.rooms = append(l.rooms, created)
	l.byID[created.ID] = created
	l.mu.Unlock()

	return created, nil
}

// Rooms returns a snapshot of the cached rooms in fetch order.
func (l *RoomList) Rooms() []core.ChatRoom {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.ChatRoom, len(l.rooms))
	copy(out, l.rooms)
	return out
}

// Get returns the cached room with the given id, if present.
func (l *RoomList) Get(id core.RoomID) (core.ChatRoom, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.byID[id]
	return r, ok
}

// Count returns the number of cached rooms.
func (l *RoomList) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rooms)
}
