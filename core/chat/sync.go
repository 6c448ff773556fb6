// Package chat maintains ordered, append-only message state for chat
// rooms and resolves sender identity across the payload shapes the
// server emits.
//
// The server-assigned order of a fetched sequence is authoritative: the
// locally held sequence is never re-sorted after append. A sent message
// is appended at the tail only after the server acknowledges it, so
// there is no rollback path. Push events and polls feed the same append
// contract; duplicate message ids from their overlap are dropped.
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
	// ErrNoRoom is returned when a send targets no selected room.
	ErrNoRoom = errors.New("no room selected")

	// ErrEmptyMessage is returned when a send carries only whitespace.
	ErrEmptyMessage = errors.New("empty message")

	// ErrSendInFlight is returned when a send is issued for a room whose
	// previous send has not settled. Sends are serialized per room to
	// avoid duplicate or out-of-order appends.
	ErrSendInFlight = errors.New("send already in flight for room")

	// ErrStaleLoad is returned when a fetch settles after its room was
	// reloaded or deselected. The late response is discarded instead of
	// overwriting current state.
	ErrStaleLoad = errors.New("stale room load discarded")
)

// NameResolver resolves a user id to a display name. *directory.Cache
// satisfies this; a nil resolver falls back to the raw identifier.
type NameResolver interface {
	DisplayName(id core.UserID) string
}

// Sender is the resolved identity of a message's sender relative to the
// viewer.
type Sender struct {
	// IsMine is true when the sender's normalized id equals the
	// viewer's id.
	IsMine bool

	// DisplayName is "username (name)" when the sender resolved, the
	// raw identifier otherwise.
	DisplayName string
}

// Config configures a Synchronizer.
type Config struct {
	// Messages is the message transport. Required.
	Messages transport.MessageSource

	// Names resolves sender ids for display when a message arrives with
	// a bare identifier. Optional; nil falls back to raw ids.
	Names NameResolver

	// Logger for sync events. Falls back to slog.Default() if nil.
	Logger *slog.Logger
}

// roomState is the per-room ordered message sequence plus the bookkeeping
// that keeps it consistent: a load generation for discarding stale
// fetches, a seen-id set for push/poll overlap, and the send latch.
type roomState struct {
	messages []core.Message
	seen     map[string]struct{}
	gen      uint64
	sending  bool
}

func (st *roomState) replace(msgs []core.Message) {
	st.messages = msgs
	st.seen = make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if m.ID != "" {
			st.seen[m.ID] = struct{}{}
		}
	}
}

// append adds a message at the tail unless its id was already seen.
// Returns true if the message was appended.
func (st *roomState) append(m core.Message) bool {
	if m.ID != "" {
		if st.seen == nil {
			st.seen = make(map[string]struct{})
		}
		if _, dup := st.seen[m.ID]; dup {
			return false
		}
		st.seen[m.ID] = struct{}{}
	}
	st.messages = append(st.messages, m)
	return true
}

// Synchronizer maintains message state for any number of rooms, one of
// which may be active. All state transitions happen in response to a
// discrete event: a fetch settling, a send acknowledged, a push event
// arriving, a room selected.
type Synchronizer struct {
	cfg Config
	log *slog.Logger

	mu     sync.Mutex
	rooms  map[core.RoomID]*roomState
	active core.RoomID

	onAppend func(roomID core.RoomID, msg core.Message)
	onLoaded func(roomID core.RoomID, count int)
}

// New creates a Synchronizer over the given message source.
func New(cfg Config) *Synchronizer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		cfg:   cfg,
		log:   logger.WithGroup("chat"),
		rooms: make(map[core.RoomID]*roomState),
	}
}

// SetOnAppend sets the callback invoked after a message is appended to a
// room's sequence, whatever its origin (send ack, poll, push). Callbacks
// run outside the internal lock and may call back into the Synchronizer.
func (s *Synchronizer) SetOnAppend(fn func(roomID core.RoomID, msg core.Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAppend = fn
}

// SetOnLoaded sets the callback invoked after a room's sequence is
// replaced by a settled fetch. Callbacks run outside the internal lock
// and may call back into the Synchronizer.
func (s *Synchronizer) SetOnLoaded(fn func(roomID core.RoomID, count int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLoaded = fn
}

// room returns the state bucket for roomID, creating it if needed.
// Must be called with s.mu held.
func (s *Synchronizer) room(roomID core.RoomID) *roomState {
	st, ok := s.rooms[roomID]
	if !ok {
		st = &roomState{}
		s.rooms[roomID] = st
	}
	return st
}

// SelectRoom makes roomID the active room. Selecting the zero RoomID is
// the valid "no room selected" state. In-flight fetches for the
// previously active room are invalidated so a late response cannot
// overwrite state the user has navigated away from.
func (s *Synchronizer) SelectRoom(roomID core.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == roomID {
		return
	}
	if prev := s.active; !prev.IsZero() {
		if st, ok := s.rooms[prev]; ok {
			st.gen++
		}
	}
	s.active = roomID
}

// ActiveRoom returns the currently selected room id, which may be zero.
func (s *Synchronizer) ActiveRoom() core.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// LoadRoom fetches roomID's messages and replaces the local sequence
// with them, in server order. A zero roomID is a no-op. If the room was
// reloaded or deselected while the fetch was in flight, the response is
// discarded and ErrStaleLoad is returned.
//
// A load failure keeps the previous (possibly empty) sequence and logs a
// diagnostic; the caller stays usable with an empty room.
func (s *Synchronizer) LoadRoom(ctx context.Context, roomID core.RoomID) error {
	if roomID.IsZero() {
		return nil
	}

	s.mu.Lock()
	st := s.room(roomID)
	st.gen++
	gen := st.gen
	s.mu.Unlock()

	msgs, err := s.cfg.Messages.ListMessages(ctx, roomID)

	s.mu.Lock()
	if st.gen != gen {
		s.mu.Unlock()
		s.log.Debug("discarding stale room load", "room", roomID)
		return ErrStaleLoad
	}
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("room load failed", "room", roomID, "error", err)
		return err
	}
	st.replace(msgs)
	loaded := s.onLoaded
	s.mu.Unlock()

	if loaded != nil {
		loaded(roomID, len(msgs))
	}
	return nil
}

// Send submits text to roomID and, once the server acknowledges, appends
// the echoed message at the tail. On failure nothing is appended and the
// error is returned to the initiating caller; there is no automatic
// retry. Sends are serialized per room: a second Send while one is
// pending returns ErrSendInFlight.
func (s *Synchronizer) Send(ctx context.Context, roomID core.RoomID, text string) (core.Message, error) {
	if roomID.IsZero() {
		return core.Message{}, ErrNoRoom
	}
	if strings.TrimSpace(text) == "" {
		return core.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	st := s.room(roomID)
	if st.sending {
		s.mu.Unlock()
		return core.Message{}, ErrSendInFlight
	}
	st.sending = true
	s.mu.Unlock()

	msg, err := s.cfg.Messages.SendMessage(ctx, roomID, text)

	s.mu.Lock()
	st.sending = false
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("send failed", "room", roomID, "error", err)
		return core.Message{}, err
	}
	appended := st.append(msg)
	notify := s.onAppend
	s.mu.Unlock()

	if appended && notify != nil {
		notify(roomID, msg)
	}
	return msg, nil
}

// HandlePush ingests a server-originated message event. It satisfies
// transport.PushHandler, so it can be attached directly to a push feed.
// Events for any room are accepted; duplicates of already-held ids
// (push/poll overlap) are dropped.
func (s *Synchronizer) HandlePush(ev transport.PushEvent) {
	if ev.RoomID.IsZero() {
		return
	}
	s.mu.Lock()
	st := s.room(ev.RoomID)
	appended := st.append(ev.Message)
	notify := s.onAppend
	s.mu.Unlock()

	if appended && notify != nil {
		notify(ev.RoomID, ev.Message)
	}
}

// Messages returns a snapshot of roomID's sequence in append order. A
// zero or unknown roomID yields an empty snapshot rather than an error.
func (s *Synchronizer) Messages(roomID core.RoomID) []core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]core.Message, len(st.messages))
	copy(out, st.messages)
	return out
}

// ResolveSender normalizes a message's sender to a stable identity key
// and compares it against the viewer. Both sender shapes (bare id,
// embedded object) resolve identically; skipping the normalization is
// what misaligns messages in naive clients.
func (s *Synchronizer) ResolveSender(msg core.Message, viewer *core.User) Sender {
	id := msg.Sender.ID()

	out := Sender{DisplayName: id.String()}
	if viewer != nil && !viewer.ID.IsZero() && id == viewer.ID {
		out.IsMine = true
	}

	if u := msg.Sender.User(); u != nil {
		out.DisplayName = u.Username + " (" + u.Name + ")"
	} else if s.cfg.Names != nil {
		out.DisplayName = s.cfg.Names.DisplayName(id)
	}
	return out
}
