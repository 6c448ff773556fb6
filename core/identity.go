// Package core defines the shared data model for the work-order
// collaboration API: users, posts, comments, chat rooms and messages.
//
// Identity is compared by id, never by username or display name. The
// server emits Mongo-style "_id" keys; some older payloads carry "id"
// instead, and both are accepted on decode.
package core

import (
	"encoding/json"
	"fmt"
)

// UserID is the stable identity key for a user within a session.
type UserID string

// IsZero returns true if the id is empty (no identity).
func (id UserID) IsZero() bool {
	return id == ""
}

func (id UserID) String() string {
	return string(id)
}

// RoomID identifies a chat room. Rooms are never merged or split; every
// message belongs to exactly one room.
type RoomID string

// IsZero returns true when no room is selected. This is a valid state,
// not an error.
func (id RoomID) IsZero() bool {
	return id == ""
}

func (id RoomID) String() string {
	return string(id)
}

// User is a directory entry. Immutable once fetched within a session.
type User struct {
	ID       UserID `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

// userAlias tolerates both "_id" and "id" keys on decode.
type userAlias struct {
	ID       UserID `json:"_id"`
	AltID    UserID `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

// UnmarshalJSON decodes a user object, accepting either "_id" or "id"
// as the identity key.
func (u *User) UnmarshalJSON(data []byte) error {
	var a userAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	id := a.ID
	if id.IsZero() {
		id = a.AltID
	}
	*u = User{ID: id, Username: a.Username, Name: a.Name, Position: a.Position}
	return nil
}

// UserRef is a reference to a user that may arrive either denormalized
// (an embedded user object) or normalized (a bare id string). Both shapes
// reduce to the same UserID so that equality checks against the viewer
// never depend on how the server happened to serialize the sender.
type UserRef struct {
	id   UserID
	user *User
}

// RefToUser builds a resolved reference to the given user.
func RefToUser(u User) UserRef {
	return UserRef{id: u.ID, user: &u}
}

// RefToID builds an unresolved reference carrying only the identity key.
func RefToID(id UserID) UserRef {
	return UserRef{id: id}
}

// ID returns the normalized identity key, regardless of the shape the
// reference arrived in.
func (r UserRef) ID() UserID {
	return r.id
}

// User returns the embedded user object, or nil if the reference arrived
// as a bare identifier.
func (r UserRef) User() *User {
	return r.user
}

// IsResolved returns true if the reference carries the full user object.
func (r UserRef) IsResolved() bool {
	return r.user != nil
}

// UnmarshalJSON accepts either a JSON string (bare id) or a user object.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty user reference")
	}
	if data[0] == '"' {
		var id UserID
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = UserRef{id: id}
		return nil
	}
	if string(data) == "null" {
		*r = UserRef{}
		return nil
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	*r = UserRef{id: u.ID, user: &u}
	return nil
}

// MarshalJSON writes back the shape the reference carries: the full
// object when resolved, the bare id string otherwise.
func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.user != nil {
		return json.Marshal(r.user)
	}
	return json.Marshal(r.id)
}
