package core

import (
	"encoding/json"
	"time"
)

// Category is the closed set of post categories. The wire values are the
// Korean strings used by the deployed API.
type Category string

const (
	// CategoryNotice is the broadcast category. Notices are visible to
	// every viewer and never enter the task columns.
	CategoryNotice Category = "공지사항"
	// CategoryNew holds tasks that have not been started.
	CategoryNew Category = "새로운 작업"
	// CategoryInProgress holds tasks currently being worked.
	CategoryInProgress Category = "진행중"
	// CategoryDone holds finished tasks.
	CategoryDone Category = "완료"
)

// TaskCategories lists the kanban columns in display order.
var TaskCategories = []Category{CategoryNew, CategoryInProgress, CategoryDone}

// IsTask returns true for the three kanban column categories.
func (c Category) IsTask() bool {
	return c == CategoryNew || c == CategoryInProgress || c == CategoryDone
}

// Valid returns true if c is one of the four known categories.
func (c Category) Valid() bool {
	return c == CategoryNotice || c.IsTask()
}

// Importance is the priority label attached to a post.
type Importance string

const (
	ImportanceUrgent   Importance = "Urgent"
	ImportancePriority Importance = "Priority"
	ImportanceTrivial  Importance = "Trivial"
	ImportanceOptional Importance = "Optional"
)

// Post is a board entry: either a notice or a task. Owned by its author;
// mutable only by the author (advisory, enforced server-side).
type Post struct {
	ID         string     `json:"_id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Category   Category   `json:"category"`
	Importance Importance `json:"importance"`
	Author     User       `json:"author"`
	Mentions   []User     `json:"mentions"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// MentionsUser returns true if the given id appears in the post's
// mention set.
func (p *Post) MentionsUser(id UserID) bool {
	for _, m := range p.Mentions {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Comment is an append-only child of a post.
type Comment struct {
	ID        string    `json:"_id"`
	PostID    string    `json:"post,omitempty"`
	Content   string    `json:"content"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomPreview is the last-message summary shown in a room list entry.
type RoomPreview struct {
	Content string `json:"content"`
}

// ChatRoom is a direct-messaging room. Participants are fixed at
// creation.
type ChatRoom struct {
	ID           RoomID       `json:"_id"`
	Name         string       `json:"name"`
	Participants []User       `json:"participants"`
	LastMessage  *RoomPreview `json:"lastMessage,omitempty"`
}

// Message is one chat entry. Ordering is server-assigned: the position a
// message holds in a fetched sequence is authoritative and is never
// recomputed from CreatedAt on the client.
type Message struct {
	ID        string    `json:"_id"`
	RoomID    RoomID    `json:"roomId,omitempty"`
	Text      string    `json:"text"`
	Sender    UserRef   `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}

// messageAlias tolerates a missing or malformed createdAt without
// rejecting the whole message.
type messageAlias struct {
	ID        string          `json:"_id"`
	RoomID    RoomID          `json:"roomId"`
	Text      string          `json:"text"`
	Sender    UserRef         `json:"sender"`
	CreatedAt json.RawMessage `json:"createdAt"`
}

// UnmarshalJSON decodes a message, treating an absent or unparseable
// createdAt as the zero time. Display order never depends on it.
func (m *Message) UnmarshalJSON(data []byte) error {
	var a messageAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var ts time.Time
	if len(a.CreatedAt) > 0 {
		// best effort; ignore failures
		_ = json.Unmarshal(a.CreatedAt, &ts)
	}
	*m = Message{ID: a.ID, RoomID: a.RoomID, Text: a.Text, Sender: a.Sender, CreatedAt: ts}
	return nil
}
