// Package session carries the viewer identity and credential through the
// client explicitly. Components take the session (or the viewer) as a
// parameter; nothing reads ambient storage.
package session

import (
	"github.com/workorder-org/workorder-go/core"
	"github.com/workorder-org/workorder-go/transport"
)

// Session is the locally cached identity state: the authenticated viewer
// and the opaque bearer credential the transport attaches to requests.
// The zero value is the logged-out state.
type Session struct {
	Viewer *core.User
	Token  string
}

// FromCredentials builds a session from a signup or login result.
func FromCredentials(c transport.Credentials) Session {
	u := c.User
	return Session{Viewer: &u, Token: c.Token}
}

// HasViewer returns true when a viewer identity is available. Task
// columns stay empty and send operations are unavailable without one.
func (s Session) HasViewer() bool {
	return s.Viewer != nil && !s.Viewer.ID.IsZero()
}

// CanEdit reports whether the viewer may edit the given post: only its
// author. This is the sole client-side authorization decision and it is
// advisory — it hides the edit affordance in a UI. The remote API is the
// authority of record and enforces ownership on the edit endpoint itself.
func CanEdit(p *core.Post, viewer *core.User) bool {
	if p == nil || viewer == nil || viewer.ID.IsZero() {
		return false
	}
	return p.Author.ID == viewer.ID
}

// CanEdit is the method form of the package-level gate, evaluated against
// the session's viewer.
func (s Session) CanEdit(p *core.Post) bool {
	return CanEdit(p, s.Viewer)
}
