// Package board partitions the flat post collection into the notice
// list and the per-status kanban columns.
//
// The server returns the full unfiltered post set; this package is the
// only gate between "all posts" and "my posts". It must be re-applied
// every time the viewer identity changes and never assumes the server
// pre-filtered anything.
package board

import (
	"github.com/workorder-org/workorder-go/core"
)

// Board is the classified view of the post collection for one viewer.
type Board struct {
	// Notices holds every post in the broadcast category, regardless of
	// viewer. No visibility filter applies.
	Notices []core.Post

	// Columns holds the task pool partitioned by category. Only the
	// three task categories appear as keys.
	Columns map[core.Category][]core.Post
}

// Column returns the posts in the given column, or nil for an unknown
// category.
func (b Board) Column(c core.Category) []core.Post {
	return b.Columns[c]
}

// TaskCount returns the total number of posts across all columns.
func (b Board) TaskCount() int {
	n := 0
	for _, col := range b.Columns {
		n += len(col)
	}
	return n
}

// Classify partitions posts into notices and task columns for the given
// viewer.
//
// Notices are every post with the Notice category. The task pool is the
// posts the viewer authored or is mentioned in; a nil viewer yields empty
// columns so task content is never shown to an unresolved identity. A
// post where the viewer is both author and mentioned appears exactly
// once. Order within each list is the insertion order of the source
// slice, which preserves the server-provided ordering.
func Classify(posts []core.Post, viewer *core.User) Board {
	b := Board{
		Columns: make(map[core.Category][]core.Post, len(core.TaskCategories)),
	}
	for _, c := range core.TaskCategories {
		b.Columns[c] = nil
	}

	for _, p := range posts {
		if p.Category == core.CategoryNotice {
			b.Notices = append(b.Notices, p)
			continue
		}
		if viewer == nil || viewer.ID.IsZero() {
			continue
		}
		if !visibleTo(&p, viewer.ID) {
			continue
		}
		if !p.Category.IsTask() {
			// Unknown category: the post is visible but has no column.
			continue
		}
		b.Columns[p.Category] = append(b.Columns[p.Category], p)
	}

	return b
}

// visibleTo reports whether a non-notice post belongs to the viewer's
// task pool: authored by the viewer or mentioning the viewer. Authorship
// and mention are a union by id, so a post matching both still yields a
// single membership.
func visibleTo(p *core.Post, viewer core.UserID) bool {
	if p.Author.ID == viewer {
		return true
	}
	return p.MentionsUser(viewer)
}
