package board

import (
	"testing"

	"github.com/workorder-org/workorder-go/core"
)

func user(id core.UserID) core.User {
	return core.User{ID: id, Username: "user-" + string(id)}
}

func post(id string, c core.Category, author core.UserID, mentions ...core.UserID) core.Post {
	p := core.Post{ID: id, Category: c, Author: user(author)}
	for _, m := range mentions {
		p.Mentions = append(p.Mentions, user(m))
	}
	return p
}

func ids(posts []core.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestClassify_NilViewerHidesTasks(t *testing.T) {
	posts := []core.Post{
		post("n1", core.CategoryNotice, "u1"),
		post("t1", core.CategoryNew, "u1"),
		post("t2", core.CategoryDone, "u2", "u1"),
	}

	b := Classify(posts, nil)

	if !equalIDs(ids(b.Notices), "n1") {
		t.Errorf("expected only the notice, got %v", ids(b.Notices))
	}
	if b.TaskCount() != 0 {
		t.Errorf("nil viewer must see no task content, got %d posts", b.TaskCount())
	}
}

func TestClassify_NoticesIgnoreVisibility(t *testing.T) {
	viewer := user("u1")
	posts := []core.Post{
		post("n1", core.CategoryNotice, "u2"),          // not author, not mentioned
		post("n2", core.CategoryNotice, "u3", "u4"),    // mentions someone else
		post("n3", core.CategoryNotice, "u1"),          // own notice
		post("t1", core.CategoryInProgress, "u2", "u5"), // invisible task
	}

	b := Classify(posts, &viewer)

	if !equalIDs(ids(b.Notices), "n1", "n2", "n3") {
		t.Errorf("every notice must appear regardless of viewer, got %v", ids(b.Notices))
	}
	if b.TaskCount() != 0 {
		t.Errorf("expected no visible tasks, got %d", b.TaskCount())
	}
}

func TestClassify_AuthorOrMentioned(t *testing.T) {
	viewer := user("u1")
	posts := []core.Post{
		post("own", core.CategoryNew, "u1"),
		post("mentioned", core.CategoryNew, "u2", "u1"),
		post("other", core.CategoryNew, "u2", "u3"),
		post("doing", core.CategoryInProgress, "u1"),
		post("finished", core.CategoryDone, "u3", "u1"),
	}

	b := Classify(posts, &viewer)

	if !equalIDs(ids(b.Column(core.CategoryNew)), "own", "mentioned") {
		t.Errorf("New column: got %v", ids(b.Column(core.CategoryNew)))
	}
	if !equalIDs(ids(b.Column(core.CategoryInProgress)), "doing") {
		t.Errorf("InProgress column: got %v", ids(b.Column(core.CategoryInProgress)))
	}
	if !equalIDs(ids(b.Column(core.CategoryDone)), "finished") {
		t.Errorf("Done column: got %v", ids(b.Column(core.CategoryDone)))
	}
}

func TestClassify_AuthorAndMentionedAppearsOnce(t *testing.T) {
	viewer := user("u1")
	posts := []core.Post{
		post("both", core.CategoryNew, "u1", "u1"),
	}

	b := Classify(posts, &viewer)

	if !equalIDs(ids(b.Column(core.CategoryNew)), "both") {
		t.Errorf("post must appear exactly once, got %v", ids(b.Column(core.CategoryNew)))
	}
	if b.TaskCount() != 1 {
		t.Errorf("expected a single visible task, got %d", b.TaskCount())
	}
}

func TestClassify_OwnPostWithNoMentionsVisible(t *testing.T) {
	viewer := user("u1")
	posts := []core.Post{
		post("solo", core.CategoryDone, "u1"),
	}

	b := Classify(posts, &viewer)

	if !equalIDs(ids(b.Column(core.CategoryDone)), "solo") {
		t.Errorf("own work is always visible, got %v", ids(b.Column(core.CategoryDone)))
	}
}

func TestClassify_PreservesSourceOrder(t *testing.T) {
	viewer := user("u1")
	posts := []core.Post{
		post("c", core.CategoryNew, "u1"),
		post("a", core.CategoryNew, "u1"),
		post("b", core.CategoryNew, "u1"),
	}

	b := Classify(posts, &viewer)

	if !equalIDs(ids(b.Column(core.CategoryNew)), "c", "a", "b") {
		t.Errorf("column must keep insertion order, got %v", ids(b.Column(core.CategoryNew)))
	}
}

func TestClassify_UnknownCategoryGetsNoColumn(t *testing.T) {
	viewer := user("u1")
	posts := []core.Post{
		post("odd", core.Category("misc"), "u1"),
	}

	b := Classify(posts, &viewer)

	if b.TaskCount() != 0 {
		t.Errorf("unknown category must not land in a column, got %d", b.TaskCount())
	}
	if len(b.Notices) != 0 {
		t.Errorf("unknown category is not a notice, got %v", ids(b.Notices))
	}
}
