package task

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Task is a single persisted task record.
type Task struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Toggled returns a copy of t with Done flipped.
func (t Task) Toggled() Task {
	t.Done = !t.Done
	return t
}

// Retitled returns a copy of t with the given title.
func (t Task) Retitled(title string) Task {
	t.Title = title
	return t
}

// Highlight is the coordinator's single "just updated" slot.
// The zero value means no task is highlighted.
type Highlight struct {
	TaskID int64 `json:"task_id"`
	Active bool  `json:"active"`
}

// None is the empty highlight.
var None = Highlight{}

// HighlightOf returns an active highlight for id.
func HighlightOf(id int64) Highlight {
	return Highlight{TaskID: id, Active: true}
}

// NormalizeTitle applies NFC normalization and trims surrounding whitespace.
//
// NFC keeps visually identical titles byte-identical in storage regardless of
// how the input method composed them.
func NormalizeTitle(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// IsBlank reports whether s is empty after normalization.
func IsBlank(s string) bool {
	return NormalizeTitle(s) == ""
}
