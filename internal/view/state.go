// Package view holds the presentation state shared by the interactive
// surfaces. It has no I/O: callers perform fetches and saves and report the
// outcome through the event methods.
package view

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/hpungsan/muse/internal/quote"
)

// LoadFailedText replaces the quote when a fetch fails.
const LoadFailedText = "Failed to load quote. Please try again."

// Draft is the in-progress content of the add or edit form.
type Draft struct {
	Text     string
	Author   string
	Category string
}

// State is the view state of the quote screen.
type State struct {
	Category  string
	Loading   bool
	Quote     string
	Failed    bool
	Copied    bool
	Dark      bool
	Saved     []quote.Summary
	ShowSaved bool

	Adding bool
	Add    Draft

	EditingID string
	Edit      Draft

	Status string
}

// New returns the initial state for category. An empty or unknown category
// starts on the default one.
func New(category string) *State {
	c := quote.NormalizeCategory(category)
	if !quote.IsKnownCategory(c) {
		c = quote.DefaultCategory
	}
	return &State{Category: c}
}

// SelectCategory switches the category. It reports whether the category
// changed, in which case the caller should fetch a new quote.
func (s *State) SelectCategory(category string) bool {
	c := quote.NormalizeCategory(category)
	if !quote.IsKnownCategory(c) || c == s.Category {
		return false
	}
	s.Category = c
	return true
}

// NextCategory cycles to the following category and returns it.
func (s *State) NextCategory() string {
	keys := quote.CategoryKeys()
	for i, k := range keys {
		if k == s.Category {
			s.Category = keys[(i+1)%len(keys)]
			return s.Category
		}
	}
	s.Category = keys[0]
	return s.Category
}

// BeginFetch marks a quote request as in flight.
func (s *State) BeginFetch() {
	s.Loading = true
	s.Copied = false
}

// FinishFetch records the outcome of a quote request. raw is normalized for
// display; an error or an empty result shows LoadFailedText.
func (s *State) FinishFetch(raw string, err error) {
	s.Loading = false
	text := ""
	if err == nil {
		text = quote.Normalize(raw)
	}
	if text == "" {
		s.Quote = LoadFailedText
		s.Failed = true
		return
	}
	s.Quote = text
	s.Failed = false
}

// CanSave reports whether the current quote may be saved or copied.
func (s *State) CanSave() bool {
	return !s.Loading && !s.Failed && s.Quote != ""
}

// MarkCopied records a successful copy. It returns false when there was
// nothing to copy.
func (s *State) MarkCopied() bool {
	if !s.CanSave() {
		return false
	}
	s.Copied = true
	return true
}

// ClearCopied hides the copy confirmation.
func (s *State) ClearCopied() {
	s.Copied = false
}

// ToggleTheme flips between light and dark.
func (s *State) ToggleTheme() {
	s.Dark = !s.Dark
}

// ToggleSaved shows or hides the saved panel.
func (s *State) ToggleSaved() {
	s.ShowSaved = !s.ShowSaved
}

// ShowSavedPanel makes the saved panel visible.
func (s *State) ShowSavedPanel() {
	s.ShowSaved = true
}

// SetSaved replaces the saved collection.
func (s *State) SetSaved(items []quote.Summary) {
	s.Saved = items
}

// StartAdd opens the add form with an empty draft in the current category.
func (s *State) StartAdd() {
	s.CancelEdit()
	s.Adding = true
	s.Add = Draft{Category: s.Category}
}

// CancelAdd closes the add form and discards the draft.
func (s *State) CancelAdd() {
	s.Adding = false
	s.Add = Draft{}
}

// StartEdit opens the edit form for q, seeded with its current values.
func (s *State) StartEdit(q quote.Summary) {
	s.CancelAdd()
	s.EditingID = q.ID
	s.Edit = Draft{Text: q.Text, Author: q.Author, Category: q.Category}
}

// CancelEdit closes the edit form and discards the draft.
func (s *State) CancelEdit() {
	s.EditingID = ""
	s.Edit = Draft{}
}

// SetStatus sets the one-line status message.
func (s *State) SetStatus(msg string) {
	s.Status = msg
}

// savedSource adapts the saved collection to fuzzy.Source.
type savedSource []quote.Summary

func (s savedSource) String(i int) string {
	return s[i].Text + " " + s[i].Author
}

func (s savedSource) Len() int {
	return len(s)
}

// Filter returns the saved quotes matching pattern, best match first.
// An empty pattern returns the collection unchanged.
func (s *State) Filter(pattern string) []quote.Summary {
	if strings.TrimSpace(pattern) == "" {
		return s.Saved
	}
	matches := fuzzy.FindFrom(pattern, savedSource(s.Saved))
	out := make([]quote.Summary, len(matches))
	for i, m := range matches {
		out[i] = s.Saved[m.Index]
	}
	return out
}
