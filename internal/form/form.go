// Package form holds the ticker input state: the suggestion list, lookup
// sequencing and submission validation.
package form

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/bobmcallan/genvest-portal/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	// MinQueryLength is the shortest input that triggers a lookup.
	MinQueryLength = 2
	// MaxSuggestions caps the dropdown.
	MaxSuggestions = 5
	// DebounceDelay is how long the page waits after the last keystroke.
	DebounceDelay = 300 * time.Millisecond
)

// ErrIncomplete is returned when a submission is missing any field.
var ErrIncomplete = errors.New("ticker, OpenAI key and Serper key are required")

var validate = validator.New()

// Validate checks all three credentials are non-empty. No other format
// rules apply.
func Validate(creds models.Credentials) error {
	if err := validate.Struct(creds); err != nil {
		return ErrIncomplete
	}
	return nil
}

// State is the ticker field group of one page.
type State struct {
	Ticker          string                    `json:"ticker"`
	Suggestions     []models.TickerSuggestion `json:"suggestions,omitempty"`
	ShowSuggestions bool                      `json:"show_suggestions"`
	LookupSeq       uint64                    `json:"lookup_seq"`
}

// Input records new ticker text. Every call invalidates lookups issued
// before it. When the text is long enough it returns the ticket the lookup
// result must be applied with; otherwise the list is cleared and no lookup
// should be made.
func (s *State) Input(ticker string) (ticket uint64, lookup bool) {
	s.Ticker = ticker
	s.LookupSeq++

	if utf8.RuneCountInString(ticker) < MinQueryLength {
		s.Suggestions = nil
		s.ShowSuggestions = false
		return 0, false
	}

	s.ShowSuggestions = true
	return s.LookupSeq, true
}

// Apply stores lookup results issued with ticket. Results for anything but
// the latest input are dropped and Apply returns false.
func (s *State) Apply(ticket uint64, results []models.TickerSuggestion) bool {
	if ticket == 0 || ticket != s.LookupSeq {
		return false
	}
	s.Suggestions = Top(results)
	s.ShowSuggestions = true
	return true
}

// Select puts the chosen symbol in the ticker field and closes the list.
func (s *State) Select(symbol string) {
	s.Ticker = symbol
	s.Suggestions = nil
	s.ShowSuggestions = false
	s.LookupSeq++
}

// Reset clears the suggestion list, used when a report is submitted.
func (s *State) Reset() {
	s.Suggestions = nil
	s.ShowSuggestions = false
	s.LookupSeq++
}

// Visible returns the suggestions the dropdown should show.
func (s *State) Visible() []models.TickerSuggestion {
	if !s.ShowSuggestions {
		return nil
	}
	return s.Suggestions
}

// Top returns at most MaxSuggestions results, preserving order.
func Top(results []models.TickerSuggestion) []models.TickerSuggestion {
	if len(results) > MaxSuggestions {
		results = results[:MaxSuggestions]
	}
	out := make([]models.TickerSuggestion, len(results))
	copy(out, results)
	return out
}
