// Package demo is a small notes domain that drives the dispatcher from the
// TUI and the script runner.
package demo

import (
	"github.com/zjrosen/datachannel/internal/domain/state"
)

// Events understood by the demo Handler.
var (
	LoadNotes = state.NewEvent("load_notes", state.WithProgress(), state.WithMessage())
	SaveNote  = state.NewEvent("save_note", state.WithProgress(), state.WithMessage(), state.WithErrorInfo("save failed"))
	Refresh   = state.NewEvent("refresh", state.WithProgress())
	Broken    = state.NewEvent("broken", state.WithMessage(), state.WithErrorInfo("backend unavailable"))
)

// Events lists every demo event.
func Events() []state.Event {
	return []state.Event{LoadNotes, SaveNote, Refresh, Broken}
}

// EventByName finds a demo event. The second result is false for unknown
// names.
func EventByName(name string) (state.Event, bool) {
	for _, e := range Events() {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}
