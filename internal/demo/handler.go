package demo

import (
	"context"
	"errors"
	"fmt"

	"github.com/zjrosen/datachannel/internal/dispatch"
	"github.com/zjrosen/datachannel/internal/domain/message"
	"github.com/zjrosen/datachannel/internal/domain/state"
	"github.com/zjrosen/datachannel/internal/log"
	"github.com/zjrosen/datachannel/internal/viewmodel"
)

// Source says where the notes in a State came from.
type Source string

const (
	SourceNone  Source = ""
	SourceCache Source = "cache"
	SourceFresh Source = "fresh"
)

// State is the demo screen state.
type State struct {
	Notes     []Note
	Source    Source
	LastSaved string // ID of the most recent successful save
}

// Handler turns demo events into job streams against a Repository.
type Handler struct {
	repo *Repository
}

// NewHandler creates a handler for repo.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Stream returns the job for event, or nil if event is not a demo event.
func (h *Handler) Stream(event state.Event) state.Stream[State] {
	switch event.Name() {
	case LoadNotes.Name():
		return state.Produce(h.load)
	case SaveNote.Name():
		return state.Produce(h.save)
	case Refresh.Name():
		return state.Produce(h.refresh)
	case Broken.Name():
		return state.Produce(h.broken)
	default:
		return nil
	}
}

// load shows the cached listing first, if there is one, then the fresh one.
func (h *Handler) load(ctx context.Context, emit state.Emit[State]) {
	if cached, ok := h.repo.Cached(ctx); ok {
		if !emit(state.Data(State{Notes: cached, Source: SourceCache}, nil)) {
			return
		}
	}

	notes, err := h.repo.Fetch(ctx)
	if err != nil {
		h.fail(ctx, emit, LoadNotes, "Could not load notes", err)
		return
	}

	emit(state.Data(State{Notes: notes, Source: SourceFresh}, LoadNotes).
		WithMessage(message.New(fmt.Sprintf("Loaded %d notes", len(notes)), message.HintToast, message.KindInfo)))
}

func (h *Handler) save(ctx context.Context, emit state.Emit[State]) {
	title := fmt.Sprintf("Note %d", h.repo.Saves()+1)

	saved, err := h.repo.Save(ctx, title)
	if err != nil {
		h.fail(ctx, emit, SaveNote, "Save failed", err)
		return
	}

	notes, err := h.repo.List(ctx)
	if err != nil {
		h.fail(ctx, emit, SaveNote, "Saved, but could not reload notes", err)
		return
	}

	emit(state.Data(State{Notes: notes, Source: SourceFresh, LastSaved: saved.ID}, SaveNote).
		WithMessage(message.New("Saved "+saved.Title, message.HintToast, message.KindSuccess)))
}

// refresh reloads silently: Refresh does not want messages, so the toast it
// carries is dropped by the dispatcher.
func (h *Handler) refresh(ctx context.Context, emit state.Emit[State]) {
	notes, err := h.repo.Fetch(ctx)
	if err != nil {
		h.fail(ctx, emit, Refresh, "Refresh failed", err)
		return
	}

	emit(state.Data(State{Notes: notes, Source: SourceFresh}, Refresh).
		WithMessage(message.New("Refreshed", message.HintToast, message.KindInfo)))
}

func (h *Handler) broken(ctx context.Context, emit state.Emit[State]) {
	err := h.repo.Broken(ctx)
	h.fail(ctx, emit, Broken, "Backend call failed", err)
}

// fail emits an error message that completes event. Nothing is emitted once
// the job has been cancelled.
func (h *Handler) fail(ctx context.Context, emit state.Emit[State], event state.Event, title string, err error) {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return
	}

	log.ErrorErr(log.CatDemo, "job failed", err, "event", event.Name(), "run", dispatch.RunID(ctx))

	body := fmt.Sprintf("## %s\n\n`%v`\n\nPress **enter** to dismiss.", title, err)
	emit(state.Error[State](message.New(body, message.HintDialog, message.KindError), event))
}

// NewOwner wires a Repository to a state owner on exec.
func NewOwner(exec dispatch.Executor, repo *Repository, opts ...viewmodel.Option[State]) *viewmodel.Owner[State] {
	return viewmodel.New(State{}, exec, NewHandler(repo).Stream, opts...)
}
