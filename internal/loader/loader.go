// Package loader runs the fetches behind each console view. Only one view
// load is in flight at a time: entering another view cancels the previous
// load and waits for it to unwind.
package loader

import (
	"context"
	"errors"
	"sync"
	"time"
)

type EventType string

const (
	EventLoadStarted  EventType = "load_started"
	EventLoadOK       EventType = "load_ok"
	EventLoadFailed   EventType = "load_failed"
	EventLoadCanceled EventType = "load_canceled"
)

type Event struct {
	Type   EventType
	View   string
	At     time.Time
	Result any
	Err    error
}

// LoadFunc fetches the data of one view.
type LoadFunc func(ctx context.Context) (any, error)

type Loader struct {
	onEvent func(Event)

	mu     sync.Mutex
	active *activeRun
}

type activeRun struct {
	view   string
	cancel context.CancelFunc
	done   chan struct{}
}

func New(onEvent func(Event)) *Loader {
	return &Loader{onEvent: onEvent}
}

// Enter cancels any in-flight load, waits for it, then starts fn for view
// in the background. The outcome is reported through the event callback.
func (l *Loader) Enter(ctx context.Context, view string, fn LoadFunc) error {
	if view == "" {
		return errors.New("view name is required")
	}
	if fn == nil {
		return errors.New("load function is required")
	}

	l.Leave()

	runCtx, cancel := context.WithCancel(ctx)
	state := &activeRun{
		view:   view,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	l.mu.Lock()
	l.active = state
	l.mu.Unlock()

	go l.run(runCtx, state, fn)
	return nil
}

// Leave cancels the in-flight load, if any, and waits for it to return.
func (l *Loader) Leave() {
	l.mu.Lock()
	state := l.active
	l.active = nil
	l.mu.Unlock()

	if state != nil {
		state.cancel()
		<-state.done
	}
}

// Active returns the view whose load is running, or "".
func (l *Loader) Active() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return ""
	}
	return l.active.view
}

func (l *Loader) run(ctx context.Context, state *activeRun, fn LoadFunc) {
	defer close(state.done)
	defer state.cancel()

	l.emit(Event{Type: EventLoadStarted, View: state.view, At: time.Now().UTC()})

	result, err := fn(ctx)

	l.mu.Lock()
	if l.active == state {
		l.active = nil
	}
	l.mu.Unlock()

	switch {
	case ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled)):
		l.emit(Event{Type: EventLoadCanceled, View: state.view, At: time.Now().UTC(), Err: ctx.Err()})
	case err != nil:
		l.emit(Event{Type: EventLoadFailed, View: state.view, At: time.Now().UTC(), Err: err})
	default:
		l.emit(Event{Type: EventLoadOK, View: state.view, At: time.Now().UTC(), Result: result})
	}
}

func (l *Loader) emit(evt Event) {
	if l.onEvent == nil {
		return
	}
	l.onEvent(evt)
}
