package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lachiem1/estoque/internal/loader"
)

type apiErrorMsg struct {
	message string
}

type unauthorizedMsg struct{}

type loadEventMsg struct {
	event loader.Event
}

// Bridge forwards API client notifications and loader events into the
// running program. Messages sent before Attach are dropped.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
}

func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
}

// APIError implements estoqueapi.Notifier.
func (b *Bridge) APIError(message string) {
	b.send(apiErrorMsg{message: message})
}

// Unauthorized implements estoqueapi.Notifier.
func (b *Bridge) Unauthorized() {
	b.send(unauthorizedMsg{})
}

func (b *Bridge) loadEvent(evt loader.Event) {
	b.send(loadEventMsg{event: evt})
}

// send never blocks the caller. Loader.Enter runs inside Update and waits
// for the previous load, whose final event must not wait on Update in turn.
func (b *Bridge) send(msg tea.Msg) {
	if b == nil {
		return
	}
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p == nil {
		return
	}
	go p.Send(msg)
}
