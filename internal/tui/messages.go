package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type tickMsg time.Time

// AlertMsg opens the blocking alert.
type AlertMsg struct {
	Title   string
	Message string
}

// Alerter delivers command failures into the running program. Alerts sent
// before a program is attached are dropped.
type Alerter struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func NewAlerter() *Alerter {
	return &Alerter{}
}

func (a *Alerter) Attach(send func(tea.Msg)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.send = send
}

func (a *Alerter) Send(ctx context.Context, title, message string) error {
	a.mu.Lock()
	send := a.send
	a.mu.Unlock()

	if send != nil {
		send(AlertMsg{Title: title, Message: message})
	}
	return nil
}

func tick(every time.Duration) tea.Cmd {
	return tea.Every(every, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
