/*
Package notify delivers short user-facing messages (the "toasts" of the UI).

A Flash queues messages per browser session until the next page render.
Log sends them to the structured log when no browser is attached.
*/
package notify

import (
	"sync"

	"profilelounge/internal/pkg/logx"
)

// Kind classifies a message for presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message is one queued notification.
type Message struct {
	Kind Kind
	Text string
}

// Notifier receives user-facing messages.
type Notifier interface {
	Success(text string)
	Error(text string)
}

// Flash is a FIFO of messages waiting to be shown. Safe for concurrent use.
type Flash struct {
	mu      sync.Mutex
	pending []Message
}

// NewFlash returns an empty queue.
func NewFlash() *Flash {
	return &Flash{}
}

func (f *Flash) push(kind Kind, text string) {
	if text == "" {
		return
	}
	f.mu.Lock()
	f.pending = append(f.pending, Message{Kind: kind, Text: text})
	f.mu.Unlock()
}

// Success queues a success message.
func (f *Flash) Success(text string) { f.push(KindSuccess, text) }

// Error queues an error message.
func (f *Flash) Error(text string) { f.push(KindError, text) }

// Drain returns all pending messages in order and empties the queue.
func (f *Flash) Drain() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.pending
	f.pending = nil
	return out
}

// Log writes notifications to the structured log.
type Log struct{}

func (Log) Success(text string) { logx.Info("Notification", "kind", string(KindSuccess), "text", text) }
func (Log) Error(text string)   { logx.Warn("Notification", "kind", string(KindError), "text", text) }

type multi []Notifier

// Multi fans every message out to all notifiers.
func Multi(notifiers ...Notifier) Notifier {
	return multi(notifiers)
}

func (m multi) Success(text string) {
	for _, n := range m {
		n.Success(text)
	}
}

func (m multi) Error(text string) {
	for _, n := range m {
		n.Error(text)
	}
}

// Discard drops every message.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Success(string) {}
func (discard) Error(string)   {}
