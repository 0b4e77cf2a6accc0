package announce

import (
	"context"
	"sync"
)

// Mailbox holds the newest undelivered announcement for one consumer.
type Mailbox struct {
	id string

	mu       sync.Mutex
	msg      Message
	pending  bool
	closed   bool
	notify   chan struct{}
	replaced uint64
}

func newMailbox(id string) *Mailbox {
	return &Mailbox{
		id:     id,
		notify: make(chan struct{}, 1),
	}
}

// ID returns the subscriber id.
func (m *Mailbox) ID() string {
	return m.id
}

func (m *Mailbox) put(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || msg.Sequence <= m.msg.Sequence {
		return
	}
	if m.pending {
		m.replaced++
	}
	m.msg = msg
	m.pending = true

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// TryReceive returns the pending message without blocking.
func (m *Mailbox) TryReceive() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.pending {
		return Message{}, false
	}
	m.pending = false
	return m.msg, true
}

// Receive blocks until a message newer than the last one received is
// available, the mailbox is closed, or ctx is done.
func (m *Mailbox) Receive(ctx context.Context) (Message, error) {
	for {
		if msg, ok := m.TryReceive(); ok {
			return msg, nil
		}

		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return Message{}, ErrMailboxClosed
		}

		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-m.notify:
		}
	}
}

// Replaced returns how many announcements were superseded before the
// consumer picked them up.
func (m *Mailbox) Replaced() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaced
}

// Close wakes any pending Receive. Further messages are dropped.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	select {
	case m.notify <- struct{}{}:
	default:
	}
}
