package announce

import (
	"errors"
	"sync"

	"github.com/livestream-protocol/livestream-go/pkg/layout"
)

// Bus errors.
var (
	ErrBusClosed          = errors.New("announce: bus is closed")
	ErrSubscriberExists   = errors.New("announce: subscriber already exists")
	ErrSubscriberNotFound = errors.New("announce: subscriber not found")
	ErrMailboxClosed      = errors.New("announce: mailbox is closed")
)

// Message is one schema announcement.
type Message struct {
	// Structure is the encoded Structure Frame.
	Structure []byte

	// Layout is the block the producer writes Data Frames into for this schema.
	Layout *layout.Layout

	// Sequence is assigned by the bus and increases with every Publish.
	Sequence uint64
}

// Bus fans announcements out to subscriber mailboxes.
type Bus struct {
	mu        sync.RWMutex
	mailboxes map[string]*Mailbox
	latest    *Message
	seq       uint64
	closed    bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		mailboxes: make(map[string]*Mailbox),
	}
}

// Publish stamps msg with the next sequence number and delivers it to every
// mailbox. It returns the assigned sequence.
func (b *Bus) Publish(msg Message) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrBusClosed
	}

	b.seq++
	msg.Sequence = b.seq
	b.latest = &msg

	for _, mb := range b.mailboxes {
		mb.put(msg)
	}
	return msg.Sequence, nil
}

// Latest returns the most recent message, if any.
func (b *Bus) Latest() (Message, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.latest == nil {
		return Message{}, false
	}
	return *b.latest, true
}

// Subscribe registers a mailbox under id. If a message was already
// published, the mailbox starts with it.
func (b *Bus) Subscribe(id string) (*Mailbox, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}
	if _, exists := b.mailboxes[id]; exists {
		return nil, ErrSubscriberExists
	}

	mb := newMailbox(id)
	if b.latest != nil {
		mb.put(*b.latest)
	}
	b.mailboxes[id] = mb
	return mb, nil
}

// Unsubscribe removes and closes the mailbox registered under id.
func (b *Bus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	mb, exists := b.mailboxes[id]
	if !exists {
		return ErrSubscriberNotFound
	}
	mb.Close()
	delete(b.mailboxes, id)
	return nil
}

// Subscribers returns the number of registered mailboxes.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.mailboxes)
}

// Close closes the bus and every mailbox.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, mb := range b.mailboxes {
		mb.Close()
	}
	b.mailboxes = make(map[string]*Mailbox)
}
