package subscription

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/livestream-protocol/livestream-go/pkg/wire"
)

// Registry errors.
var (
	ErrListenerNotFound = errors.New("listener not found")
	ErrNilListener      = errors.New("nil listener")
)

// ListenerID identifies one registered listener.
type ListenerID uint32

// Listener receives the latest value of a package. The value's array fields
// are only valid for the duration of the call; use Value.Clone to keep them.
type Listener func(addr wire.Address, v wire.Value)

type entry struct {
	id ListenerID
	fn Listener
}

// Registry tracks listeners per Address.
//
// Listener lists are copy-on-write: Add and Remove build new slices, so the
// slice returned by Listeners can be iterated without holding the lock and
// without allocating.
type Registry struct {
	mu sync.RWMutex

	byAddress map[wire.Address][]entry
	total     int
}

var idGenerator atomic.Uint32

// nextID returns the next unique listener ID.
func nextID() ListenerID {
	return ListenerID(idGenerator.Add(1))
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byAddress: make(map[wire.Address][]entry),
	}
}

// Add registers fn for addr. first is true when addr had no listeners
// before, meaning the caller should raise the package's flag.
func (r *Registry) Add(addr wire.Address, fn Listener) (id ListenerID, first bool, err error) {
	if fn == nil {
		return 0, false, ErrNilListener
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id = nextID()
	old := r.byAddress[addr]
	list := make([]entry, len(old), len(old)+1)
	copy(list, old)
	r.byAddress[addr] = append(list, entry{id: id, fn: fn})
	r.total++

	return id, len(old) == 0, nil
}

// Remove unregisters listener id from addr. last is true when addr has no
// listeners left, meaning the caller should clear the package's flag.
func (r *Registry) Remove(addr wire.Address, id ListenerID) (last bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.byAddress[addr]
	for i, e := range old {
		if e.id != id {
			continue
		}
		if len(old) == 1 {
			delete(r.byAddress, addr)
		} else {
			list := make([]entry, 0, len(old)-1)
			list = append(list, old[:i]...)
			r.byAddress[addr] = append(list, old[i+1:]...)
		}
		r.total--
		return len(old) == 1, nil
	}
	return false, ErrListenerNotFound
}

// Dispatch calls every listener of addr with v, outside the lock.
func (r *Registry) Dispatch(addr wire.Address, v wire.Value) int {
	r.mu.RLock()
	list := r.byAddress[addr]
	r.mu.RUnlock()

	for _, e := range list {
		e.fn(addr, v)
	}
	return len(list)
}

// Active reports whether addr has at least one listener.
func (r *Registry) Active(addr wire.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddress[addr]) > 0
}

// RefCount returns the number of listeners on addr.
func (r *Registry) RefCount(addr wire.Address) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddress[addr])
}

// Addresses returns every address with at least one listener.
func (r *Registry) Addresses() []wire.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]wire.Address, 0, len(r.byAddress))
	for addr := range r.byAddress {
		out = append(out, addr)
	}
	return out
}

// Count returns the total number of listeners.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// ClearAll removes every listener.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byAddress = make(map[wire.Address][]entry)
	r.total = 0
}
