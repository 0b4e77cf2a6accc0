package broadcast

import (
	"github.com/livestream-protocol/livestream-go/pkg/subscription"
	"github.com/livestream-protocol/livestream-go/pkg/wire"
)

// flagRef points at one package flag of an earlier layout.
type flagRef struct {
	flags subscription.FlagTable
	index int
}

// handoff maps each package of a freshly published layout to the flags of
// the layouts it replaced. Consumers keep their flags on the old layout
// until they adopt the new one, so until then those flags still speak for
// them. Entry i belongs to package i of the new schema.
type handoff [][]flagRef

// newHandoff matches schema's packages to prev by address. References prev
// still carried are passed on, so a layout replaced twice before any
// consumer caught up keeps every source.
func newHandoff(prev *binding, schema *wire.Schema) handoff {
	if prev == nil {
		return nil
	}
	h := make(handoff, schema.Len())
	for i, p := range schema.Packages {
		j := prev.schema.IndexOf(p.Address)
		if j < 0 {
			continue
		}
		h[i] = append(h[i], flagRef{flags: prev.flags, index: j})
		if j < len(prev.handoff) {
			h[i] = append(h[i], prev.handoff[j]...)
		}
	}
	return h
}

// subscribed reports whether any replaced layout still has package i raised.
func (h handoff) subscribed(i int) bool {
	if i < 0 || i >= len(h) {
		return false
	}
	for _, r := range h[i] {
		if r.flags.IsSubscribed(r.index) {
			return true
		}
	}
	return false
}

// active reports whether any replaced layout still has a flag raised. Once
// it is false every consumer has moved to the new layout.
func (h handoff) active() bool {
	for i := range h {
		if h.subscribed(i) {
			return true
		}
	}
	return false
}
