package broadcast

import "github.com/livestream-protocol/livestream-go/pkg/wire"

// Source supplies the live telemetry. It is implemented by the audio engine.
type Source interface {
	// CurrentSchema returns the packages the engine wants published. The
	// version field is ignored; the Broadcaster assigns versions.
	CurrentSchema() *wire.Schema

	// ValueFor computes the value of one package. It is only called for
	// packages with an active subscription flag.
	ValueFor(addr wire.Address) wire.Value
}

// PlaceholderPolicy selects what an unsubscribed package carries in a frame.
type PlaceholderPolicy uint8

const (
	// PlaceholderZero writes the zero value of the package type. Arrays
	// become empty, which keeps unsubscribed packages at four bytes.
	PlaceholderZero PlaceholderPolicy = iota

	// PlaceholderLast repeats the last computed value.
	PlaceholderLast
)

// String returns the policy name.
func (p PlaceholderPolicy) String() string {
	switch p {
	case PlaceholderZero:
		return "zero"
	case PlaceholderLast:
		return "last"
	default:
		return "unknown"
	}
}
