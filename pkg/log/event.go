package log

import "time"

// Event is one protocol capture record. Exactly one of the typed payloads
// is set. CBOR encoding uses integer keys.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// InstanceID identifies the broadcaster or hub that emitted the event.
	InstanceID string `cbor:"2,keyasint"`

	// Role is the side of the channel the emitter sits on.
	Role Role `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"5,keyasint"`

	// SchemaVersion is the schema version active when the event occurred.
	SchemaVersion uint32 `cbor:"6,keyasint,omitempty"`

	// LayoutID identifies the shared block in use, if any.
	LayoutID string `cbor:"7,keyasint,omitempty"`

	Structure    *StructureEvent    `cbor:"10,keyasint,omitempty"`
	Frame        *FrameEvent        `cbor:"11,keyasint,omitempty"`
	Subscription *SubscriptionEvent `cbor:"12,keyasint,omitempty"`
	StateChange  *StateChangeEvent  `cbor:"13,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"14,keyasint,omitempty"`
}

// Role is the channel side that emitted an event.
type Role uint8

const (
	// RoleProducer is the broadcaster.
	RoleProducer Role = 0
	// RoleConsumer is a receiver hub.
	RoleConsumer Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "PRODUCER"
	case RoleConsumer:
		return "CONSUMER"
	default:
		return "UNKNOWN"
	}
}

// Layer is the component that captured an event.
type Layer uint8

const (
	// LayerWire is the frame codec.
	LayerWire Layer = 0
	// LayerLayout is the shared block layout.
	LayerLayout Layer = 1
	// LayerBroadcast is the producer driver.
	LayerBroadcast Layer = 2
	// LayerReceiver is the consumer hub.
	LayerReceiver Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerWire:
		return "WIRE"
	case LayerLayout:
		return "LAYOUT"
	case LayerBroadcast:
		return "BROADCAST"
	case LayerReceiver:
		return "RECEIVER"
	default:
		return "UNKNOWN"
	}
}

// Category classifies an event.
type Category uint8

const (
	// CategoryStructure covers schema announcements and adoptions.
	CategoryStructure Category = 0
	// CategoryFrame covers Data Frame outcomes.
	CategoryFrame Category = 1
	// CategorySubscription covers flag flips.
	CategorySubscription Category = 2
	// CategoryState covers hub state transitions.
	CategoryState Category = 3
	// CategoryError covers failures.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryStructure:
		return "STRUCTURE"
	case CategoryFrame:
		return "FRAME"
	case CategorySubscription:
		return "SUBSCRIPTION"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StructureAction says what happened to a Structure Frame.
type StructureAction uint8

const (
	// StructurePublished: the producer announced a new schema.
	StructurePublished StructureAction = 0
	// StructureAdopted: a consumer switched to the schema.
	StructureAdopted StructureAction = 1
	// StructureIgnored: a consumer dropped a same-or-older version.
	StructureIgnored StructureAction = 2
	// StructureMalformed: a consumer could not decode the frame.
	StructureMalformed StructureAction = 3
)

// String returns the action name.
func (a StructureAction) String() string {
	switch a {
	case StructurePublished:
		return "PUBLISHED"
	case StructureAdopted:
		return "ADOPTED"
	case StructureIgnored:
		return "IGNORED"
	case StructureMalformed:
		return "MALFORMED"
	default:
		return "UNKNOWN"
	}
}

// StructureEvent describes a schema announcement or its handling.
type StructureEvent struct {
	Action      StructureAction `cbor:"1,keyasint"`
	Version     uint32          `cbor:"2,keyasint"`
	NumPackages int             `cbor:"3,keyasint"`
	Capacity    int             `cbor:"4,keyasint,omitempty"`
	Sequence    uint64          `cbor:"5,keyasint,omitempty"`

	// Reason is why the producer reallocated, e.g. "schema" or "grow".
	Reason string `cbor:"6,keyasint,omitempty"`
}

// FrameOutcome is the result of reading a Data Frame.
type FrameOutcome uint8

const (
	// FrameAccepted: the frame validated and was fanned out.
	FrameAccepted FrameOutcome = 0
	// FrameStale: the version did not match the adopted schema.
	FrameStale FrameOutcome = 1
	// FrameTorn: a sentinel or the write sequence showed a torn read.
	FrameTorn FrameOutcome = 2
	// FrameOverflow: the producer could not fit the frame in its region.
	FrameOverflow FrameOutcome = 3
)

// String returns the outcome name.
func (o FrameOutcome) String() string {
	switch o {
	case FrameAccepted:
		return "ACCEPTED"
	case FrameStale:
		return "STALE"
	case FrameTorn:
		return "TORN"
	case FrameOverflow:
		return "OVERFLOW"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent describes a notable Data Frame.
type FrameEvent struct {
	Outcome FrameOutcome `cbor:"1,keyasint"`
	Version uint32       `cbor:"2,keyasint"`
	Size    int          `cbor:"3,keyasint,omitempty"`
}

// SubscriptionEvent describes a flag flip.
type SubscriptionEvent struct {
	Address string `cbor:"1,keyasint"`

	// Index is the package position, or -1 when the address is not in the schema.
	Index  int  `cbor:"2,keyasint"`
	Active bool `cbor:"3,keyasint"`
}

// StateChangeEvent describes a hub state transition.
type StateChangeEvent struct {
	OldState string `cbor:"1,keyasint,omitempty"`
	NewState string `cbor:"2,keyasint"`
	Reason   string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData describes a failure.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`
	Context string `cbor:"3,keyasint,omitempty"`
}
