package receiver

// State is the hub's synchronization state.
type State uint8

const (
	// StateAwaitingStructure means no schema has been adopted; Poll is a no-op.
	StateAwaitingStructure State = iota

	// StateSynced means a schema and its layout are bound.
	StateSynced
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAwaitingStructure:
		return "AWAITING_STRUCTURE"
	case StateSynced:
		return "SYNCED"
	default:
		return "UNKNOWN"
	}
}
