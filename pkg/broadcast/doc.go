// Package broadcast implements the producer side of a LiveStream channel.
//
// A Broadcaster owns the shared block. Once per processing block the
// caller invokes Tick, which reads the subscription flags, asks the Source
// only for values somebody is listening to, encodes one Data Frame and
// writes it into the data region. Schema changes go through
// PublishSchemaChange: a new block is allocated, the Structure Frame and the
// block are announced together on the side channel, and only then does the
// writer move to the new block.
//
// Tick never blocks on consumers and never allocates once the frame buffer
// and value slots have reached their working size.
package broadcast
