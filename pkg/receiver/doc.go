// Package receiver implements the consumer side of a LiveStream channel.
//
// A Hub adopts schemas announced on the side channel, polls the data region
// on its own cadence and fans decoded values out to listeners. Each adopted
// schema is bound to the layout it arrived with; the two are swapped as one
// handle, so a Data Frame is never decoded against a schema that was not
// announced for its block.
//
// Reads are speculative. A frame whose version, sentinels or write sequence
// do not check out is dropped and the last known-good values are kept.
package receiver
