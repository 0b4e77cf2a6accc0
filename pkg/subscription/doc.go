// Package subscription implements LiveStream subscription flags.
//
// Each package in the current schema owns one byte in the shared block's
// flag region. Consumers write it; the producer only reads it, once per
// package per tick, to decide whether computing the package's value is
// worth the cost. A zero byte means nobody is listening.
//
// # Coalescing
//
// Any number of UI listeners may watch the same Address. The producer only
// sees one bit per package: "is anyone listening". The Registry keeps the
// per-Address listener list and reports the first attach and last detach so
// the caller knows when to flip the flag.
//
// # Consistency
//
// Flag writes are single-byte atomic stores with no acknowledgment. The
// producer observes a flip on its next tick at the latest.
//
// # Lifecycle
//
// Flags live in the shared block, so they vanish with it. When the schema
// changes, the consumer re-applies the flags of every active Address against
// the new layout.
package subscription
