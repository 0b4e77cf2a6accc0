// Package shm provides the shared memory block behind a LiveStream channel.
//
// A Block is a fixed-size byte array shared by reference between one producer
// goroutine and any number of consumer goroutines. Every access goes through
// 32-bit atomic loads and stores, so concurrent use is free of data races in
// the Go memory model while still behaving like real shared memory: a reader
// that copies a range while a writer updates it may observe a mix of old and
// new words. Detecting such torn copies is the caller's job; the block only
// offers a write sequence counter to help with that.
//
// # Write Sequence
//
// The writer brackets each update with BeginWrite and EndWrite, which bump a
// counter so that it is odd while a write is in progress. A reader samples
// Sequence before and after copying; an odd first sample or a change between
// samples means the copy may be torn.
//
// Blocks never change size. A different layout needs a new block.
package shm
