// Package layout partitions a shared memory block into a LiveStream channel.
//
// A channel block is laid out as
//
//	[ subscription flags: numPackages bytes ][ data region: capacity bytes ]
//
// The package count is the only thing that decides where the data region
// starts. A Layout is therefore immutable: when the schema's package count
// or the required capacity changes, the producer allocates a brand-new
// Layout and hands it to consumers. Views built for one Layout must never be
// used against another; doing so shifts every offset and the resulting
// frames fail sentinel validation.
package layout
