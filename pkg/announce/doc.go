// Package announce carries Structure Frames from the producer to consumers.
//
// A schema change is announced as a Message holding the encoded Structure
// Frame together with the Layout the producer will write against. Putting
// both in one message is the handshake: a consumer can never hold a layout
// without the schema that describes it, or the other way around.
//
// # Delivery
//
// Publish never blocks. Each subscriber owns a single-slot mailbox that
// always holds the newest message; if a consumer falls behind, older
// announcements are replaced because a newer schema supersedes them
// entirely. Sequence numbers increase strictly, so a mailbox never goes
// backwards. Late subscribers start with the latest message.
//
// Data Frames never travel through this package.
package announce
