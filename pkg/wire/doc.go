// Package wire defines the LiveStream binary formats.
//
// LiveStream moves telemetry from a real-time producer to one or more
// consumers through a shared memory block. Two frame kinds exist:
//   - Structure Frame: the schema (ordered Address/PackageType pairs),
//     sent out of band whenever the set of published packages changes.
//   - Data Frame: one snapshot of every package value, written into the
//     shared data region on each producer tick.
//
// All integers are 32 bits wide and big-endian.
//
// # Structure Frame
//
//	IDSentinel | version | numPackages | { entity(16) slot(4) typeTag(1) } x numPackages
//
// # Data Frame
//
//	version | StartSentinel | payload x numPackages | EndSentinel
//
// Payloads follow schema order. Float and Integer take 4 bytes. FloatArray and
// IntegerArray are a 4-byte element count followed by 4-byte elements.
// ByteArray is a 4-byte count followed by raw bytes.
//
// # Validation
//
// A Data Frame is only meaningful against the schema version it was written
// for. DecodeFrame reports false for a version mismatch, a damaged START or
// END sentinel, or a payload that runs past the buffer. Callers treat all of
// these as "no update this cycle".
package wire
