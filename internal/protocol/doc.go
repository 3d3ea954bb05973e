// Package protocol owns the wire contract shared by the codec and framing layers.
//
// Ownership boundary:
// - error taxonomy (overrun, tag mismatch, truncation, checksum)
// - crc/ checksum primitive
// - cursor/ write, read and length streams
// - codec/ typed field dispatch
// - frame/ single message header wrap/unwrap
// - framer/ incremental multi-frame parser
// - messages/ concrete controller records
// - session/ link loop over a byte transport
//
// Every multi-byte integer on the wire is little-endian.
package protocol
