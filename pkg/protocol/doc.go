// Package protocol implements the binary wire format used to stream patch
// batches out of a running tree, for example to the inspector.
//
// # Frame Format
//
// Every message is a frame with a 6-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameHello: protocol version and viewport, sent first
//   - FrameBatch: one render pass worth of patches
//   - FrameError: a Fault, ending the stream when fatal
//
// # Encoding
//
// Integers are unsigned varints (protobuf style, 7 bits per byte). Strings
// are a varint length followed by UTF-8 bytes. Floats are IEEE 754
// big-endian. Node IDs are encoded as varints of their 64-bit value, zero
// meaning no node.
//
// # Batch Payload
//
//	varint seq
//	string pass          ("render" or "update")
//	varint count
//	count × patch
//
// Each patch starts with its op byte and node ID:
//
//	Append:    parent, type, key
//	Insert:    before, type, key
//	Update:    type, key
//	Placement: before
//	Remove:    (nothing)
//
// # Limits
//
// Decoding rejects strings over DefaultMaxAllocation bytes and collections
// over MaxCollectionCount items.
package protocol
