// Package protocol implements the binary wire form of host operations.
//
// A Binding is a host.Binding that encodes every call as an Op instead of
// performing it. The reconciler drives it like any other host, and Flush
// hands out the pending ops as one batch. A Replayer decodes batches and
// applies them to a real host.Binding on the other side of the wire, so a
// remote tree ends up identical to one rendered directly.
//
// # Wire Format
//
// Messages travel in frames with a 5-byte header:
//
//	┌─────────────┬───────────────────────────────┐
//	│ Frame Type  │ Payload Length                │
//	│ (1 byte)    │ (4 bytes, big-endian)         │
//	└─────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FramePatches (0x01): Server → Client op batches
//   - FrameEvent (0x02): Client → Server events
//   - FrameError (0x03): Either direction, a coded failure
//
// # Encoding
//
// Integers are unsigned varints, strings are a varint length followed by
// UTF-8 bytes. A batch is an op count followed by the ops; each op is its
// opcode (a host.OpKind) and the operands listed on Op.
//
// # Handles and Listeners
//
// Node ids are allocated by the Binding in creation order, starting at 1;
// id 0 is the container root. A node removed from its parent is never
// attached again, so both ends release the ids of a removed subtree.
// Listeners are numbered on first use, and an id is released once no
// element holds its listener. An Event names the listener id it was raised
// on, and the server resolves it with Binding.Listener.
//
// # Errors
//
// Decoding failures carry registry codes: P001 for malformed input, P002
// for unknown opcodes, P003 for handles that were never allocated.
package protocol
