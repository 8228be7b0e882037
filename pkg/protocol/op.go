package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vango-dev/reconcile/pkg/host"
)

// NodeID names a host node on the wire. Ids are allocated by Binding;
// RootID is the container's parent.
type NodeID uint32

// RootID is the id of the container root.
const RootID NodeID = 0

// String returns the string representation of the id: #3.
func (id NodeID) String() string {
	return "#" + strconv.FormatUint(uint64(id), 10)
}

// Op is one host operation in wire form. Opcodes are the host.OpKind values.
//
// Operand layout per opcode:
//
//	CreateElement        target tag
//	CreateText, SetText  target text
//	SetAttribute         target name value
//	SetStyleProperty     target name value
//	RemoveAttribute      target name
//	ClearStyleProperty   target name
//	Add/RemoveEventHandler target event listener
//	AppendChild, RemoveChild parent target
//	InsertBefore         parent target ref
//
// Ids and listener ids are uvarints, strings are length-prefixed.
type Op struct {
	Kind     host.OpKind
	Target   NodeID
	Parent   NodeID
	Ref      NodeID
	Name     string
	Value    string
	Listener uint32
}

// String formats the op like host.Op, with listener ids as L<n>.
func (o Op) String() string {
	s := host.Op{
		Kind:   o.Kind,
		Target: o.Target,
		Parent: o.Parent,
		Ref:    o.Ref,
		Name:   o.Name,
		Value:  o.Value,
	}.String()
	if o.Kind == host.OpAddEventHandler || o.Kind == host.OpRemoveEventHandler {
		s = strings.TrimSuffix(s, ")") + fmt.Sprintf(", L%d)", o.Listener)
	}
	return s
}

// Writer accumulates ops into a batch.
//
// Batch format: uvarint op count, then per op one opcode byte followed by
// its operands.
type Writer struct {
	body  Encoder
	count int
}

// Write appends op to the batch.
func (w *Writer) Write(op Op) {
	e := &w.body
	e.WriteByte(byte(op.Kind))
	switch op.Kind {
	case host.OpCreateElement:
		e.WriteUvarint(uint64(op.Target))
		e.WriteString(op.Name)
	case host.OpCreateText, host.OpSetText:
		e.WriteUvarint(uint64(op.Target))
		e.WriteString(op.Value)
	case host.OpSetAttribute, host.OpSetStyleProperty:
		e.WriteUvarint(uint64(op.Target))
		e.WriteString(op.Name)
		e.WriteString(op.Value)
	case host.OpRemoveAttribute, host.OpClearStyleProperty:
		e.WriteUvarint(uint64(op.Target))
		e.WriteString(op.Name)
	case host.OpAddEventHandler, host.OpRemoveEventHandler:
		e.WriteUvarint(uint64(op.Target))
		e.WriteString(op.Name)
		e.WriteUvarint(uint64(op.Listener))
	case host.OpAppendChild, host.OpRemoveChild:
		e.WriteUvarint(uint64(op.Parent))
		e.WriteUvarint(uint64(op.Target))
	case host.OpInsertBefore:
		e.WriteUvarint(uint64(op.Parent))
		e.WriteUvarint(uint64(op.Target))
		e.WriteUvarint(uint64(op.Ref))
	default:
		panic(fmt.Sprintf("protocol: cannot encode op kind %d", op.Kind))
	}
	w.count++
}

// Len returns the number of ops written since the last Reset.
func (w *Writer) Len() int {
	return w.count
}

// Bytes returns the encoded batch in a new slice.
func (w *Writer) Bytes() []byte {
	out := NewEncoder()
	out.buf = make([]byte, 0, uvarintLen(uint64(w.count))+w.body.Len())
	out.WriteUvarint(uint64(w.count))
	out.WriteBytes(w.body.Bytes())
	return out.Bytes()
}

// Reset forgets all written ops.
func (w *Writer) Reset() {
	w.body.Reset()
	w.count = 0
}

// EncodeBatch encodes ops as one batch.
func EncodeBatch(ops []Op) []byte {
	var w Writer
	for _, op := range ops {
		w.Write(op)
	}
	return w.Bytes()
}

// DecodeBatch decodes a batch. It fails on truncated input, unknown
// opcodes, trailing bytes, and counts or strings over the decoding limits.
func DecodeBatch(data []byte) ([]Op, error) {
	d := NewDecoder(data)
	count, err := d.ReadCollectionCount(MaxBatchOps)
	if err != nil {
		return nil, malformed(fmt.Errorf("op count: %w", err))
	}

	ops := make([]Op, 0, count)
	for i := 0; i < count; i++ {
		op, err := decodeOp(d)
		if err != nil {
			return nil, decodeError(i, err)
		}
		ops = append(ops, op)
	}
	if !d.EOF() {
		return nil, malformed(fmt.Errorf("%d trailing bytes", d.Remaining()))
	}
	return ops, nil
}

func decodeOp(d *Decoder) (Op, error) {
	b, err := d.ReadByte()
	if err != nil {
		return Op{}, err
	}
	op := Op{Kind: host.OpKind(b)}

	id := func(dst *NodeID) {
		if err != nil {
			return
		}
		var v uint32
		v, err = d.ReadUint32Varint()
		*dst = NodeID(v)
	}
	str := func(dst *string) {
		if err != nil {
			return
		}
		*dst, err = d.ReadString()
	}

	switch op.Kind {
	case host.OpCreateElement:
		id(&op.Target)
		str(&op.Name)
	case host.OpCreateText, host.OpSetText:
		id(&op.Target)
		str(&op.Value)
	case host.OpSetAttribute, host.OpSetStyleProperty:
		id(&op.Target)
		str(&op.Name)
		str(&op.Value)
	case host.OpRemoveAttribute, host.OpClearStyleProperty:
		id(&op.Target)
		str(&op.Name)
	case host.OpAddEventHandler, host.OpRemoveEventHandler:
		id(&op.Target)
		str(&op.Name)
		if err == nil {
			op.Listener, err = d.ReadUint32Varint()
		}
	case host.OpAppendChild, host.OpRemoveChild:
		id(&op.Parent)
		id(&op.Target)
	case host.OpInsertBefore:
		id(&op.Parent)
		id(&op.Target)
		id(&op.Ref)
	default:
		return Op{}, fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, b)
	}
	return op, err
}
