package protocol

import (
	"maps"
	"slices"

	"github.com/vango-dev/reconcile/pkg/host"
)

// Event is a host event a client reports for a listener id it received in
// an AddEventHandler op. On the wire it is
//
//	seq, listener, target (uvarints), type (string),
//	data count (uvarint), then key/value string pairs
type Event struct {
	Seq      uint64
	Listener uint32
	Target   NodeID
	Type     string
	Data     map[string]string
}

// EncodeEvent writes data entries sorted by key so equal events encode to
// equal bytes.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	for _, v := range []uint64{ev.Seq, uint64(ev.Listener), uint64(ev.Target)} {
		e.WriteUvarint(v)
	}
	e.WriteString(ev.Type)
	e.WriteUvarint(uint64(len(ev.Data)))
	for _, k := range slices.Sorted(maps.Keys(ev.Data)) {
		e.WriteString(k)
		e.WriteString(ev.Data[k])
	}
	return e.Bytes()
}

// DecodeEvent parses an event. At most MaxEventData data entries are
// accepted.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	ev := &Event{Seq: seq}
	if ev.Listener, err = d.ReadUint32Varint(); err != nil {
		return nil, err
	}
	target, err := d.ReadUint32Varint()
	if err != nil {
		return nil, err
	}
	ev.Target = NodeID(target)
	if ev.Type, err = d.ReadString(); err != nil {
		return nil, err
	}

	n, err := d.ReadCollectionCount(MaxEventData)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return ev, nil
	}
	ev.Data = make(map[string]string, n)
	for range n {
		var k, v string
		if k, err = d.ReadString(); err == nil {
			v, err = d.ReadString()
		}
		if err != nil {
			return nil, err
		}
		ev.Data[k] = v
	}
	return ev, nil
}

// HostEvent is the event as a host.Listener receives it.
func (ev *Event) HostEvent() host.Event {
	return host.Event{Type: ev.Type, Target: ev.Target, Data: ev.Data}
}
