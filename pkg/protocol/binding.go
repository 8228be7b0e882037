package protocol

import (
	"github.com/vango-dev/reconcile/pkg/host"
)

// Binding is a host.Binding that encodes every call instead of performing
// it. Handles are NodeID values; the container root is RootID. Listeners
// are numbered on first use and keep their id while some element holds
// them. Once a flushed batch removes the last handler of a listener, or the
// subtree holding it, the id is released and a later use gets a new one.
//
// A Binding is not safe for concurrent use.
type Binding struct {
	w            Writer
	nextID       NodeID
	nextListener uint32
	listenerIDs  map[*host.Listener]uint32
	listeners    map[uint32]*host.Listener
	live         *liveSet
	pending      []Op
}

var _ host.Binding = (*Binding)(nil)

// NewBinding creates a Binding with no pending ops.
func NewBinding() *Binding {
	return &Binding{
		nextID:       RootID + 1,
		nextListener: 1,
		listenerIDs:  make(map[*host.Listener]uint32),
		listeners:    make(map[uint32]*host.Listener),
		live:         newLiveSet(),
	}
}

// Root returns the handle of the container root.
func (b *Binding) Root() host.Handle {
	return RootID
}

// Pending returns the number of ops encoded since the last Flush.
func (b *Binding) Pending() int {
	return b.w.Len()
}

// Flush returns the pending ops as one batch and starts a new one.
// It returns nil when nothing is pending.
func (b *Binding) Flush() []byte {
	if b.w.Len() == 0 {
		return nil
	}
	batch := b.w.Bytes()
	b.w.Reset()
	for _, op := range b.pending {
		b.live.apply(op, nil)
	}
	b.pending = b.pending[:0]
	b.release()
	return batch
}

// Discard drops the pending ops.
func (b *Binding) Discard() {
	b.w.Reset()
	b.pending = b.pending[:0]
	b.release()
}

// Listeners returns the number of listener ids in use.
func (b *Binding) Listeners() int {
	return len(b.listeners)
}

func (b *Binding) release() {
	for id, l := range b.listeners {
		if !b.live.used(id) {
			delete(b.listeners, id)
			delete(b.listenerIDs, l)
		}
	}
}

func (b *Binding) write(op Op) {
	b.w.Write(op)
	switch op.Kind {
	case host.OpAppendChild, host.OpInsertBefore, host.OpRemoveChild,
		host.OpAddEventHandler, host.OpRemoveEventHandler:
		b.pending = append(b.pending, op)
	}
}

// Listener returns the listener registered under id.
func (b *Binding) Listener(id uint32) (*host.Listener, bool) {
	l, ok := b.listeners[id]
	return l, ok
}

func (b *Binding) listenerID(l *host.Listener) uint32 {
	if id, ok := b.listenerIDs[l]; ok {
		return id
	}
	id := b.nextListener
	b.nextListener++
	b.listenerIDs[l] = id
	b.listeners[id] = l
	return id
}

func (b *Binding) alloc() NodeID {
	id := b.nextID
	b.nextID++
	return id
}

func (b *Binding) id(h host.Handle) (NodeID, error) {
	id, ok := h.(NodeID)
	if !ok || id >= b.nextID {
		return 0, unknownHandle("%v", h)
	}
	return id, nil
}

func (b *Binding) CreateElement(tag string) (host.Handle, error) {
	id := b.alloc()
	b.w.Write(Op{Kind: host.OpCreateElement, Target: id, Name: tag})
	return id, nil
}

func (b *Binding) CreateText(text string) (host.Handle, error) {
	id := b.alloc()
	b.w.Write(Op{Kind: host.OpCreateText, Target: id, Value: text})
	return id, nil
}

func (b *Binding) SetText(h host.Handle, text string) error {
	return b.target(h, Op{Kind: host.OpSetText, Value: text})
}

func (b *Binding) SetAttribute(h host.Handle, name, value string) error {
	return b.target(h, Op{Kind: host.OpSetAttribute, Name: name, Value: value})
}

func (b *Binding) RemoveAttribute(h host.Handle, name string) error {
	return b.target(h, Op{Kind: host.OpRemoveAttribute, Name: name})
}

func (b *Binding) SetStyleProperty(h host.Handle, name, value string) error {
	return b.target(h, Op{Kind: host.OpSetStyleProperty, Name: name, Value: value})
}

func (b *Binding) ClearStyleProperty(h host.Handle, name string) error {
	return b.target(h, Op{Kind: host.OpClearStyleProperty, Name: name})
}

func (b *Binding) AddEventHandler(h host.Handle, event string, l *host.Listener) error {
	return b.target(h, Op{Kind: host.OpAddEventHandler, Name: event, Listener: b.listenerID(l)})
}

func (b *Binding) RemoveEventHandler(h host.Handle, event string, l *host.Listener) error {
	return b.target(h, Op{Kind: host.OpRemoveEventHandler, Name: event, Listener: b.listenerID(l)})
}

func (b *Binding) AppendChild(parent, child host.Handle) error {
	return b.attach(host.OpAppendChild, parent, child, nil)
}

func (b *Binding) InsertBefore(parent, child, ref host.Handle) error {
	if ref == nil {
		return b.attach(host.OpAppendChild, parent, child, nil)
	}
	return b.attach(host.OpInsertBefore, parent, child, ref)
}

func (b *Binding) RemoveChild(parent, child host.Handle) error {
	return b.attach(host.OpRemoveChild, parent, child, nil)
}

func (b *Binding) target(h host.Handle, op Op) error {
	id, err := b.id(h)
	if err != nil {
		return err
	}
	op.Target = id
	b.write(op)
	return nil
}

func (b *Binding) attach(kind host.OpKind, parent, child, ref host.Handle) error {
	op := Op{Kind: kind}
	var err error
	if op.Parent, err = b.id(parent); err != nil {
		return err
	}
	if op.Target, err = b.id(child); err != nil {
		return err
	}
	if ref != nil {
		if op.Ref, err = b.id(ref); err != nil {
			return err
		}
	}
	b.write(op)
	return nil
}
