package protocol

import (
	"fmt"

	"github.com/vango-dev/reconcile/pkg/host"
)

// DispatchFunc receives events raised on replayed listeners, identified by
// their wire listener id.
type DispatchFunc func(listener uint32, e host.Event)

// Replayer applies batches produced by a Binding to another host.Binding.
// It keeps the id-to-handle table across batches, so every batch of one
// Binding must be applied, in order, to the same Replayer. A node removed
// from its parent is never attached again: its subtree ids are unbound,
// and listener proxies no element holds are dropped after each batch.
//
// Target handles must be comparable.
type Replayer struct {
	target    host.Binding
	handles   map[NodeID]host.Handle
	ids       map[host.Handle]NodeID
	listeners map[uint32]*host.Listener
	proxies   map[*host.Listener]uint32
	live      *liveSet
	dispatch  DispatchFunc
}

// NewReplayer creates a Replayer whose RootID is root. dispatch may be nil.
func NewReplayer(target host.Binding, root host.Handle, dispatch DispatchFunc) *Replayer {
	r := &Replayer{
		target:    target,
		handles:   make(map[NodeID]host.Handle),
		ids:       make(map[host.Handle]NodeID),
		listeners: make(map[uint32]*host.Listener),
		proxies:   make(map[*host.Listener]uint32),
		live:      newLiveSet(),
		dispatch:  dispatch,
	}
	r.bind(RootID, root)
	return r
}

// Apply decodes batch and applies its ops in order. Nothing is applied when
// the batch does not decode. It returns the number of ops applied.
func (r *Replayer) Apply(batch []byte) (int, error) {
	ops, err := DecodeBatch(batch)
	if err != nil {
		return 0, err
	}
	return r.ApplyOps(ops)
}

// ApplyOps applies decoded ops in order and stops at the first failure.
func (r *Replayer) ApplyOps(ops []Op) (int, error) {
	defer r.release()
	for i, op := range ops {
		if err := r.apply(op); err != nil {
			return i, fmt.Errorf("op %d %v: %w", i, op, err)
		}
		r.live.apply(op, r.unbind)
	}
	return len(ops), nil
}

// Handle returns the target handle bound to id.
func (r *Replayer) Handle(id NodeID) (host.Handle, bool) {
	h, ok := r.handles[id]
	return h, ok
}

// ID returns the wire id bound to a target handle.
func (r *Replayer) ID(h host.Handle) (NodeID, bool) {
	id, ok := r.ids[h]
	return id, ok
}

// ListenerID returns the wire id of a listener created by the Replayer.
func (r *Replayer) ListenerID(l *host.Listener) (uint32, bool) {
	id, ok := r.proxies[l]
	return id, ok
}

// Len returns the number of bound node ids and of listener proxies.
func (r *Replayer) Len() (nodes, listeners int) {
	return len(r.handles), len(r.listeners)
}

func (r *Replayer) bind(id NodeID, h host.Handle) {
	r.handles[id] = h
	r.ids[h] = id
}

func (r *Replayer) unbind(id NodeID) {
	if h, ok := r.handles[id]; ok {
		delete(r.ids, h)
		delete(r.handles, id)
	}
}

func (r *Replayer) release() {
	for id, l := range r.listeners {
		if !r.live.used(id) {
			delete(r.listeners, id)
			delete(r.proxies, l)
		}
	}
}

func (r *Replayer) handle(id NodeID) (host.Handle, error) {
	h, ok := r.handles[id]
	if !ok {
		return nil, unknownHandle("%v", id)
	}
	return h, nil
}

func (r *Replayer) listener(id uint32) *host.Listener {
	if l, ok := r.listeners[id]; ok {
		return l
	}
	l := host.NewListener(func(e host.Event) {
		if r.dispatch != nil {
			r.dispatch(id, e)
		}
	})
	r.listeners[id] = l
	r.proxies[l] = id
	return l
}

func (r *Replayer) apply(op Op) error {
	switch op.Kind {
	case host.OpCreateElement, host.OpCreateText:
		if _, exists := r.handles[op.Target]; exists {
			return malformed(fmt.Errorf("id %v already bound", op.Target))
		}
		var h host.Handle
		var err error
		if op.Kind == host.OpCreateElement {
			h, err = r.target.CreateElement(op.Name)
		} else {
			h, err = r.target.CreateText(op.Value)
		}
		if err != nil {
			return err
		}
		r.bind(op.Target, h)
		return nil

	case host.OpAppendChild, host.OpInsertBefore, host.OpRemoveChild:
		parent, err := r.handle(op.Parent)
		if err != nil {
			return err
		}
		child, err := r.handle(op.Target)
		if err != nil {
			return err
		}
		switch op.Kind {
		case host.OpAppendChild:
			return r.target.AppendChild(parent, child)
		case host.OpInsertBefore:
			ref, err := r.handle(op.Ref)
			if err != nil {
				return err
			}
			return r.target.InsertBefore(parent, child, ref)
		default:
			return r.target.RemoveChild(parent, child)
		}
	}

	h, err := r.handle(op.Target)
	if err != nil {
		return err
	}
	switch op.Kind {
	case host.OpSetText:
		return r.target.SetText(h, op.Value)
	case host.OpSetAttribute:
		return r.target.SetAttribute(h, op.Name, op.Value)
	case host.OpRemoveAttribute:
		return r.target.RemoveAttribute(h, op.Name)
	case host.OpSetStyleProperty:
		return r.target.SetStyleProperty(h, op.Name, op.Value)
	case host.OpClearStyleProperty:
		return r.target.ClearStyleProperty(h, op.Name)
	case host.OpAddEventHandler:
		return r.target.AddEventHandler(h, op.Name, r.listener(op.Listener))
	case host.OpRemoveEventHandler:
		return r.target.RemoveEventHandler(h, op.Name, r.listener(op.Listener))
	}
	return fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, byte(op.Kind))
}
