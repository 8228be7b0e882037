// Package host defines the boundary between the reconciler and the mutable
// tree it updates.
//
// A Binding creates, mutates and reorders host nodes. The reconciler never
// inspects a Handle; it only passes handles it received from the same
// Binding back into it. Implementations live in sub-packages (memdom) or in
// other packages (protocol.Binding encodes operations for a remote client).
package host

// Handle is an opaque reference to one node of the host tree.
type Handle any

// Event is delivered to a Listener when the host dispatches an event.
type Event struct {
	Type   string
	Target Handle
	Data   map[string]string
}

// Listener is an event handler registered on a host node.
// Listeners are compared by pointer identity: re-registering the same
// *Listener is a no-op for the reconciler.
type Listener struct {
	Fn func(Event)
}

// NewListener wraps fn in a Listener.
func NewListener(fn func(Event)) *Listener {
	return &Listener{Fn: fn}
}

// Call invokes the listener if it has a function.
func (l *Listener) Call(e Event) {
	if l == nil || l.Fn == nil {
		return
	}
	l.Fn(e)
}

// Binding is the set of host tree primitives the reconciler depends on.
//
// Every method may fail; the reconciler propagates failures to its caller
// without retrying.
type Binding interface {
	CreateElement(tag string) (Handle, error)
	CreateText(text string) (Handle, error)
	SetText(h Handle, text string) error

	SetAttribute(h Handle, name, value string) error
	RemoveAttribute(h Handle, name string) error

	SetStyleProperty(h Handle, name, value string) error
	ClearStyleProperty(h Handle, name string) error

	AddEventHandler(h Handle, event string, l *Listener) error
	RemoveEventHandler(h Handle, event string, l *Listener) error

	AppendChild(parent, child Handle) error
	// InsertBefore places child immediately before ref inside parent.
	// A nil ref behaves like AppendChild. If child is already attached to
	// parent it is moved.
	InsertBefore(parent, child, ref Handle) error
	RemoveChild(parent, child Handle) error
}
