package host

// Recorder is a Binding that forwards every call to another Binding and
// records it. Failed calls are recorded too.
type Recorder struct {
	next Binding
	ops  []Op
}

var _ Binding = (*Recorder)(nil)

// NewRecorder wraps next.
func NewRecorder(next Binding) *Recorder {
	return &Recorder{next: next}
}

// Ops returns the recorded calls in order. The slice is shared until Reset.
func (r *Recorder) Ops() []Op {
	return r.ops
}

// Len returns the number of recorded calls.
func (r *Recorder) Len() int {
	return len(r.ops)
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.ops = r.ops[:0]
}

// Count returns how many calls of kind k were recorded.
func (r *Recorder) Count(k OpKind) int {
	n := 0
	for _, op := range r.ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Counts returns the number of recorded calls per kind.
func (r *Recorder) Counts() map[OpKind]int {
	counts := make(map[OpKind]int)
	for _, op := range r.ops {
		counts[op.Kind]++
	}
	return counts
}

func (r *Recorder) record(op Op) {
	r.ops = append(r.ops, op)
}

func (r *Recorder) CreateElement(tag string) (Handle, error) {
	h, err := r.next.CreateElement(tag)
	r.record(Op{Kind: OpCreateElement, Target: h, Name: tag})
	return h, err
}

func (r *Recorder) CreateText(text string) (Handle, error) {
	h, err := r.next.CreateText(text)
	r.record(Op{Kind: OpCreateText, Target: h, Value: text})
	return h, err
}

func (r *Recorder) SetText(h Handle, text string) error {
	r.record(Op{Kind: OpSetText, Target: h, Value: text})
	return r.next.SetText(h, text)
}

func (r *Recorder) SetAttribute(h Handle, name, value string) error {
	r.record(Op{Kind: OpSetAttribute, Target: h, Name: name, Value: value})
	return r.next.SetAttribute(h, name, value)
}

func (r *Recorder) RemoveAttribute(h Handle, name string) error {
	r.record(Op{Kind: OpRemoveAttribute, Target: h, Name: name})
	return r.next.RemoveAttribute(h, name)
}

func (r *Recorder) SetStyleProperty(h Handle, name, value string) error {
	r.record(Op{Kind: OpSetStyleProperty, Target: h, Name: name, Value: value})
	return r.next.SetStyleProperty(h, name, value)
}

func (r *Recorder) ClearStyleProperty(h Handle, name string) error {
	r.record(Op{Kind: OpClearStyleProperty, Target: h, Name: name})
	return r.next.ClearStyleProperty(h, name)
}

func (r *Recorder) AddEventHandler(h Handle, event string, l *Listener) error {
	r.record(Op{Kind: OpAddEventHandler, Target: h, Name: event, Listener: l})
	return r.next.AddEventHandler(h, event, l)
}

func (r *Recorder) RemoveEventHandler(h Handle, event string, l *Listener) error {
	r.record(Op{Kind: OpRemoveEventHandler, Target: h, Name: event, Listener: l})
	return r.next.RemoveEventHandler(h, event, l)
}

func (r *Recorder) AppendChild(parent, child Handle) error {
	r.record(Op{Kind: OpAppendChild, Parent: parent, Target: child})
	return r.next.AppendChild(parent, child)
}

func (r *Recorder) InsertBefore(parent, child, ref Handle) error {
	r.record(Op{Kind: OpInsertBefore, Parent: parent, Target: child, Ref: ref})
	return r.next.InsertBefore(parent, child, ref)
}

func (r *Recorder) RemoveChild(parent, child Handle) error {
	r.record(Op{Kind: OpRemoveChild, Parent: parent, Target: child})
	return r.next.RemoveChild(parent, child)
}
