package protocol

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	rerrors "github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/host/memdom"
	"github.com/vango-dev/reconcile/pkg/reconcile"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// pair renders every tree twice: directly into one document and through a
// Binding whose batches are replayed into a second document.
type pair struct {
	directDoc *memdom.Document
	directRec *host.Recorder
	direct    *reconcile.Engine
	directC   *reconcile.Container

	remote    *Binding
	remoteE   *reconcile.Engine
	remoteC   *reconcile.Container
	replayed  *memdom.Document
	replayRec *host.Recorder
	replayer  *Replayer
}

func newPair() *pair {
	p := &pair{
		directDoc: memdom.NewDocument("body"),
		replayed:  memdom.NewDocument("body"),
		remote:    NewBinding(),
	}
	p.directRec = host.NewRecorder(p.directDoc)
	p.direct = reconcile.NewEngine(p.directRec)
	p.directC = reconcile.NewContainer(p.directDoc.Root())

	p.remoteE = reconcile.NewEngine(p.remote)
	p.remoteC = reconcile.NewContainer(p.remote.Root())
	p.replayRec = host.NewRecorder(p.replayed)
	p.replayer = NewReplayer(p.replayRec, p.replayed.Root(), func(id uint32, e host.Event) {
		if l, ok := p.remote.Listener(id); ok {
			l.Call(e)
		}
	})
	return p
}

func opStrings(r *host.Recorder) []string {
	out := make([]string, 0, r.Len())
	for _, op := range r.Ops() {
		out = append(out, op.String())
	}
	return out
}

// render builds the tree twice with build, since a rendered tree takes
// ownership of its handles.
func (p *pair) render(t *testing.T, build func() *vdom.VNode) {
	t.Helper()
	ctx := context.Background()

	p.directRec.Reset()
	if _, err := p.direct.Render(ctx, build(), p.directC); err != nil {
		t.Fatalf("direct Render() error: %v", err)
	}

	p.replayRec.Reset()
	if _, err := p.remoteE.Render(ctx, build(), p.remoteC); err != nil {
		t.Fatalf("remote Render() error: %v", err)
	}
	if batch := p.remote.Flush(); batch != nil {
		if _, err := p.replayer.Apply(batch); err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
	}

	if diff := cmp.Diff(opStrings(p.directRec), opStrings(p.replayRec)); diff != "" {
		t.Errorf("replayed ops differ from direct ops (-direct +replayed):\n%s", diff)
	}
	if got, want := p.replayed.HTML(), p.directDoc.HTML(); got != want {
		t.Errorf("replayed HTML = %s, want %s", got, want)
	}
}

func keyed(keys ...string) func() *vdom.VNode {
	return func() *vdom.VNode {
		items := make([]*vdom.VNode, len(keys))
		for i, k := range keys {
			items[i] = vdom.Li(vdom.Key(k), vdom.Class("item-"+k), k)
		}
		return vdom.Ul(vdom.ID("list"), items)
	}
}

func TestReplayMatchesDirectRender(t *testing.T) {
	click := host.NewListener(func(host.Event) {})
	other := host.NewListener(func(host.Event) {})

	steps := []struct {
		name  string
		build func() *vdom.VNode
	}{
		{"mount", keyed("a", "b", "c", "d")},
		{"move", keyed("a", "c", "d", "b")},
		{"reverse", keyed("b", "d", "c", "a")},
		{"grow", keyed("x", "b", "d", "y", "c", "a", "z")},
		{"shrink", keyed("d", "z")},
		{"styled", func() *vdom.VNode {
			return vdom.Div(vdom.Style(map[string]string{"color": "red", "margin": "0"}),
				vdom.OnClick(click), "hello")
		}},
		{"restyled", func() *vdom.VNode {
			return vdom.Div(vdom.Style(map[string]string{"color": "blue"}),
				vdom.OnClick(other), vdom.Span("hello"))
		}},
		{"text", func() *vdom.VNode { return vdom.Text("plain") }},
		{"element again", func() *vdom.VNode { return vdom.P(vdom.Disabled(), "again") }},
	}

	p := newPair()
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			p.render(t, step.build)
		})
	}
}

func TestReplayRandomPermutations(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	p := newPair()
	for i := 0; i < 100; i++ {
		n := rng.IntN(8)
		keys := make([]string, 0, n)
		for _, k := range rng.Perm(10)[:n] {
			keys = append(keys, strconv.Itoa(k))
		}
		p.render(t, keyed(keys...))
		if t.Failed() {
			t.Fatalf("iteration %d keys %v", i, keys)
		}
	}
}

func TestReplayDispatchesToListener(t *testing.T) {
	p := newPair()
	var got []string
	l := host.NewListener(func(e host.Event) { got = append(got, e.Type+":"+e.Data["x"]) })

	p.render(t, func() *vdom.VNode {
		return vdom.Div(vdom.Button(vdom.OnClick(l), "go"))
	})

	button := p.replayed.Root().Children()[0].Children()[0]
	if n := button.Dispatch("click", map[string]string{"x": "1"}); n != 1 {
		t.Fatalf("Dispatch() invoked %d listeners, want 1", n)
	}
	if diff := cmp.Diff([]string{"click:1"}, got); diff != "" {
		t.Errorf("listener calls (-want +got):\n%s", diff)
	}

	proxy := button.Listeners("click")[0]
	id, ok := p.replayer.ListenerID(proxy)
	if !ok {
		t.Fatal("ListenerID() missing for replayed listener")
	}
	if orig, ok := p.remote.Listener(id); !ok || orig != l {
		t.Errorf("Binding.Listener(%d) = %p, %v; want %p", id, orig, ok, l)
	}
}

func TestBindingListenerIDsStable(t *testing.T) {
	b := NewBinding()
	l1 := host.NewListener(nil)
	l2 := host.NewListener(nil)
	h, _ := b.CreateElement("div")

	for _, l := range []*host.Listener{l1, l2, l1} {
		if err := b.AddEventHandler(h, "click", l); err != nil {
			t.Fatalf("AddEventHandler() error: %v", err)
		}
	}
	ops, err := DecodeBatch(b.Flush())
	if err != nil {
		t.Fatalf("DecodeBatch() error: %v", err)
	}
	var ids []uint32
	for _, op := range ops[1:] {
		ids = append(ids, op.Listener)
	}
	if diff := cmp.Diff([]uint32{1, 2, 1}, ids); diff != "" {
		t.Errorf("listener ids (-want +got):\n%s", diff)
	}
}

func TestBindingFlush(t *testing.T) {
	b := NewBinding()
	if batch := b.Flush(); batch != nil {
		t.Errorf("Flush() on empty binding = %v, want nil", batch)
	}

	h, _ := b.CreateText("x")
	_ = b.AppendChild(b.Root(), h)
	if b.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", b.Pending())
	}
	batch := b.Flush()
	if b.Pending() != 0 {
		t.Errorf("Pending() after Flush = %d, want 0", b.Pending())
	}
	ops, err := DecodeBatch(batch)
	if err != nil {
		t.Fatalf("DecodeBatch() error: %v", err)
	}
	want := []Op{
		{Kind: host.OpCreateText, Target: 1, Value: "x"},
		{Kind: host.OpAppendChild, Parent: RootID, Target: 1},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("ops (-want +got):\n%s", diff)
	}

	_ = b.SetText(h, "y")
	b.Discard()
	if b.Flush() != nil {
		t.Error("Flush() after Discard should be nil")
	}
}

func TestBindingUnknownHandle(t *testing.T) {
	b := NewBinding()
	tests := []struct {
		name string
		call func() error
	}{
		{"unallocated id", func() error { return b.SetText(NodeID(99), "x") }},
		{"foreign handle", func() error { return b.SetAttribute("node", "id", "x") }},
		{"bad ref", func() error {
			h, _ := b.CreateElement("p")
			return b.InsertBefore(b.Root(), h, NodeID(50))
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			if !errors.Is(err, ErrUnknownHandle) {
				t.Fatalf("error = %v, want ErrUnknownHandle", err)
			}
			if got := rerrors.Code(err); got != "P003" {
				t.Errorf("Code() = %q, want P003", got)
			}
		})
	}
}

func TestReplayerErrors(t *testing.T) {
	tests := []struct {
		name string
		ops  []Op
		code string
		want error
	}{
		{
			name: "unknown target",
			ops:  []Op{{Kind: host.OpSetText, Target: 5, Value: "x"}},
			code: "P003",
			want: ErrUnknownHandle,
		},
		{
			name: "unknown parent",
			ops: []Op{
				{Kind: host.OpCreateText, Target: 1, Value: "x"},
				{Kind: host.OpAppendChild, Parent: 7, Target: 1},
			},
			code: "P003",
			want: ErrUnknownHandle,
		},
		{
			name: "id bound twice",
			ops: []Op{
				{Kind: host.OpCreateElement, Target: 1, Name: "a"},
				{Kind: host.OpCreateElement, Target: 1, Name: "b"},
			},
			code: "P001",
			want: ErrMalformedBatch,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := memdom.NewDocument("body")
			r := NewReplayer(doc, doc.Root(), nil)
			n, err := r.ApplyOps(tc.ops)
			if n != len(tc.ops)-1 {
				t.Errorf("applied %d ops, want %d", n, len(tc.ops)-1)
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
			if got := rerrors.Code(err); got != tc.code {
				t.Errorf("Code() = %q, want %q", got, tc.code)
			}
		})
	}
}

func TestReplayerApplyRejectsWholeBatch(t *testing.T) {
	doc := memdom.NewDocument("body")
	r := NewReplayer(doc, doc.Root(), nil)

	batch := EncodeBatch([]Op{
		{Kind: host.OpCreateElement, Target: 1, Name: "div"},
		{Kind: host.OpAppendChild, Parent: RootID, Target: 1},
	})
	batch = append(batch, 0x00)

	n, err := r.Apply(batch)
	if n != 0 || !errors.Is(err, ErrMalformedBatch) {
		t.Errorf("Apply() = %d, %v; want 0, ErrMalformedBatch", n, err)
	}
	if doc.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1 (nothing applied)", doc.NodeCount())
	}
	if _, ok := r.Handle(1); ok {
		t.Error("Handle(1) bound after rejected batch")
	}
	if id, ok := r.ID(doc.Root()); !ok || id != RootID {
		t.Errorf("ID(root) = %v, %v; want %v, true", id, ok, RootID)
	}
}

func TestReplayTablesStayBounded(t *testing.T) {
	p := newPair()
	for i := range 1000 {
		key := strconv.Itoa(i)
		p.render(t, func() *vdom.VNode {
			return vdom.Ul(vdom.Li(vdom.Key(key), vdom.OnClick(func() {}), key))
		})
		if t.Failed() {
			t.Fatalf("iteration %d", i)
		}
	}

	// root, ul, li and its text
	if nodes, listeners := p.replayer.Len(); nodes != 4 || listeners != 1 {
		t.Errorf("Replayer.Len() = %d nodes, %d listeners; want 4, 1", nodes, listeners)
	}
	if n := p.remote.Listeners(); n != 1 {
		t.Errorf("Binding.Listeners() = %d, want 1", n)
	}

	li := p.replayed.Root().Children()[0].Children()[0]
	if n := li.Dispatch("click", nil); n != 1 {
		t.Errorf("Dispatch() invoked %d listeners, want 1", n)
	}
}

func TestReplayerUnbindsRemovedSubtree(t *testing.T) {
	doc := memdom.NewDocument("body")
	r := NewReplayer(doc, doc.Root(), nil)
	_, err := r.ApplyOps([]Op{
		{Kind: host.OpCreateElement, Target: 1, Name: "ul"},
		{Kind: host.OpCreateElement, Target: 2, Name: "li"},
		{Kind: host.OpCreateText, Target: 3, Value: "a"},
		{Kind: host.OpAppendChild, Parent: 2, Target: 3},
		{Kind: host.OpAppendChild, Parent: 1, Target: 2},
		{Kind: host.OpAddEventHandler, Target: 2, Name: "click", Listener: 1},
		{Kind: host.OpAppendChild, Parent: RootID, Target: 1},
	})
	if err != nil {
		t.Fatalf("ApplyOps() error: %v", err)
	}
	if nodes, listeners := r.Len(); nodes != 4 || listeners != 1 {
		t.Fatalf("Len() = %d, %d; want 4, 1", nodes, listeners)
	}

	if _, err := r.ApplyOps([]Op{{Kind: host.OpRemoveChild, Parent: 1, Target: 2}}); err != nil {
		t.Fatalf("ApplyOps() error: %v", err)
	}
	if nodes, listeners := r.Len(); nodes != 2 || listeners != 0 {
		t.Errorf("Len() after removal = %d, %d; want 2, 0", nodes, listeners)
	}
	for _, id := range []NodeID{2, 3} {
		if _, ok := r.Handle(id); ok {
			t.Errorf("Handle(%v) still bound", id)
		}
	}
	if _, ok := r.Handle(1); !ok {
		t.Error("Handle(1) unbound")
	}
}

func TestBindingReleasesListenerIDs(t *testing.T) {
	b := NewBinding()
	l := host.NewListener(nil)
	h, _ := b.CreateElement("button")
	_ = b.AppendChild(b.Root(), h)
	_ = b.AddEventHandler(h, "click", l)
	_ = b.AddEventHandler(h, "focus", l)
	b.Flush()

	_ = b.RemoveEventHandler(h, "click", l)
	b.Flush()
	if got, ok := b.Listener(1); !ok || got != l {
		t.Fatal("listener 1 released while focus still holds it")
	}

	_ = b.RemoveEventHandler(h, "focus", l)
	b.Flush()
	if _, ok := b.Listener(1); ok || b.Listeners() != 0 {
		t.Errorf("Listeners() = %d after the last handler was removed, want 0", b.Listeners())
	}

	_ = b.AddEventHandler(h, "click", l)
	ops, err := DecodeBatch(b.Flush())
	if err != nil {
		t.Fatalf("DecodeBatch() error: %v", err)
	}
	if ops[0].Listener != 2 {
		t.Errorf("listener id after release = %d, want 2", ops[0].Listener)
	}

	_ = b.AddEventHandler(h, "input", host.NewListener(nil))
	b.Discard()
	if n := b.Listeners(); n != 1 {
		t.Errorf("Listeners() after Discard = %d, want 1", n)
	}

	_ = b.RemoveChild(b.Root(), h)
	b.Flush()
	if n := b.Listeners(); n != 0 {
		t.Errorf("Listeners() after removing the element = %d, want 0", n)
	}
}
