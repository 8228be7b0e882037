package vtest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/host/memdom"
	"github.com/vango-dev/reconcile/pkg/reconcile"
	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Harness reconciles trees into an in-memory document and records the host
// operations of the latest pass.
type Harness struct {
	t      testing.TB
	doc    *memdom.Document
	rec    *host.Recorder
	engine *reconcile.Engine
	c      *reconcile.Container
	last   *vdom.VNode
}

// New creates a harness with a "body" root. Engine options are passed
// through.
//
// Example:
//
//	h := vtest.New(t, reconcile.WithStrictKeys(true))
//	h.Render(List(items))
//	h.ExpectHTML("<ul><li>a</li></ul>")
func New(t testing.TB, opts ...reconcile.Option) *Harness {
	t.Helper()
	doc := memdom.NewDocument("body")
	rec := host.NewRecorder(doc)
	return &Harness{
		t:      t,
		doc:    doc,
		rec:    rec,
		engine: reconcile.NewEngine(rec, opts...),
		c:      reconcile.NewContainer(doc.Root()),
	}
}

// Document returns the document the harness renders into.
func (h *Harness) Document() *memdom.Document {
	return h.doc
}

// Container returns the harness container.
func (h *Harness) Container() *reconcile.Container {
	return h.c
}

// Render reconciles tree and fails the test on error.
func (h *Harness) Render(tree *vdom.VNode) *reconcile.Stats {
	h.t.Helper()
	stats, err := h.TryRender(tree)
	if err != nil {
		h.t.Fatalf("Render() error: %v", err)
	}
	return stats
}

// TryRender reconciles tree and returns the engine's error.
func (h *Harness) TryRender(tree *vdom.VNode) (*reconcile.Stats, error) {
	h.rec.Reset()
	stats, err := h.engine.Render(context.Background(), tree, h.c)
	if err == nil {
		h.last = tree
	}
	return stats, err
}

// Unmount removes the rendered tree and fails the test on error.
func (h *Harness) Unmount() *reconcile.Stats {
	h.t.Helper()
	h.rec.Reset()
	stats, err := h.engine.Unmount(context.Background(), h.c)
	if err != nil {
		h.t.Fatalf("Unmount() error: %v", err)
	}
	h.last = nil
	return stats
}

// Ops returns the host operations of the latest pass in String form.
func (h *Harness) Ops() []string {
	out := make([]string, 0, h.rec.Len())
	for _, op := range h.rec.Ops() {
		out = append(out, op.String())
	}
	return out
}

// Count returns how many operations of kind the latest pass issued.
func (h *Harness) Count(kind host.OpKind) int {
	return h.rec.Count(kind)
}

// HTML serializes the document.
func (h *Harness) HTML() string {
	return h.doc.HTML()
}

// ExpectHTML asserts the document's HTML.
func (h *Harness) ExpectHTML(want string) {
	h.t.Helper()
	if got := h.doc.HTML(); got != want {
		h.t.Errorf("HTML() =\n%s\nwant\n%s", got, want)
	}
}

// ExpectOps asserts the operations of the latest pass, in order.
func (h *Harness) ExpectOps(want ...string) {
	h.t.Helper()
	if len(want) == 0 {
		h.ExpectNoOps()
		return
	}
	if diff := cmp.Diff(want, h.Ops()); diff != "" {
		h.t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

// ExpectNoOps asserts that the latest pass did not touch the host.
func (h *Harness) ExpectNoOps() {
	h.t.Helper()
	if ops := h.Ops(); len(ops) != 0 {
		h.t.Errorf("expected no ops, got %d:\n%v", len(ops), ops)
	}
}

// ExpectConsistent asserts that the document holds exactly what a static
// render of the last successfully rendered tree produces.
func (h *Harness) ExpectConsistent() {
	h.t.Helper()
	want := ""
	if h.last != nil {
		var err error
		if want, err = render.HTML(h.last); err != nil {
			h.t.Fatalf("render.HTML() error: %v", err)
		}
	}
	if got := h.doc.HTML(); got != want {
		h.t.Errorf("document diverged from tree:\n got %s\nwant %s", got, want)
	}
}

// Find returns the first element in document order with the given tag and,
// when id is not empty, that id attribute.
func (h *Harness) Find(tag, id string) *memdom.Node {
	var found *memdom.Node
	var walk func(n *memdom.Node) bool
	walk = func(n *memdom.Node) bool {
		if n.Type() == memdom.ElementNode && n.Tag() == tag {
			if v, _ := n.Attr("id"); id == "" || v == id {
				found = n
				return true
			}
		}
		for _, c := range n.Children() {
			if walk(c) {
				return true
			}
		}
		return false
	}
	for _, c := range h.doc.Root().Children() {
		if walk(c) {
			break
		}
	}
	return found
}

// Dispatch fires event on the first matching element and returns the number
// of listeners called. It fails the test when no element matches.
func (h *Harness) Dispatch(tag, id, event string, data map[string]string) int {
	h.t.Helper()
	n := h.Find(tag, id)
	if n == nil {
		h.t.Fatalf("no <%s id=%q> in document:\n%s", tag, id, h.doc.HTML())
		return 0
	}
	return n.Dispatch(event, data)
}
