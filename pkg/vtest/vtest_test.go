package vtest_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/reconcile"
	"github.com/vango-dev/reconcile/pkg/vdom"
	"github.com/vango-dev/reconcile/pkg/vtest"
)

// recordingTB captures failures instead of reporting them.
type recordingTB struct {
	testing.TB
	failures []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Errorf(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.Errorf(format, args...)
}

func counter(n int, inc func()) *vdom.VNode {
	return vdom.Div(vdom.ID("counter"),
		vdom.Span(vdom.Textf("%d", n)),
		vdom.Button(vdom.ID("inc"), vdom.OnClick(inc), "+"),
	)
}

func TestRenderAssertions(t *testing.T) {
	tree := vdom.Div(vdom.Class("card"), vdom.H2("Welcome"), vdom.Input(vdom.Placeholder(`say "hi"`)))

	vtest.ExpectContains(t, tree, "Welcome")
	vtest.ExpectNotContains(t, tree, "Login")
	vtest.ExpectElement(t, tree, "input")
	vtest.ExpectAttribute(t, tree, "class", "card")
	vtest.ExpectAttribute(t, tree, "placeholder", `say "hi"`)

	rec := &recordingTB{TB: t}
	vtest.ExpectContains(rec, tree, "Goodbye")
	vtest.ExpectNotContains(rec, tree, "Welcome")
	vtest.ExpectElement(rec, tree, "table")
	vtest.ExpectAttribute(rec, tree, "class", "other")
	if len(rec.failures) != 4 {
		t.Errorf("failures = %d, want 4: %v", len(rec.failures), rec.failures)
	}
}

func TestRenderToStringError(t *testing.T) {
	broken := vdom.CreateComponent(func(vdom.Props, []*vdom.VNode) *vdom.VNode { return nil }, nil, nil)
	if got := vtest.RenderToString(broken); got != "" {
		t.Errorf("RenderToString() = %q, want empty", got)
	}
}

func TestHarnessCounter(t *testing.T) {
	clicks := 0
	inc := func() { clicks++ }

	h := vtest.New(t)
	stats := h.Render(counter(0, inc))
	if stats.Mode != reconcile.ModeMount {
		t.Errorf("Mode = %s, want mount", stats.Mode)
	}
	h.ExpectHTML(`<div id="counter"><span>0</span><button id="inc">+</button></div>`)

	if n := h.Dispatch("button", "inc", "click", nil); n != 1 || clicks != 1 {
		t.Errorf("Dispatch() = %d listeners, clicks = %d, want 1, 1", n, clicks)
	}

	h.Render(counter(clicks, inc))
	if got := h.Count(host.OpSetText); got != 1 {
		t.Errorf("SetText ops = %d, want 1: %v", got, h.Ops())
	}
	if len(h.Ops()) != 3 {
		t.Errorf("ops = %v, want SetText and a listener swap", h.Ops())
	}
	h.ExpectConsistent()

	h.Render(counter(clicks, nil))
	h.ExpectConsistent()
	if n := h.Dispatch("button", "inc", "click", nil); n != 0 {
		t.Errorf("Dispatch() after removing the handler = %d, want 0", n)
	}

	h.Unmount()
	h.ExpectHTML("")
	h.ExpectConsistent()
}

func TestHarnessNoOps(t *testing.T) {
	h := vtest.New(t)
	tree := func() *vdom.VNode { return vdom.Ul(vdom.Li(vdom.Key("a"), "a")) }
	h.Render(tree())
	h.Render(tree())
	h.ExpectNoOps()
	h.ExpectOps()
}

func TestHarnessErrors(t *testing.T) {
	h := vtest.New(t, reconcile.WithMaxDepth(2))
	h.Render(vdom.P("ok"))

	_, err := h.TryRender(vdom.Div(vdom.P(vdom.Span("deep"))))
	if err == nil {
		t.Fatal("expected max depth error")
	}
	h.ExpectConsistent()

	rec := &recordingTB{TB: t}
	failing := vtest.New(rec)
	failing.Render(vdom.P("x"))
	failing.ExpectHTML("<p>y</p>")
	failing.ExpectOps("nothing")
	failing.Dispatch("button", "", "click", nil)
	if len(rec.failures) != 3 {
		t.Fatalf("failures = %d, want 3: %v", len(rec.failures), rec.failures)
	}
	if !strings.Contains(rec.failures[2], "no <button") {
		t.Errorf("Dispatch failure = %q", rec.failures[2])
	}
}

func TestFind(t *testing.T) {
	h := vtest.New(t)
	h.Render(vdom.Div(vdom.P(vdom.ID("a"), "one"), vdom.P(vdom.ID("b"), "two")))

	if n := h.Find("p", ""); n == nil || n.TextContent() != "one" {
		t.Errorf("Find(p) = %v", n)
	}
	if n := h.Find("p", "b"); n == nil || n.TextContent() != "two" {
		t.Errorf("Find(p, b) = %v", n)
	}
	if n := h.Find("table", ""); n != nil {
		t.Errorf("Find(table) = %v, want nil", n)
	}
}
