package memdom

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/reconcile/pkg/host"
)

func mustElement(t *testing.T, d *Document, tag string) *Node {
	t.Helper()
	h, err := d.CreateElement(tag)
	if err != nil {
		t.Fatalf("CreateElement(%q) error: %v", tag, err)
	}
	return h.(*Node)
}

func mustText(t *testing.T, d *Document, text string) *Node {
	t.Helper()
	h, err := d.CreateText(text)
	if err != nil {
		t.Fatalf("CreateText(%q) error: %v", text, err)
	}
	return h.(*Node)
}

func childStrings(n *Node) []string {
	var out []string
	for _, c := range n.Children() {
		out = append(out, c.String())
	}
	return out
}

func TestCreate(t *testing.T) {
	d := NewDocument("")
	if d.Root().Tag() != "body" || d.Root().ID() != 0 {
		t.Errorf("Root() = %v, want <body#0>", d.Root())
	}

	el := mustElement(t, d, "div")
	txt := mustText(t, d, "hi")
	if el.ID() != 1 || txt.ID() != 2 || d.NodeCount() != 3 {
		t.Errorf("ids = %d, %d; NodeCount() = %d; want 1, 2, 3", el.ID(), txt.ID(), d.NodeCount())
	}
	if el.Type() != ElementNode || txt.Type() != TextNode {
		t.Error("node types are wrong")
	}
	if el.String() != "<div#1>" || txt.String() != `"hi"#2` {
		t.Errorf("String() = %s, %s", el, txt)
	}

	if _, err := d.CreateElement(""); err == nil {
		t.Error("CreateElement(\"\") should fail")
	}
}

func TestInsertBefore(t *testing.T) {
	d := NewDocument("body")
	ul := mustElement(t, d, "ul")
	a := mustElement(t, d, "li")
	b := mustElement(t, d, "li")
	c := mustElement(t, d, "li")

	steps := []struct {
		name       string
		child, ref host.Handle
		want       []string
	}{
		{"append a", a, nil, []string{"<li#2>"}},
		{"append c", c, nil, []string{"<li#2>", "<li#4>"}},
		{"b before c", b, c, []string{"<li#2>", "<li#3>", "<li#4>"}},
		{"move c first", c, a, []string{"<li#4>", "<li#2>", "<li#3>"}},
		{"move a last", a, nil, []string{"<li#4>", "<li#3>", "<li#2>"}},
		{"self ref", b, b, []string{"<li#4>", "<li#3>", "<li#2>"}},
	}
	for _, step := range steps {
		if err := d.InsertBefore(ul, step.child, step.ref); err != nil {
			t.Fatalf("%s: InsertBefore() error: %v", step.name, err)
		}
		if diff := cmp.Diff(step.want, childStrings(ul)); diff != "" {
			t.Errorf("%s: children (-want +got):\n%s", step.name, diff)
		}
	}
	if a.Parent() != ul {
		t.Errorf("Parent() = %v, want %v", a.Parent(), ul)
	}
}

func TestMoveBetweenParents(t *testing.T) {
	d := NewDocument("body")
	p1 := mustElement(t, d, "div")
	p2 := mustElement(t, d, "div")
	x := mustText(t, d, "x")

	_ = d.AppendChild(p1, x)
	if err := d.AppendChild(p2, x); err != nil {
		t.Fatalf("AppendChild() error: %v", err)
	}
	if len(p1.Children()) != 0 || len(p2.Children()) != 1 || x.Parent() != p2 {
		t.Errorf("x not moved: p1=%v p2=%v", childStrings(p1), childStrings(p2))
	}
}

func TestTreeErrors(t *testing.T) {
	d := NewDocument("body")
	outer := mustElement(t, d, "div")
	inner := mustElement(t, d, "div")
	txt := mustText(t, d, "t")
	stray := mustElement(t, d, "span")
	_ = d.AppendChild(outer, inner)

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"cycle", d.AppendChild(inner, outer), ErrCycle},
		{"self", d.AppendChild(inner, inner), ErrCycle},
		{"text parent", d.AppendChild(txt, stray), ErrNotElement},
		{"ref elsewhere", d.InsertBefore(outer, txt, stray), ErrNotChild},
		{"remove stranger", d.RemoveChild(outer, stray), ErrNotChild},
		{"foreign handle", d.SetAttribute("div", "id", "x"), ErrInvalidHandle},
		{"nil node", d.SetText((*Node)(nil), "x"), ErrInvalidHandle},
		{"style on text", d.SetStyleProperty(txt, "color", "red"), ErrNotElement},
		{"listener on text", d.AddEventHandler(txt, "click", host.NewListener(nil)), ErrNotElement},
	}
	for _, tc := range tests {
		if !errors.Is(tc.err, tc.want) {
			t.Errorf("%s: error = %v, want %v", tc.name, tc.err, tc.want)
		}
	}

	if err := d.SetText(outer, "x"); err == nil {
		t.Error("SetText on element should fail")
	}
}

func TestRemoveChild(t *testing.T) {
	d := NewDocument("body")
	p := mustElement(t, d, "p")
	x := mustText(t, d, "x")
	_ = d.AppendChild(p, x)

	if err := d.RemoveChild(p, x); err != nil {
		t.Fatalf("RemoveChild() error: %v", err)
	}
	if len(p.Children()) != 0 || x.Parent() != nil {
		t.Error("child still attached after RemoveChild")
	}
	if err := d.AppendChild(p, x); err != nil {
		t.Errorf("re-attach error: %v", err)
	}
}

func TestAttributesAndStyle(t *testing.T) {
	d := NewDocument("body")
	el := mustElement(t, d, "div")

	_ = d.SetAttribute(el, "id", "main")
	_ = d.SetAttribute(el, "title", "t")
	_ = d.RemoveAttribute(el, "title")
	_ = d.RemoveAttribute(el, "missing")
	if diff := cmp.Diff(map[string]string{"id": "main"}, el.Attrs()); diff != "" {
		t.Errorf("Attrs() (-want +got):\n%s", diff)
	}
	if v, ok := el.Attr("id"); !ok || v != "main" {
		t.Errorf("Attr(id) = %q, %v", v, ok)
	}

	_ = d.SetStyleProperty(el, "margin", "0")
	_ = d.SetStyleProperty(el, "color", "red")
	_ = d.SetStyleProperty(el, "color", "blue")
	if got := el.StyleString(); got != "color:blue;margin:0" {
		t.Errorf("StyleString() = %q", got)
	}
	_ = d.ClearStyleProperty(el, "margin")
	if _, ok := el.Style("margin"); ok {
		t.Error("margin still set after ClearStyleProperty")
	}
}

func TestEventHandlers(t *testing.T) {
	d := NewDocument("body")
	el := mustElement(t, d, "button")
	var calls []string
	l1 := host.NewListener(func(e host.Event) { calls = append(calls, "l1:"+e.Type) })
	l2 := host.NewListener(func(e host.Event) { calls = append(calls, "l2:"+e.Data["v"]) })

	_ = d.AddEventHandler(el, "click", l1)
	_ = d.AddEventHandler(el, "click", l1)
	_ = d.AddEventHandler(el, "click", l2)
	_ = d.AddEventHandler(el, "focus", l1)

	if diff := cmp.Diff([]string{"click", "focus"}, el.Events()); diff != "" {
		t.Errorf("Events() (-want +got):\n%s", diff)
	}
	if n := el.Dispatch("click", map[string]string{"v": "1"}); n != 2 {
		t.Errorf("Dispatch() = %d, want 2", n)
	}
	if diff := cmp.Diff([]string{"l1:click", "l2:1"}, calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}

	_ = d.RemoveEventHandler(el, "focus", l1)
	_ = d.RemoveEventHandler(el, "click", l1)
	if diff := cmp.Diff([]string{"click"}, el.Events()); diff != "" {
		t.Errorf("Events() after remove (-want +got):\n%s", diff)
	}
	if n := el.Dispatch("focus", nil); n != 0 {
		t.Errorf("Dispatch(focus) = %d, want 0", n)
	}
}

func TestTextContent(t *testing.T) {
	d := NewDocument("body")
	p := mustElement(t, d, "p")
	b := mustElement(t, d, "b")
	_ = d.AppendChild(p, mustText(t, d, "a "))
	_ = d.AppendChild(p, b)
	_ = d.AppendChild(b, mustText(t, d, "bold"))
	_ = d.AppendChild(p, mustText(t, d, "!"))

	if got := p.TextContent(); got != "a bold!" {
		t.Errorf("TextContent() = %q", got)
	}
}
