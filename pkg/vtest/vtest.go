package vtest

import (
	"strings"
	"testing"

	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// maxShown bounds how much HTML a failure message prints.
const maxShown = 500

// RenderToString renders node to compact HTML, or "" if it cannot be
// rendered. Use it in assertions where a render error is itself a failure:
//
//	if html := vtest.RenderToString(row); !strings.Contains(html, "Total") {
//		t.Errorf("row = %s", html)
//	}
func RenderToString(node *vdom.VNode) string {
	html, err := render.HTML(node)
	if err != nil {
		return ""
	}
	return html
}

// check renders node and reports a failure when ok rejects the HTML.
func check(t testing.TB, node *vdom.VNode, ok func(string) bool, format string, args ...any) {
	t.Helper()
	html := RenderToString(node)
	if ok(html) {
		return
	}
	if len(html) > maxShown {
		html = html[:maxShown] + "..."
	}
	t.Errorf(format+" in:\n%s", append(args, html)...)
}

// ExpectContains fails t unless the HTML of node contains s.
func ExpectContains(t testing.TB, node *vdom.VNode, s string) {
	t.Helper()
	check(t, node, func(h string) bool { return strings.Contains(h, s) }, "missing %q", s)
}

// ExpectNotContains fails t if the HTML of node contains s.
func ExpectNotContains(t testing.TB, node *vdom.VNode, s string) {
	t.Helper()
	check(t, node, func(h string) bool { return !strings.Contains(h, s) }, "unexpected %q", s)
}

// ExpectElement fails t unless node renders an element with the given tag.
func ExpectElement(t testing.TB, node *vdom.VNode, tag string) {
	t.Helper()
	check(t, node, func(h string) bool {
		return strings.Contains(h, "<"+tag+">") || strings.Contains(h, "<"+tag+" ")
	}, "no <%s> element", tag)
}

// ExpectAttribute fails t unless some element of node carries
// name="value". value is compared unescaped:
//
//	vtest.ExpectAttribute(t, link, "href", "/a?b=1&c=2")
func ExpectAttribute(t testing.TB, node *vdom.VNode, name, value string) {
	t.Helper()
	needle := name + `="` + render.EscapeAttr(value) + `"`
	check(t, node, func(h string) bool { return strings.Contains(h, needle) }, "no %s=%q", name, value)
}
