// Package vtest provides testing helpers for code that builds VNode trees.
//
// # Render Assertions
//
// Assert on the static HTML of a tree:
//
//	vtest.ExpectContains(t, Card(props), "Welcome")
//	vtest.ExpectAttribute(t, Card(props), "class", "card")
//
// # Harness
//
// A Harness reconciles trees into an in-memory document, records the host
// operations of each pass and dispatches events to rendered listeners:
//
//	h := vtest.New(t)
//	h.Render(Counter(0, inc))
//	h.Dispatch("button", "inc", "click", nil)
//	h.Render(Counter(1, inc))
//	h.ExpectOps(`SetText("0"#3, "1")`)
//	h.ExpectConsistent()
package vtest
