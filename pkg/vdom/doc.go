// Package vdom describes declarative trees for the reconciler.
//
// A VNode is an element, a text node, or a component. Trees are rebuilt
// for every render and handed to reconcile.Engine, which compares them with
// the tree it rendered last and mutates the host to match.
//
// # Core Types
//
// VNode carries a kind, a tag or text, classified attributes, the declared
// child shape (Arity) and an optional reconciliation key. Attr is one
// attribute, already sorted into one of four variants: generic, class,
// style map, or event listener.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1("Title"),
//	    P("Content"),
//	    OnClick(handler),
//	)
//
// One child argument declares a Single child; a []*VNode argument or two
// or more children declare Many. Key sets the reconciliation key, which
// never reaches the host.
//
// CreateElement, CreateText and CreateComponent are the map-based
// equivalents used by decoders and generated code.
//
// # Components
//
// A component node holds a render function. Resolve expands every
// component into the elements it renders before reconciliation, and
// Validate checks the builder contract on the result.
package vdom
