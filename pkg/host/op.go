package host

import (
	"fmt"
	"strings"
)

// OpKind identifies a Binding call.
type OpKind uint8

const (
	OpCreateElement      OpKind = 0x01
	OpCreateText         OpKind = 0x02
	OpSetText            OpKind = 0x03
	OpSetAttribute       OpKind = 0x04
	OpRemoveAttribute    OpKind = 0x05
	OpSetStyleProperty   OpKind = 0x06
	OpClearStyleProperty OpKind = 0x07
	OpAddEventHandler    OpKind = 0x08
	OpRemoveEventHandler OpKind = 0x09
	OpAppendChild        OpKind = 0x0A
	OpInsertBefore       OpKind = 0x0B
	OpRemoveChild        OpKind = 0x0C
)

// AllOpKinds lists every OpKind in opcode order.
var AllOpKinds = []OpKind{
	OpCreateElement, OpCreateText, OpSetText,
	OpSetAttribute, OpRemoveAttribute,
	OpSetStyleProperty, OpClearStyleProperty,
	OpAddEventHandler, OpRemoveEventHandler,
	OpAppendChild, OpInsertBefore, OpRemoveChild,
}

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpCreateElement:
		return "CreateElement"
	case OpCreateText:
		return "CreateText"
	case OpSetText:
		return "SetText"
	case OpSetAttribute:
		return "SetAttribute"
	case OpRemoveAttribute:
		return "RemoveAttribute"
	case OpSetStyleProperty:
		return "SetStyleProperty"
	case OpClearStyleProperty:
		return "ClearStyleProperty"
	case OpAddEventHandler:
		return "AddEventHandler"
	case OpRemoveEventHandler:
		return "RemoveEventHandler"
	case OpAppendChild:
		return "AppendChild"
	case OpInsertBefore:
		return "InsertBefore"
	case OpRemoveChild:
		return "RemoveChild"
	default:
		return "Unknown"
	}
}

// IsMove reports whether the op attaches a node to a parent.
func (k OpKind) IsMove() bool {
	return k == OpAppendChild || k == OpInsertBefore
}

// Op is one recorded Binding call.
type Op struct {
	Kind     OpKind
	Target   Handle // node being created, mutated, or attached
	Parent   Handle // for AppendChild, InsertBefore, RemoveChild
	Ref      Handle // for InsertBefore
	Name     string // tag, attribute, style property, or event name
	Value    string // text, attribute, or style value
	Listener *Listener
}

// String formats the op for logs and CLI output.
func (o Op) String() string {
	var b strings.Builder
	b.WriteString(o.Kind.String())
	b.WriteByte('(')
	switch o.Kind {
	case OpCreateElement:
		fmt.Fprintf(&b, "%q", o.Name)
	case OpCreateText, OpSetText:
		if o.Kind == OpSetText {
			fmt.Fprintf(&b, "%v, ", o.Target)
		}
		fmt.Fprintf(&b, "%q", o.Value)
	case OpSetAttribute, OpSetStyleProperty:
		fmt.Fprintf(&b, "%v, %s=%q", o.Target, o.Name, o.Value)
	case OpRemoveAttribute, OpClearStyleProperty, OpAddEventHandler, OpRemoveEventHandler:
		fmt.Fprintf(&b, "%v, %s", o.Target, o.Name)
	case OpAppendChild, OpRemoveChild:
		fmt.Fprintf(&b, "%v, %v", o.Parent, o.Target)
	case OpInsertBefore:
		fmt.Fprintf(&b, "%v, %v, %v", o.Parent, o.Target, o.Ref)
	}
	b.WriteByte(')')
	return b.String()
}
