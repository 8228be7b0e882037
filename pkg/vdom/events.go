package vdom

// On binds handler to the named event. handler may be a *host.Listener,
// a func(host.Event), or a func(). Any other value yields an empty Attr.
func On(name string, handler any) Attr {
	return attr(EventPrefix+name, handler)
}

// Shorthands for On with the common DOM event names.

func OnClick(handler any) Attr      { return On("click", handler) }
func OnDblClick(handler any) Attr   { return On("dblclick", handler) }
func OnMouseDown(handler any) Attr  { return On("mousedown", handler) }
func OnMouseUp(handler any) Attr    { return On("mouseup", handler) }
func OnMouseEnter(handler any) Attr { return On("mouseenter", handler) }
func OnMouseLeave(handler any) Attr { return On("mouseleave", handler) }
func OnKeyDown(handler any) Attr    { return On("keydown", handler) }
func OnKeyUp(handler any) Attr      { return On("keyup", handler) }
func OnFocus(handler any) Attr      { return On("focus", handler) }
func OnBlur(handler any) Attr       { return On("blur", handler) }

// OnInput fires on every edit of a form control, OnChange only when the
// value is committed.
func OnInput(handler any) Attr  { return On("input", handler) }
func OnChange(handler any) Attr { return On("change", handler) }

func OnSubmit(handler any) Attr { return On("submit", handler) }
