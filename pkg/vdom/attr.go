package vdom

import (
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/reconcile/pkg/host"
)

// EventPrefix marks an attribute name as an event binding: "@click".
const EventPrefix = "@"

// KeyAttr is the attribute name that sets VNode.Key.
const KeyAttr = "key"

// AttrKind is the closed set of attribute variants the patcher dispatches on.
// It is computed once when the attribute is built.
type AttrKind uint8

const (
	AttrGeneric AttrKind = iota // plain name="value"
	AttrClass                   // class, replaced wholesale
	AttrStyle                   // nested style property map
	AttrEvent                   // event listener
)

// String returns the string representation of the AttrKind.
func (k AttrKind) String() string {
	switch k {
	case AttrGeneric:
		return "Generic"
	case AttrClass:
		return "Class"
	case AttrStyle:
		return "Style"
	case AttrEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// Attr is one classified attribute.
type Attr struct {
	Name     string            // declared name ("id", "style", "@click")
	Kind     AttrKind          // variant tag
	Value    string            // AttrGeneric and AttrClass
	Style    map[string]string // AttrStyle
	Event    string            // AttrEvent, marker stripped ("click")
	Listener *host.Listener    // AttrEvent
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Name == ""
}

// Equal reports whether a and b would produce the same host state.
// Listeners compare by pointer.
func (a *Attr) Equal(b *Attr) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Name != b.Name {
		return false
	}
	switch a.Kind {
	case AttrStyle:
		return maps.Equal(a.Style, b.Style)
	case AttrEvent:
		return a.Event == b.Event && a.Listener == b.Listener
	default:
		return a.Value == b.Value
	}
}

// StyleNames returns the style property names in sorted order.
func (a *Attr) StyleNames() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Style))
	for name := range a.Style {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attribute classifies a raw name/value pair. It returns an empty Attr when
// the value means "absent" (nil, false). A "key" pair becomes the node key
// when passed to a builder and never reaches the host.
func Attribute(name string, value any) Attr {
	a, _ := classify(name, value)
	return a
}

// classify builds an Attr and reports whether the pair was a key.
func classify(name string, value any) (Attr, bool) {
	if name == "" || value == nil {
		return Attr{}, false
	}
	if name == KeyAttr {
		return Attr{Name: KeyAttr, Value: stringify(value)}, true
	}

	if l, ok := asListener(value); ok || strings.HasPrefix(name, EventPrefix) {
		if l == nil {
			return Attr{}, false
		}
		event := strings.TrimPrefix(name, EventPrefix)
		if event == name && len(name) > 2 && strings.EqualFold(name[:2], "on") {
			event = strings.ToLower(name[2:])
		}
		return Attr{
			Name:     EventPrefix + event,
			Kind:     AttrEvent,
			Event:    event,
			Listener: l,
		}, false
	}

	switch name {
	case "style":
		style := parseStyle(value)
		if len(style) == 0 {
			return Attr{}, false
		}
		return Attr{Name: name, Kind: AttrStyle, Style: style}, false
	case "class":
		switch v := value.(type) {
		case []string:
			value = strings.Join(v, " ")
		}
		return Attr{Name: name, Kind: AttrClass, Value: stringify(value)}, false
	}

	if b, ok := value.(bool); ok {
		if !b {
			return Attr{}, false
		}
		return Attr{Name: name, Kind: AttrGeneric}, false
	}
	return Attr{Name: name, Kind: AttrGeneric, Value: stringify(value)}, false
}

// asListener reports whether value is a handler. A nil handler is a
// handler with no listener.
func asListener(value any) (*host.Listener, bool) {
	switch v := value.(type) {
	case *host.Listener:
		return v, true
	case func(host.Event):
		if v == nil {
			return nil, true
		}
		return host.NewListener(v), true
	case func():
		if v == nil {
			return nil, true
		}
		return host.NewListener(func(host.Event) { v() }), true
	}
	return nil, false
}

// parseStyle accepts a property map or a "name: value; ..." declaration list.
func parseStyle(value any) map[string]string {
	switch v := value.(type) {
	case map[string]string:
		return maps.Clone(v)
	case map[string]any:
		out := make(map[string]string, len(v))
		for name, val := range v {
			if val == nil {
				continue
			}
			out[name] = stringify(val)
		}
		return out
	case string:
		out := make(map[string]string)
		for _, decl := range strings.Split(v, ";") {
			name, val, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			out[name] = strings.TrimSpace(val)
		}
		return out
	}
	return nil
}

// stringify converts an attribute value to its host string form.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// attrSet accumulates attributes and the key while a node is built.
type attrSet struct {
	attrs []Attr
	key   string
}

func (s *attrSet) add(a Attr) {
	if a.IsEmpty() {
		return
	}
	if a.Name == KeyAttr && a.Kind == AttrGeneric {
		s.key = a.Value
		return
	}
	s.attrs = append(s.attrs, a)
}

func (s *attrSet) addRaw(name string, value any) {
	a, isKey := classify(name, value)
	if isKey {
		s.key = a.Value
		return
	}
	s.add(a)
}

// finish returns the attributes sorted by name with later duplicates winning.
func (s *attrSet) finish() []Attr {
	if len(s.attrs) == 0 {
		return nil
	}
	sort.SliceStable(s.attrs, func(i, j int) bool { return s.attrs[i].Name < s.attrs[j].Name })
	out := s.attrs[:0]
	for i, a := range s.attrs {
		if i+1 < len(s.attrs) && s.attrs[i+1].Name == a.Name {
			continue
		}
		out = append(out, a)
	}
	return out
}
