package vdom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGenericAttributes(t *testing.T) {
	tests := []struct {
		name  string
		attr  Attr
		key   string
		value string
	}{
		{"ID", ID("main"), "id", "main"},
		{"Data", Data("id", "123"), "data-id", "123"},
		{"Role", Role("button"), "role", "button"},
		{"Aria label", Aria("label", "Close"), "aria-label", "Close"},
		{"Aria true", Aria("hidden", true), "aria-hidden", "true"},
		{"Aria false", Aria("expanded", false), "aria-expanded", "false"},
		{"TabIndex", TabIndex(0), "tabindex", "0"},
		{"TabIndex negative", TabIndex(-1), "tabindex", "-1"},
		{"Hidden", Hidden(), "hidden", ""},
		{"TitleAttr", TitleAttr("Tooltip"), "title", "Tooltip"},
		{"Href", Href("/page"), "href", "/page"},
		{"Name", Name("email"), "name", "email"},
		{"Value", Value("x"), "value", "x"},
		{"Type", Type("submit"), "type", "submit"},
		{"Placeholder", Placeholder("Search"), "placeholder", "Search"},
		{"Disabled", Disabled(), "disabled", ""},
		{"Checked", Checked(), "checked", ""},
		{"Selected", Selected(), "selected", ""},
		{"For", For("email"), "for", "email"},
		{"Src", Src("/a.png"), "src", "/a.png"},
		{"Alt", Alt("A"), "alt", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Name != tt.key {
				t.Errorf("Name = %v, want %v", tt.attr.Name, tt.key)
			}
			if tt.attr.Kind != AttrGeneric {
				t.Errorf("Kind = %v, want Generic", tt.attr.Kind)
			}
			if tt.attr.Value != tt.value {
				t.Errorf("Value = %q, want %q", tt.attr.Value, tt.value)
			}
		})
	}
}

func TestClassAttributes(t *testing.T) {
	tests := []struct {
		name string
		attr Attr
		want string
	}{
		{"single", Class("card"), "card"},
		{"multiple", Class("card", "active"), "card active"},
		{"ClassIf true", ClassIf(true, "on"), "on"},
		{"Classes mixed", Classes("a", []string{"b", ""}, map[string]bool{"d": true, "c": true, "x": false}), "a b c d"},
		{"raw slice", Attribute("class", []string{"x", "y"}), "x y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Kind != AttrClass {
				t.Errorf("Kind = %v, want Class", tt.attr.Kind)
			}
			if tt.attr.Value != tt.want {
				t.Errorf("Value = %q, want %q", tt.attr.Value, tt.want)
			}
		})
	}
}

func TestStyleAttributes(t *testing.T) {
	tests := []struct {
		name string
		attr Attr
		want map[string]string
	}{
		{"map", Style(map[string]string{"color": "red"}), map[string]string{"color": "red"}},
		{"declarations", StyleAttr(" color: red ; margin:0;; bad "), map[string]string{"color": "red", "margin": "0"}},
		{"any map", Attribute("style", map[string]any{"width": 10, "skip": nil}), map[string]string{"width": "10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Kind != AttrStyle {
				t.Fatalf("Kind = %v, want Style", tt.attr.Kind)
			}
			if diff := cmp.Diff(tt.want, tt.attr.Style); diff != "" {
				t.Errorf("Style (-want +got):\n%s", diff)
			}
		})
	}

	if a := StyleAttr(""); !a.IsEmpty() {
		t.Errorf("empty style = %+v, want empty Attr", a)
	}

	props := map[string]string{"color": "red"}
	a := Style(props)
	props["color"] = "blue"
	if a.Style["color"] != "red" {
		t.Error("Style() must copy its input map")
	}

	s := Style(map[string]string{"z": "1", "a": "2", "m": "3"})
	if diff := cmp.Diff([]string{"a", "m", "z"}, s.StyleNames()); diff != "" {
		t.Errorf("StyleNames() (-want +got):\n%s", diff)
	}
}

func TestAbsentValues(t *testing.T) {
	tests := []struct {
		name string
		attr Attr
	}{
		{"nil value", Attribute("id", nil)},
		{"false bool", Attribute("disabled", false)},
		{"empty name", Attribute("", "x")},
		{"ClassIf false", ClassIf(false, "on")},
		{"AttrIf false", AttrIf(false, ID("x"))},
		{"event without handler", Attribute("@click", "not a func")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.attr.IsEmpty() {
				t.Errorf("attr = %+v, want empty", tt.attr)
			}
		})
	}

	if a := AttrIf(true, ID("x")); a.Name != "id" {
		t.Errorf("AttrIf(true) = %+v", a)
	}
}

func TestAttrEqual(t *testing.T) {
	l := OnClick(func() {})
	tests := []struct {
		name string
		a, b Attr
		want bool
	}{
		{"same generic", ID("a"), ID("a"), true},
		{"different value", ID("a"), ID("b"), false},
		{"different kind", Attribute("class", "x"), Attribute("id", "x"), false},
		{"same style", Style(map[string]string{"a": "1"}), StyleAttr("a: 1"), true},
		{"different style", Style(map[string]string{"a": "1"}), StyleAttr("a: 2"), false},
		{"same listener", l, l, true},
		{"different listener", l, OnClick(func() {}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(&tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}

	var nilAttr *Attr
	if !nilAttr.Equal(nil) || nilAttr.Equal(&Attr{Name: "x"}) {
		t.Error("nil Equal is wrong")
	}
}

func TestAttrKindString(t *testing.T) {
	kinds := map[AttrKind]string{
		AttrGeneric:   "Generic",
		AttrClass:     "Class",
		AttrStyle:     "Style",
		AttrEvent:     "Event",
		AttrKind(200): "Unknown",
	}
	for k, want := range kinds {
		if got := k.String(); got != want {
			t.Errorf("AttrKind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
