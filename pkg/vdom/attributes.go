package vdom

import (
	"sort"
	"strings"
)

func attr(name string, value any) Attr { return Attribute(name, value) }

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute. The whole string is one value: changing
// any class replaces it on the host.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// ClassIf sets class when condition holds.
func ClassIf(condition bool, class string) Attr {
	return AttrIf(condition, attr("class", class))
}

// Classes builds one class value from strings, string slices and
// map[string]bool sets. Set members are sorted so the value is stable.
func Classes(classes ...any) Attr {
	var result []string
	add := func(s string) {
		if s != "" {
			result = append(result, s)
		}
	}
	for _, c := range classes {
		switch v := c.(type) {
		case string:
			add(v)
		case []string:
			for _, s := range v {
				add(s)
			}
		case map[string]bool:
			picked := make([]string, 0, len(v))
			for class, on := range v {
				if on {
					picked = append(picked, class)
				}
			}
			sort.Strings(picked)
			for _, s := range picked {
				add(s)
			}
		}
	}
	return attr("class", strings.Join(result, " "))
}

// Style sets style properties. Properties are patched one by one.
func Style(props map[string]string) Attr { return attr("style", props) }

// StyleAttr parses a declaration list such as "color: red; margin: 0".
func StyleAttr(style string) Attr { return attr("style", style) }

// Data sets data-<key>.
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Aria sets aria-<name>. Booleans become "true" or "false" rather than
// presence, matching ARIA's string states.
func Aria(name string, value any) Attr {
	if b, ok := value.(bool); ok {
		value = stringify(b)
	}
	return attr("aria-"+name, value)
}

// AttrIf returns a when condition holds and an absent attribute otherwise.
func AttrIf(condition bool, a Attr) Attr {
	if condition {
		return a
	}
	return Attr{}
}

func Role(role string) Attr { return attr("role", role) }
func TabIndex(index int) Attr { return attr("tabindex", index) }
func TitleAttr(title string) Attr { return attr("title", title) }
func Href(url string) Attr { return attr("href", url) }
func Src(url string) Attr { return attr("src", url) }
func Alt(text string) Attr { return attr("alt", text) }
func Name(name string) Attr { return attr("name", name) }
func Value(value string) Attr { return attr("value", value) }
func Type(t string) Attr { return attr("type", t) }
func Placeholder(text string) Attr { return attr("placeholder", text) }
func For(id string) Attr { return attr("for", id) }

// Boolean attributes are present with an empty value when set.

func Hidden() Attr { return attr("hidden", true) }
func Disabled() Attr { return attr("disabled", true) }
func Checked() Attr { return attr("checked", true) }
func Selected() Attr { return attr("selected", true) }
