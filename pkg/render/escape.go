package render

import (
	"maps"
	"slices"
	"strings"
)

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	// Attribute values are always double quoted. Newlines and tabs become
	// character references so they survive attribute value normalization.
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\n", "&#10;",
		"\r", "&#13;",
		"\t", "&#9;",
	)
)

// EscapeHTML escapes text content.
func EscapeHTML(s string) string { return textEscaper.Replace(s) }

// EscapeAttr escapes a double-quoted attribute value.
func EscapeAttr(s string) string { return attrEscaper.Replace(s) }

// StyleString serializes style properties as "name:value;..." in name order.
func StyleString(style map[string]string) string {
	var b strings.Builder
	for i, name := range slices.Sorted(maps.Keys(style)) {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(style[name])
	}
	return b.String()
}
