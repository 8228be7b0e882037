package render

import "strings"

// inlineElements stay on one line in pretty-printed output.
var inlineElements = make(map[string]bool)

func init() {
	for _, tag := range strings.Fields(`
		a abbr b bdi bdo br cite code data dfn em i kbd mark q rb rp rt rtc ruby s samp small span strong sub sup time u var wbr`) {
		inlineElements[tag] = true
	}
}

func isInlineElement(tag string) bool {
	return inlineElements[tag]
}
