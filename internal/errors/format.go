package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const ansiReset = "\033[0m"

// paint returns a function that wraps text in the given SGR sequence.
func paint(seq string) func(string) string {
	return func(s string) string {
		if !colorEnabled || s == "" {
			return s
		}
		return seq + s + ansiReset
	}
}

var (
	colorEnabled = true

	errStyle   = paint("\033[1;31m")
	titleStyle = paint("\033[1;37m")
	pathStyle  = paint("\033[36m")
	hintStyle  = paint("\033[33m")
	dimStyle   = paint("\033[90m")
	linkStyle  = paint("\033[4;34m")
)

// DisableColors turns off ANSI escapes in Format and PrintError.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI escapes back on.
func EnableColors() { colorEnabled = true }

// detailWidth is the column at which Detail is wrapped.
const detailWidth = 72

// Format renders the error as a multi-line block for a terminal.
func (e *ReconcileError) Format() string {
	title := e.Message
	if e.Code != "" {
		title = e.Code + ": " + e.Message
	}

	var sections []string
	sections = append(sections, errStyle("ERROR")+" "+titleStyle(title))
	if e.Path != "" {
		sections = append(sections, indent(pathStyle(e.Path)))
	}
	if e.Wrapped != nil {
		sections = append(sections, indent(dimStyle("Cause:")+" "+e.Wrapped.Error()))
	}
	if lines := wrapText(e.Detail, detailWidth); len(lines) > 0 {
		for i, l := range lines {
			lines[i] = indent(l)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if e.Suggestion != "" {
		sections = append(sections, indent(hintStyle("Hint:")+" "+e.Suggestion))
	}
	if e.DocURL != "" {
		sections = append(sections, indent(dimStyle("Learn more:")+" "+linkStyle(e.DocURL)))
	}
	return "\n" + strings.Join(sections, "\n\n") + "\n\n"
}

func indent(s string) string { return "  " + s }

// FormatCompact renders CODE: message at path on one line, without the cause.
func (e *ReconcileError) FormatCompact() string {
	s := e.Message
	if e.Code != "" {
		s = e.Code + ": " + s
	}
	if e.Path != "" {
		s += " at " + e.Path
	}
	return s
}

type jsonError struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Path       string   `json:"path,omitempty"`
	Cause      string   `json:"cause,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	DocURL     string   `json:"docUrl,omitempty"`
}

// FormatJSON renders the error as a single JSON object.
func (e *ReconcileError) FormatJSON() string {
	v := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Path:       e.Path,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Wrapped != nil {
		v.Cause = e.Wrapped.Error()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(b)
}

// wrapText breaks text into lines of at most width bytes. A single word
// longer than width gets a line of its own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}

// Fprint writes err to w, using Format for a ReconcileError anywhere in its
// chain.
func Fprint(w io.Writer, err error) {
	var re *ReconcileError
	if stderrors.As(err, &re) {
		fmt.Fprint(w, re.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", errStyle("ERROR:"), err)
}

// PrintError writes err to stderr.
func PrintError(err error) { Fprint(os.Stderr, err) }
