// Package treefile reads declarative trees from JSON or YAML documents.
//
// A document is one node. Element nodes name a tag, text nodes carry text,
// and component nodes name a registered component:
//
//	tag: ul
//	attrs: {id: list}
//	children:
//	  - {tag: li, key: a, child: Apple}
//	  - {tag: li, key: b, child: Banana, on: {click: pick}}
//
// "child" declares a single child and "children" a sequence, matching the
// Single and Many arities of vdom. A bare string wherever a node is
// expected is a text node.
package treefile

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Format selects the document syntax.
type Format uint8

const (
	JSON Format = iota
	YAML
)

// String returns the string representation of the Format.
func (f Format) String() string {
	if f == YAML {
		return "yaml"
	}
	return "json"
}

// FormatFromPath picks YAML for .yaml and .yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Node is one node of a tree document.
type Node struct {
	Tag       string            `json:"tag,omitempty" yaml:"tag,omitempty"`
	Text      *string           `json:"text,omitempty" yaml:"text,omitempty"`
	Component string            `json:"component,omitempty" yaml:"component,omitempty"`
	Key       string            `json:"key,omitempty" yaml:"key,omitempty"`
	Attrs     map[string]any    `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Style     map[string]string `json:"style,omitempty" yaml:"style,omitempty"`
	On        map[string]string `json:"on,omitempty" yaml:"on,omitempty"`
	Props     map[string]any    `json:"props,omitempty" yaml:"props,omitempty"`
	Child     *Node             `json:"child,omitempty" yaml:"child,omitempty"`
	Children  []*Node           `json:"children,omitempty" yaml:"children,omitempty"`
}

// plain has Node's fields without its decoding methods.
type plain Node

// UnmarshalJSON accepts a node object or a string, which becomes a text node.
func (n *Node) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Node{Text: &s}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode((*plain)(n))
}

// UnmarshalYAML accepts a node mapping or a scalar, which becomes a text node.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s := value.Value
		*n = Node{Text: &s}
		return nil
	}
	return value.Decode((*plain)(n))
}

// ListenerFunc returns the listener bound to an action name for an event.
type ListenerFunc func(event, action string) *host.Listener

// Options configures how documents become vdom nodes.
type Options struct {
	// Components maps component names to render functions.
	Components map[string]vdom.ComponentFunc

	// Listener resolves "on" entries. Documents with handlers fail to build
	// without it.
	Listener ListenerFunc
}

// Parse decodes a document without building it.
func Parse(data []byte, format Format) (*Node, error) {
	var n Node
	var err error
	if format == YAML {
		err = yaml.Unmarshal(data, &n)
	} else {
		err = json.Unmarshal(data, &n)
	}
	if err != nil {
		return nil, errors.New("T001").
			WithDetail(fmt.Sprintf("Cannot parse %s tree document", format)).
			Wrap(err)
	}
	return &n, nil
}

// Decode parses a document and builds its tree.
func Decode(data []byte, format Format, opts Options) (*vdom.VNode, error) {
	n, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	return n.Build(opts)
}

// ReadFile builds the tree stored at path; the extension picks the format.
func ReadFile(path string, opts Options) (*vdom.VNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("T001").WithPath(path).Wrap(err)
	}
	v, err := Decode(data, FormatFromPath(path), opts)
	if err != nil {
		var re *errors.ReconcileError
		if stderrors.As(err, &re) && re.Path == "" {
			re.Path = path
		}
		return nil, err
	}
	return v, nil
}

// Build converts the document into a vdom tree.
func (n *Node) Build(opts Options) (*vdom.VNode, error) {
	return n.build(opts, "/")
}

func (n *Node) build(opts Options, path string) (*vdom.VNode, error) {
	if n == nil {
		return nil, invalid(path, "empty node")
	}

	kinds := 0
	if n.Tag != "" {
		kinds++
	}
	if n.Text != nil {
		kinds++
	}
	if n.Component != "" {
		kinds++
	}
	if kinds != 1 {
		return nil, invalid(path, "node must have exactly one of tag, text or component")
	}
	if n.Child != nil && n.Children != nil {
		return nil, invalid(path, "node has both child and children")
	}

	if n.Text != nil {
		if n.Key != "" || n.Attrs != nil || n.Style != nil || n.On != nil || n.Props != nil || n.Child != nil || n.Children != nil {
			return nil, invalid(path, "text node only takes text")
		}
		return vdom.CreateText(*n.Text), nil
	}

	children, err := n.buildChildren(opts, path)
	if err != nil {
		return nil, err
	}

	if n.Component != "" {
		fn, ok := opts.Components[n.Component]
		if !ok {
			return nil, invalid(path, fmt.Sprintf("unknown component %q", n.Component))
		}
		if n.Attrs != nil || n.Style != nil || n.On != nil {
			return nil, invalid(path, "component node takes props, not attrs, style or on")
		}
		props := make(map[string]any, len(n.Props)+1)
		for k, v := range n.Props {
			props[k] = v
		}
		if n.Key != "" {
			props[vdom.KeyAttr] = n.Key
		}
		return vdom.CreateComponent(fn, props, children), nil
	}

	if n.Props != nil {
		return nil, invalid(path, "element node takes attrs, not props")
	}
	attrs := make(map[string]any, len(n.Attrs)+len(n.On)+2)
	for k, v := range n.Attrs {
		if k == vdom.KeyAttr || strings.HasPrefix(k, vdom.EventPrefix) {
			return nil, invalid(path, fmt.Sprintf("attribute %q is reserved; use key or on", k))
		}
		attrs[k] = v
	}
	if n.Style != nil {
		attrs["style"] = n.Style
	}
	if n.Key != "" {
		attrs[vdom.KeyAttr] = n.Key
	}
	for event, action := range n.On {
		if opts.Listener == nil {
			return nil, invalid(path, "event handlers need a listener resolver")
		}
		l := opts.Listener(event, action)
		if l == nil {
			return nil, invalid(path, fmt.Sprintf("no listener for %s=%q", event, action))
		}
		attrs[vdom.EventPrefix+event] = l
	}
	return vdom.CreateElement(n.Tag, attrs, children), nil
}

// buildChildren returns the declared child shape: nil, a *vdom.VNode, or a
// []*vdom.VNode.
func (n *Node) buildChildren(opts Options, path string) (any, error) {
	if n.Child != nil {
		c, err := n.Child.build(opts, join(path, "child"))
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	if n.Children == nil {
		return nil, nil
	}
	out := make([]*vdom.VNode, len(n.Children))
	for i, c := range n.Children {
		v, err := c.build(opts, join(path, fmt.Sprintf("children/%d", i)))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func join(path, elem string) string {
	return strings.TrimSuffix(path, "/") + "/" + elem
}

func invalid(path, detail string) error {
	return errors.New("T001").WithPath(path).WithDetail(detail)
}
