package reconcile

import (
	"fmt"

	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// pass carries the state of one render pass.
type pass struct {
	b          host.Binding
	strictKeys bool
	stats      Stats
}

// mount instantiates node and its subtree, then attaches it to parent before
// the given sibling (appended when before is nil). The subtree is built
// detached so the parent sees a single insertion.
func (p *pass) mount(node *vdom.VNode, parent, before host.Handle) error {
	switch node.Kind {
	case vdom.KindElement:
		if node.Tag == "" {
			return fmt.Errorf("%w: element without tag", ErrMalformedNode)
		}
		h, err := p.b.CreateElement(node.Tag)
		if err != nil {
			return wrapHost("create element "+node.Tag, err)
		}
		node.Handle = h
		p.stats.Created++

		for i := range node.Attrs {
			if err := p.patchAttribute(h, node.Attrs[i].Name, nil, &node.Attrs[i]); err != nil {
				return err
			}
		}
		if node.Arity == vdom.ArityMany && p.strictKeys {
			if err := checkKeys(node.Children); err != nil {
				return err
			}
		}
		for _, child := range node.Children {
			if err := p.mount(child, h, nil); err != nil {
				return err
			}
		}

	case vdom.KindText:
		h, err := p.b.CreateText(node.Text)
		if err != nil {
			return wrapHost("create text", err)
		}
		node.Handle = h
		p.stats.Created++

	default:
		return fmt.Errorf("%w: cannot mount %s node", ErrMalformedNode, node.Kind)
	}

	return p.insert(parent, node.Handle, before)
}

// mountAll mounts nodes in order before the given sibling.
func (p *pass) mountAll(nodes []*vdom.VNode, parent, before host.Handle) error {
	for _, n := range nodes {
		if err := p.mount(n, parent, before); err != nil {
			return err
		}
	}
	return nil
}

// insert attaches (or moves) child into parent before ref, or appends.
func (p *pass) insert(parent, child, ref host.Handle) error {
	if ref == nil {
		return wrapHost("append child", p.b.AppendChild(parent, child))
	}
	return wrapHost("insert before", p.b.InsertBefore(parent, child, ref))
}

// remove detaches node's host subtree from parent.
func (p *pass) remove(node *vdom.VNode, parent host.Handle) error {
	if node == nil || node.Handle == nil {
		return nil
	}
	p.stats.Removed++
	return wrapHost("remove child", p.b.RemoveChild(parent, node.Handle))
}

// removeAll detaches every node in nodes.
func (p *pass) removeAll(nodes []*vdom.VNode, parent host.Handle) error {
	for _, n := range nodes {
		if err := p.remove(n, parent); err != nil {
			return err
		}
	}
	return nil
}

func checkKeys(children []*vdom.VNode) error {
	if key, dup := vdom.DuplicateKey(children); dup {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	return nil
}
