package reconcile

import (
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// patch reconciles two nodes occupying the same position under parent.
// On return new.Handle names the host node for the position.
func (p *pass) patch(old, new *vdom.VNode, parent host.Handle) error {
	if old.Kind != new.Kind || (old.Kind == vdom.KindElement && old.Tag != new.Tag) {
		return p.replace(old, new, parent)
	}

	h := old.Handle
	new.Handle = h
	p.stats.Patched++

	if new.Kind == vdom.KindText {
		if old.Text == new.Text {
			return nil
		}
		p.stats.TextUpdates++
		return wrapHost("set text", p.b.SetText(h, new.Text))
	}

	if err := p.patchAttrs(h, old.Attrs, new.Attrs); err != nil {
		return err
	}
	return p.children(old, new, h)
}

// replace mounts new where old is and removes old. No part of old is reused.
func (p *pass) replace(old, new *vdom.VNode, parent host.Handle) error {
	p.stats.Replaced++
	if err := p.mount(new, parent, old.Handle); err != nil {
		return err
	}
	return p.remove(old, parent)
}
