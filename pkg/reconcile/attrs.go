package reconcile

import (
	"sort"

	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// patchAttrs brings the attributes of h from olds to news. Names present in
// news are visited first, then names only present in olds (the removal path).
func (p *pass) patchAttrs(h host.Handle, olds, news []vdom.Attr) error {
	for i := range news {
		n := &news[i]
		if err := p.patchAttribute(h, n.Name, lookupAttr(olds, n.Name), n); err != nil {
			return err
		}
	}
	for i := range olds {
		o := &olds[i]
		if lookupAttr(news, o.Name) != nil {
			continue
		}
		if err := p.patchAttribute(h, o.Name, o, nil); err != nil {
			return err
		}
	}
	return nil
}

// patchAttribute applies the delta of a single attribute. A nil side means
// the attribute is absent. Equal values issue no host call.
func (p *pass) patchAttribute(h host.Handle, name string, old, new *vdom.Attr) error {
	if old.Equal(new) {
		return nil
	}
	if old != nil && new != nil && old.Kind != new.Kind {
		if err := p.patchAttribute(h, name, old, nil); err != nil {
			return err
		}
		return p.patchAttribute(h, name, nil, new)
	}

	var kind vdom.AttrKind
	if new != nil {
		kind = new.Kind
	} else {
		kind = old.Kind
	}

	switch kind {
	case vdom.AttrStyle:
		return p.patchStyle(h, old, new)

	case vdom.AttrEvent:
		if old != nil && old.Listener != nil {
			p.stats.AttrOps++
			if err := p.b.RemoveEventHandler(h, old.Event, old.Listener); err != nil {
				return wrapHost("remove listener "+old.Event, err)
			}
		}
		if new != nil && new.Listener != nil {
			p.stats.AttrOps++
			if err := p.b.AddEventHandler(h, new.Event, new.Listener); err != nil {
				return wrapHost("add listener "+new.Event, err)
			}
		}
		return nil

	default:
		// class and generic attributes are replaced wholesale.
		p.stats.AttrOps++
		if new == nil {
			return wrapHost("remove attribute "+name, p.b.RemoveAttribute(h, name))
		}
		return wrapHost("set attribute "+name, p.b.SetAttribute(h, name, new.Value))
	}
}

// patchStyle sets changed properties of new and clears properties only old has.
func (p *pass) patchStyle(h host.Handle, old, new *vdom.Attr) error {
	var oldStyle, newStyle map[string]string
	if old != nil {
		oldStyle = old.Style
	}
	if new != nil {
		newStyle = new.Style
	}

	for _, prop := range new.StyleNames() {
		v := newStyle[prop]
		if ov, ok := oldStyle[prop]; ok && ov == v {
			continue
		}
		p.stats.AttrOps++
		if err := p.b.SetStyleProperty(h, prop, v); err != nil {
			return wrapHost("set style "+prop, err)
		}
	}
	for _, prop := range old.StyleNames() {
		if _, ok := newStyle[prop]; ok {
			continue
		}
		p.stats.AttrOps++
		if err := p.b.ClearStyleProperty(h, prop); err != nil {
			return wrapHost("clear style "+prop, err)
		}
	}
	return nil
}

// lookupAttr finds name in a name-sorted attribute list.
func lookupAttr(attrs []vdom.Attr, name string) *vdom.Attr {
	i := sort.Search(len(attrs), func(i int) bool { return attrs[i].Name >= name })
	if i < len(attrs) && attrs[i].Name == name {
		return &attrs[i]
	}
	return nil
}
