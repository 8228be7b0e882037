package reconcile

import (
	"slices"

	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// children reconciles the child lists of two patched nodes. parent is the
// shared host handle.
func (p *pass) children(old, new *vdom.VNode, parent host.Handle) error {
	if new.Arity == vdom.ArityMany && p.strictKeys {
		if err := checkKeys(new.Children); err != nil {
			return err
		}
	}

	switch old.Arity {
	case vdom.ArityNone:
		return p.mountAll(new.Children, parent, nil)

	case vdom.AritySingle:
		switch new.Arity {
		case vdom.ArityNone:
			return p.removeAll(old.Children, parent)
		case vdom.AritySingle:
			return p.patch(old.Children[0], new.Children[0], parent)
		default:
			if err := p.removeAll(old.Children, parent); err != nil {
				return err
			}
			return p.mountAll(new.Children, parent, nil)
		}

	default:
		switch new.Arity {
		case vdom.ArityNone:
			return p.removeAll(old.Children, parent)
		case vdom.AritySingle:
			if err := p.removeAll(old.Children, parent); err != nil {
				return err
			}
			return p.mountAll(new.Children, parent, nil)
		default:
			return p.keyed(old.Children, new.Children, parent)
		}
	}
}

// keyed runs the four-pointer scan over two sibling sequences.
//
// Host order is maintained as: new[:newStart] placed, then the live old
// window, then new[newEnd+1:] placed. Old nodes claimed by the fallback
// search are cleared in a private copy of the old list so both window ends
// and the final removal skip them.
func (p *pass) keyed(oldCh, newCh []*vdom.VNode, parent host.Handle) error {
	old := slices.Clone(oldCh)
	oldStart, oldEnd := 0, len(old)-1
	newStart, newEnd := 0, len(newCh)-1

	for oldStart <= oldEnd && newStart <= newEnd {
		switch {
		case old[oldStart] == nil:
			oldStart++

		case old[oldEnd] == nil:
			oldEnd--

		case sameKey(old[oldStart], newCh[newStart]):
			if err := p.patch(old[oldStart], newCh[newStart], parent); err != nil {
				return err
			}
			oldStart++
			newStart++

		case sameKey(old[oldStart], newCh[newEnd]):
			// old head moved to the tail
			if err := p.patch(old[oldStart], newCh[newEnd], parent); err != nil {
				return err
			}
			if oldStart != oldEnd {
				if err := p.move(newCh[newEnd], parent, handleAt(newCh, newEnd+1)); err != nil {
					return err
				}
			}
			oldStart++
			newEnd--

		case sameKey(old[oldEnd], newCh[newStart]):
			// old tail moved to the head
			if err := p.patch(old[oldEnd], newCh[newStart], parent); err != nil {
				return err
			}
			if oldStart != oldEnd {
				if err := p.move(newCh[newStart], parent, old[oldStart].Handle); err != nil {
					return err
				}
			}
			oldEnd--
			newStart++

		case sameKey(old[oldEnd], newCh[newEnd]):
			if err := p.patch(old[oldEnd], newCh[newEnd], parent); err != nil {
				return err
			}
			oldEnd--
			newEnd--

		default:
			n := newCh[newStart]
			if i := findKey(old, oldStart, oldEnd, n.Key); i >= 0 {
				if err := p.patch(old[i], n, parent); err != nil {
					return err
				}
				if err := p.move(n, parent, old[oldStart].Handle); err != nil {
					return err
				}
				old[i] = nil
			} else if err := p.mount(n, parent, old[oldStart].Handle); err != nil {
				return err
			}
			newStart++
		}
	}

	if newStart <= newEnd {
		ref := handleAt(newCh, newEnd+1)
		if err := p.mountAll(newCh[newStart:newEnd+1], parent, ref); err != nil {
			return err
		}
	}
	for ; oldStart <= oldEnd; oldStart++ {
		if err := p.remove(old[oldStart], parent); err != nil {
			return err
		}
	}
	return nil
}

// move reattaches node's host handle before ref (appends when ref is nil).
func (p *pass) move(node *vdom.VNode, parent, ref host.Handle) error {
	p.stats.Moved++
	return p.insert(parent, node.Handle, ref)
}

// sameKey is the constant-time identity test of the scan hypotheses.
// Two unkeyed nodes match, so unkeyed siblings pair by position.
func sameKey(a, b *vdom.VNode) bool {
	return a.Key == b.Key
}

// findKey scans old[from..to] for a live node with key. An absent key never
// identifies a node.
func findKey(old []*vdom.VNode, from, to int, key string) int {
	if key == "" {
		return -1
	}
	for i := from; i <= to; i++ {
		if old[i] != nil && old[i].Key == key {
			return i
		}
	}
	return -1
}

// handleAt returns the host handle of nodes[i], or nil past the end.
func handleAt(nodes []*vdom.VNode, i int) host.Handle {
	if i < len(nodes) {
		return nodes[i].Handle
	}
	return nil
}
