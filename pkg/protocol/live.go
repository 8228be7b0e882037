package protocol

import (
	"slices"

	"github.com/vango-dev/reconcile/pkg/host"
)

// liveSet follows the structural ops of a stream: which parent each node is
// attached to and which listener ids each element holds. A node removed with
// OpRemoveChild is never attached again, so its whole subtree is released.
type liveSet struct {
	parent   map[NodeID]NodeID
	children map[NodeID]map[NodeID]struct{}
	handlers map[NodeID][]handlerRef
	refs     map[uint32]int
}

type handlerRef struct {
	event    string
	listener uint32
}

func newLiveSet() *liveSet {
	return &liveSet{
		parent:   make(map[NodeID]NodeID),
		children: make(map[NodeID]map[NodeID]struct{}),
		handlers: make(map[NodeID][]handlerRef),
		refs:     make(map[uint32]int),
	}
}

// apply records op. release is called for every node id dropped by a
// removal, children first.
func (s *liveSet) apply(op Op, release func(NodeID)) {
	switch op.Kind {
	case host.OpAppendChild, host.OpInsertBefore:
		s.detach(op.Target)
		s.parent[op.Target] = op.Parent
		kids := s.children[op.Parent]
		if kids == nil {
			kids = make(map[NodeID]struct{})
			s.children[op.Parent] = kids
		}
		kids[op.Target] = struct{}{}

	case host.OpRemoveChild:
		s.detach(op.Target)
		s.drop(op.Target, release)

	case host.OpAddEventHandler:
		ref := handlerRef{op.Name, op.Listener}
		if !slices.Contains(s.handlers[op.Target], ref) {
			s.handlers[op.Target] = append(s.handlers[op.Target], ref)
			s.refs[op.Listener]++
		}

	case host.OpRemoveEventHandler:
		hs := s.handlers[op.Target]
		if i := slices.Index(hs, handlerRef{op.Name, op.Listener}); i >= 0 {
			if hs = slices.Delete(hs, i, i+1); len(hs) == 0 {
				delete(s.handlers, op.Target)
			} else {
				s.handlers[op.Target] = hs
			}
			s.unref(op.Listener)
		}
	}
}

// used reports whether any element still holds listener id.
func (s *liveSet) used(id uint32) bool {
	return s.refs[id] > 0
}

func (s *liveSet) detach(id NodeID) {
	p, ok := s.parent[id]
	if !ok {
		return
	}
	delete(s.parent, id)
	if kids := s.children[p]; kids != nil {
		delete(kids, id)
		if len(kids) == 0 {
			delete(s.children, p)
		}
	}
}

func (s *liveSet) drop(id NodeID, release func(NodeID)) {
	for kid := range s.children[id] {
		delete(s.parent, kid)
		s.drop(kid, release)
	}
	delete(s.children, id)
	for _, h := range s.handlers[id] {
		s.unref(h.listener)
	}
	delete(s.handlers, id)
	if release != nil {
		release(id)
	}
}

func (s *liveSet) unref(id uint32) {
	if s.refs[id]--; s.refs[id] <= 0 {
		delete(s.refs, id)
	}
}
