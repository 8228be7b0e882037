package treefile

import (
	"sort"
	"sync"

	"github.com/vango-dev/reconcile/pkg/host"
)

// Actions hands out one listener per action name. Documents that name the
// same action get the same *host.Listener, so re-rendering them leaves the
// host's handlers untouched.
type Actions struct {
	mu        sync.Mutex
	fn        func(action string, e host.Event)
	listeners map[string]*host.Listener
}

// NewActions creates an action table whose listeners call fn. fn may be nil.
func NewActions(fn func(action string, e host.Event)) *Actions {
	return &Actions{
		fn:        fn,
		listeners: make(map[string]*host.Listener),
	}
}

// Listener returns the listener for action. It satisfies ListenerFunc.
func (a *Actions) Listener(event, action string) *host.Listener {
	a.mu.Lock()
	defer a.mu.Unlock()

	if l, ok := a.listeners[action]; ok {
		return l
	}
	l := host.NewListener(func(e host.Event) {
		if a.fn != nil {
			a.fn(action, e)
		}
	})
	a.listeners[action] = l
	return l
}

// Names returns the known action names, sorted.
func (a *Actions) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := make([]string, 0, len(a.listeners))
	for name := range a.listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
