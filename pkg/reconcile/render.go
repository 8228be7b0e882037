package reconcile

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

// Container is a host parent plus the tree last rendered into it.
// Each container is owned by its caller; an Engine keeps no per-container
// state.
type Container struct {
	root host.Handle
	tree *vdom.VNode
	busy atomic.Bool
}

// NewContainer returns an empty container rendering under root.
func NewContainer(root host.Handle) *Container {
	return &Container{root: root}
}

// Root returns the host parent of the container.
func (c *Container) Root() host.Handle {
	return c.root
}

// Tree returns the remembered tree, or nil before the first successful
// render and after Unmount.
func (c *Container) Tree() *vdom.VNode {
	return c.tree
}

// Mounted reports whether the container holds a rendered tree.
func (c *Container) Mounted() bool {
	return c.tree != nil
}

func (c *Container) acquire() error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrReentrantRender
	}
	return nil
}

func (c *Container) release() {
	c.busy.Store(false)
}

// Render makes the host subtree under c.Root() reflect tree.
//
// The first render into a container mounts the tree; later renders patch
// against the remembered tree. Components are resolved and the tree is
// validated before any host call. A nil tree unmounts.
//
// The remembered tree is replaced only when the pass succeeds. On error the
// host may be partially updated and the returned Stats describe the work
// done before the failure.
func (e *Engine) Render(ctx context.Context, tree *vdom.VNode, c *Container) (*Stats, error) {
	if tree == nil {
		return e.Unmount(ctx, c)
	}
	if c == nil {
		return nil, classify(ErrNilContainer)
	}
	if err := c.acquire(); err != nil {
		return nil, e.fail(ctx, &Stats{Mode: ModePatch}, err)
	}
	defer c.release()

	mode := ModePatch
	if c.tree == nil {
		mode = ModeMount
	}

	ctx, span := e.tracer.Start(ctx, "reconcile.render",
		trace.WithAttributes(attribute.String("reconcile.mode", string(mode))),
	)
	defer span.End()

	start := time.Now()
	p := &pass{b: e.binding, strictKeys: e.strictKeys}
	p.stats.Mode = mode

	err := e.run(p, tree, c)
	p.stats.Duration = time.Since(start)
	stats := &p.stats

	span.SetAttributes(statsAttributes(stats)...)
	if err != nil {
		err = classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.observe(stats, err)
		e.logger.ErrorContext(ctx, "render failed",
			"mode", mode,
			"error", err,
			"created", stats.Created,
			"removed", stats.Removed,
		)
		return stats, err
	}

	e.metrics.observe(stats, nil)
	e.logger.DebugContext(ctx, "render",
		"mode", mode,
		"created", stats.Created,
		"removed", stats.Removed,
		"moved", stats.Moved,
		"replaced", stats.Replaced,
		"patched", stats.Patched,
		"attr_ops", stats.AttrOps,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (e *Engine) run(p *pass, tree *vdom.VNode, c *Container) error {
	resolved, err := vdom.Resolve(tree)
	if err != nil {
		return err
	}
	if err := vdom.Validate(resolved, e.maxDepth); err != nil {
		return err
	}

	if c.tree == nil {
		err = p.mount(resolved, c.root, nil)
	} else {
		err = p.patch(c.tree, resolved, c.root)
	}
	if err != nil {
		return err
	}
	c.tree = resolved
	return nil
}

// Unmount removes the remembered tree from the host and clears the
// container. Unmounting an empty container does nothing.
func (e *Engine) Unmount(ctx context.Context, c *Container) (*Stats, error) {
	if c == nil {
		return nil, classify(ErrNilContainer)
	}
	stats := &Stats{Mode: ModeUnmount}
	if err := c.acquire(); err != nil {
		return nil, e.fail(ctx, stats, err)
	}
	defer c.release()

	if c.tree == nil {
		return stats, nil
	}

	ctx, span := e.tracer.Start(ctx, "reconcile.unmount")
	defer span.End()

	start := time.Now()
	p := &pass{b: e.binding, stats: *stats}
	err := p.remove(c.tree, c.root)
	p.stats.Duration = time.Since(start)
	stats = &p.stats

	if err != nil {
		err = classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.observe(stats, err)
		e.logger.ErrorContext(ctx, "unmount failed", "error", err)
		return stats, err
	}
	c.tree = nil

	e.metrics.observe(stats, nil)
	e.logger.DebugContext(ctx, "unmount", "duration", stats.Duration)
	return stats, nil
}

// fail reports an error raised before a pass could start.
func (e *Engine) fail(ctx context.Context, stats *Stats, err error) error {
	err = classify(err)
	e.metrics.observe(stats, err)
	e.logger.WarnContext(ctx, "render rejected", "mode", stats.Mode, "error", err)
	return err
}

func statsAttributes(s *Stats) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("reconcile.created", s.Created),
		attribute.Int("reconcile.removed", s.Removed),
		attribute.Int("reconcile.moved", s.Moved),
		attribute.Int("reconcile.replaced", s.Replaced),
		attribute.Int("reconcile.patched", s.Patched),
		attribute.Int("reconcile.attr_ops", s.AttrOps),
		attribute.Int("reconcile.text_updates", s.TextUpdates),
	}
}
