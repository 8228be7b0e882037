package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reconcile/internal/config"
	"github.com/vango-dev/reconcile/internal/treefile"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/host/memdom"
	"github.com/vango-dev/reconcile/pkg/protocol"
	"github.com/vango-dev/reconcile/pkg/reconcile"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

type diffOptions struct {
	format string
	html   bool
	wire   bool
}

func diffCmd(g *globalFlags) *cobra.Command {
	opts := diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Print the host operations that turn one tree into another",
		Long: `Render OLD into an in-memory document, then render NEW over it and print
the host operations of the second pass.

Documents are JSON, or YAML when the file ends in .yaml or .yml. Event
handlers ({on: {click: save}}) with the same action name in both documents
are the same listener, so they produce no operations.

Examples:
  vreconcile diff old.yaml new.yaml
  vreconcile diff old.json new.json --format json --html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if opts.format != "text" && opts.format != "json" {
				return cliError("unknown format %q: use text or json", opts.format)
			}

			actions := treefile.NewActions(nil)
			topts := treefile.Options{Listener: actions.Listener}
			load := func() (*vdom.VNode, *vdom.VNode, error) {
				oldTree, err := treefile.ReadFile(args[0], topts)
				if err != nil {
					return nil, nil, err
				}
				newTree, err := treefile.ReadFile(args[1], topts)
				if err != nil {
					return nil, nil, err
				}
				return oldTree, newTree, nil
			}

			logger := newLogger(cfg, cmd.ErrOrStderr())
			res, err := runDiff(cmd.Context(), cfg, logger, load, opts.wire)
			if err != nil {
				return err
			}
			return res.write(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text or json")
	cmd.Flags().BoolVar(&opts.html, "html", false, "also print the resulting HTML")
	cmd.Flags().BoolVar(&opts.wire, "wire", false, "also report the encoded wire batch size")

	return cmd
}

// diffResult is the outcome of rendering two trees in sequence.
type diffResult struct {
	Ops       []string        `json:"ops"`
	Counts    map[string]int  `json:"counts"`
	Stats     reconcile.Stats `json:"stats"`
	WireBytes int             `json:"wireBytes,omitempty"`
	HTML      string          `json:"html,omitempty"`
}

// treeLoader returns fresh old and new trees on every call. Rendering
// writes host handles into nodes, so each engine needs its own copy.
type treeLoader func() (oldTree, newTree *vdom.VNode, err error)

// runDiff renders the old tree, then the new one, into one memdom document
// and returns the host operations of the second pass. With wire set, both
// passes are also encoded through a protocol.Binding and replayed onto a
// second document, which must end up identical.
func runDiff(ctx context.Context, cfg *config.Config, logger *slog.Logger, load treeLoader, wire bool) (*diffResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	oldTree, newTree, err := load()
	if err != nil {
		return nil, err
	}
	doc := memdom.NewDocument(cfg.Server.RootTag)
	rec := host.NewRecorder(doc)
	engine := reconcile.NewEngine(rec,
		reconcile.WithLogger(logger),
		reconcile.WithMaxDepth(cfg.Engine.MaxDepth),
		reconcile.WithStrictKeys(cfg.Engine.StrictKeys),
	)
	container := reconcile.NewContainer(doc.Root())

	if _, err := engine.Render(ctx, oldTree, container); err != nil {
		return nil, err
	}
	rec.Reset()

	stats, err := engine.Render(ctx, newTree, container)
	if err != nil {
		return nil, err
	}

	res := &diffResult{
		Ops:    make([]string, 0, rec.Len()),
		Counts: make(map[string]int),
		Stats:  *stats,
		HTML:   doc.HTML(),
	}
	for _, op := range rec.Ops() {
		res.Ops = append(res.Ops, op.String())
	}
	for kind, n := range rec.Counts() {
		res.Counts[kind.String()] = n
	}

	if wire {
		oldCopy, newCopy, err := load()
		if err != nil {
			return nil, err
		}
		wd := newWireDiff(cfg, logger)
		if _, err := wd.render(ctx, oldCopy); err != nil {
			return nil, err
		}
		if res.WireBytes, err = wd.render(ctx, newCopy); err != nil {
			return nil, err
		}
		if got := wd.doc.HTML(); got != res.HTML {
			return nil, fmt.Errorf("wire replay diverged:\n%s\nwant\n%s", got, res.HTML)
		}
	}
	return res, nil
}

// wireDiff renders through a protocol.Binding and replays each batch.
type wireDiff struct {
	binding   *protocol.Binding
	engine    *reconcile.Engine
	container *reconcile.Container
	doc       *memdom.Document
	replay    *protocol.Replayer
}

func newWireDiff(cfg *config.Config, logger *slog.Logger) *wireDiff {
	b := protocol.NewBinding()
	doc := memdom.NewDocument(cfg.Server.RootTag)
	return &wireDiff{
		binding: b,
		engine: reconcile.NewEngine(b,
			reconcile.WithLogger(logger),
			reconcile.WithMaxDepth(cfg.Engine.MaxDepth),
			reconcile.WithStrictKeys(cfg.Engine.StrictKeys),
		),
		container: reconcile.NewContainer(b.Root()),
		doc:       doc,
		replay:    protocol.NewReplayer(doc, doc.Root(), nil),
	}
}

// render renders tree, replays the batch and returns its encoded size.
func (w *wireDiff) render(ctx context.Context, tree *vdom.VNode) (int, error) {
	if _, err := w.engine.Render(ctx, tree, w.container); err != nil {
		return 0, err
	}
	batch := w.binding.Flush()
	if batch == nil {
		return 0, nil
	}
	if _, err := w.replay.Apply(batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}

func (r *diffResult) write(w io.Writer, opts diffOptions) error {
	if opts.format == "json" {
		out := *r
		if !opts.html {
			out.HTML = ""
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(r.Ops) == 0 {
		fmt.Fprintln(w, "no changes")
	}
	for _, op := range r.Ops {
		fmt.Fprintln(w, op)
	}
	s := r.Stats
	fmt.Fprintf(w, "\n%d ops: created=%d removed=%d moved=%d replaced=%d patched=%d attr=%d text=%d\n",
		len(r.Ops), s.Created, s.Removed, s.Moved, s.Replaced, s.Patched, s.AttrOps, s.TextUpdates)
	if opts.wire {
		fmt.Fprintf(w, "wire batch: %d bytes\n", r.WireBytes)
	}
	if opts.html {
		fmt.Fprintf(w, "\n%s\n", r.HTML)
	}
	return nil
}
