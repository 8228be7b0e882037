package main

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/internal/treefile"
	"github.com/vango-dev/reconcile/pkg/render"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

func renderCmd(g *globalFlags) *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Print the HTML of a tree document",
		Long: `Resolve and validate a tree document, then print its HTML without
reconciling it. The compact output is what "diff --html" shows after
the document has been rendered.

Examples:
  vreconcile render page.yaml
  vreconcile render page.json --pretty`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			actions := treefile.NewActions(nil)
			tree, err := treefile.ReadFile(args[0], treefile.Options{Listener: actions.Listener})
			if err != nil {
				return err
			}
			resolved, err := vdom.Resolve(tree)
			if err != nil {
				return treeError(err)
			}
			if err := vdom.Validate(resolved, cfg.Engine.MaxDepth); err != nil {
				return treeError(err)
			}

			out := cmd.OutOrStdout()
			r := render.NewRenderer(render.RendererConfig{Pretty: pretty})
			if err := r.RenderToWriter(out, resolved); err != nil {
				return treeError(err)
			}
			if !pretty {
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent block elements")

	return cmd
}

// treeError gives vdom errors the code the engine would report.
func treeError(err error) error {
	switch {
	case stderrors.Is(err, vdom.ErrTooDeep):
		return errors.FromError(err, "R002")
	case stderrors.Is(err, vdom.ErrNilRender):
		return errors.FromError(err, "R005")
	default:
		return errors.FromError(err, "R001")
	}
}
