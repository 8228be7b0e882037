package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reconcile/internal/history"
	"github.com/vango-dev/reconcile/internal/treefile"
	"github.com/vango-dev/reconcile/pkg/live"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		addr        string
		treePath    string
		historyPath string
		keep        int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a live container over HTTP and WebSocket",
		Long: `Serve one container. POST tree documents to /render, watch the patch
stream on /ws and the current tree on /html. With --history every posted
document is kept in a bbolt file, and the last one is rendered again on
the next start unless --tree is given.

Examples:
  vreconcile serve
  vreconcile serve --addr :9000 --tree page.yaml
  vreconcile serve --history renders.db
  curl -X POST --data-binary @page.yaml -H 'Content-Type: application/yaml' localhost:7070/render`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Address()
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			opts := live.OptionsFromConfig(cfg, logger)
			if historyPath != "" {
				store, err := history.Open(historyPath, history.Options{Limit: keep})
				if err != nil {
					return err
				}
				defer store.Close()
				opts.History = store
			}
			s := live.New(opts)

			ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if treePath != "" {
				tree, err := treefile.ReadFile(treePath, treefile.Options{Components: opts.Components, Listener: s.Listener})
				if err != nil {
					return err
				}
				if _, err := s.Render(ctx, tree); err != nil {
					return err
				}
				logger.Info("rendered initial tree", "file", absPath(treePath))
			} else if _, err := s.Restore(ctx); err != nil {
				return err
			}

			return s.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default: server.host:server.port from the config)")
	cmd.Flags().StringVarP(&treePath, "tree", "t", "", "tree document to render before serving")
	cmd.Flags().StringVar(&historyPath, "history", "", "bbolt file recording rendered documents")
	cmd.Flags().IntVar(&keep, "keep", 100, "history entries to keep (0 keeps all)")

	return cmd
}

func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
