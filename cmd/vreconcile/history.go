package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reconcile/internal/history"
)

func historyCmd() *cobra.Command {
	var (
		show   int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history FILE",
		Short: "List the documents recorded by serve --history",
		Long: `Read a render history file written by "serve --history". The file is
opened read-only, so this works while no server holds it for writing.

Examples:
  vreconcile history renders.db
  vreconcile history renders.db --show 12 > page.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return cliError("unknown format %q (want text or json)", format)
			}
			store, err := history.Open(args[0], history.Options{ReadOnly: true})
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if show > 0 {
				e, err := store.Get(show)
				if err != nil {
					return err
				}
				_, err = out.Write(e.Body)
				return err
			}

			entries, err := store.List(0, 0)
			if err != nil {
				return err
			}
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "no renders recorded")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SEQ\tTIME\tFORMAT\tSIZE\tOPS\tWIRE BYTES")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\n",
					e.Seq, e.Time.Local().Format(time.DateTime), e.Format, len(e.Body), e.Ops, e.Bytes)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&show, "show", 0, "print the document of entry SEQ")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")

	return cmd
}
