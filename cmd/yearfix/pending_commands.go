package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"yearfix/internal/pending"
)

func newPendingCommand(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect albums awaiting year verification",
	}
	cmd.AddCommand(newPendingListCommand(app))
	cmd.AddCommand(newPendingReportCommand(app))
	return cmd
}

func newPendingListCommand(app *appContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending albums",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := pending.Open(app.cfg, app.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			entries := store.All()
			if reason != "" {
				entries = store.ByReason(reason)
			}
			if len(entries) == 0 {
				cmd.Println("no pending albums")
				return nil
			}

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Artist", "Album", "Reason", "Marked", "Recheck Days"})
			for _, entry := range entries {
				tw.AppendRow(table.Row{
					entry.Artist,
					entry.Album,
					entry.Reason,
					entry.MarkedAt.Format("2006-01-02"),
					entry.RecheckDays,
				})
			}
			cmd.Println(tw.Render())
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "filter by verification reason")
	return cmd
}

func newPendingReportCommand(app *appContext) *cobra.Command {
	var minAttempts int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a report of albums stuck in verification",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := pending.Open(app.cfg, app.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := store.ProblematicReport(app.cfg.Paths.LogDir, minAttempts)
			if err != nil {
				return err
			}
			if count == 0 {
				cmd.Println("no problematic albums")
				return nil
			}
			cmd.Println(store.RenderProblematic(minAttempts))
			cmd.Printf("%d problematic album(s); report written to %s\n", count, app.cfg.Paths.LogDir)
			return nil
		},
	}

	cmd.Flags().IntVar(&minAttempts, "min-attempts", 2, "minimum elapsed verification cycles")
	return cmd
}
