package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Leganyst/event-series/internal/calendar"
	"github.com/Leganyst/event-series/internal/materializer"
)

func materializeCmd(a *app) *cobra.Command {
	var seriesID, from, to string
	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Materialize occurrences once, for one series or all active series",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now().UTC()
			if from == "" {
				from = now.Format(time.RFC3339)
			}
			if to == "" {
				to = now.Add(a.cfg.Horizon()).Format(time.RFC3339)
			}
			window, err := calendar.ParseTimeRange(from, to)
			if err != nil {
				return err
			}

			gormDB, closeDB, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB()
			svc := a.newService(gormDB)
			ctx := cmd.Context()

			if seriesID == "" {
				n, err := svc.Refresh(ctx, window.Start, window.End)
				fmt.Fprintf(cmd.OutOrStdout(), "created %d instances\n", n)
				return err
			}

			id, err := uuid.Parse(seriesID)
			if err != nil {
				return fmt.Errorf("invalid --series: %w", err)
			}
			instances, err := svc.GenerateRecurringInstances(ctx, id, window.Start, window.End)
			for _, occ := range materializer.Errors(err) {
				fmt.Fprintf(os.Stderr, "failed %s: %v\n", occ.Date, occ.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d instances in window\n", len(instances))
			return err
		},
	}
	cmd.Flags().StringVar(&seriesID, "series", "", "series id; all active series when empty")
	cmd.Flags().StringVar(&from, "from", "", "window start, RFC 3339 (default now)")
	cmd.Flags().StringVar(&to, "to", "", "window end, RFC 3339 (default now + horizon)")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var seriesID, out string
	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Write a series as an iCalendar document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(seriesID)
			if err != nil {
				return fmt.Errorf("invalid --series: %w", err)
			}
			gormDB, closeDB, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			doc, err := a.newService(gormDB).ExportICS(cmd.Context(), id)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
				return err
			}
			return os.WriteFile(out, []byte(doc), 0o644)
		},
	}
	cmd.Flags().StringVar(&seriesID, "series", "", "series id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("series")
	return cmd
}
