package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fireline/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of tracked cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No cases tracked yet")
				return nil
			}

			rows := make([][]string, 0, len(records))
			counts := make(map[store.Status]int)
			for _, rec := range records {
				counts[rec.Status]++
				jobID := ""
				if rec.JobID != 0 {
					jobID = strconv.Itoa(rec.JobID)
				}
				rows = append(rows, []string{
					rec.CaseID,
					string(rec.Status),
					jobID,
					yesNo(rec.Exported),
					rec.ErrorMessage,
					rec.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}

			tableText := renderTable(
				[]string{"Case", "Status", "Job", "Exported", "Error", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(out, tableText)

			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Summary", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, status := range statusDisplayOrder {
				count := counts[status]
				if count == 0 {
					continue
				}
				fmt.Fprintln(out, renderStatusLine(string(status), statusKindFor(status), strconv.Itoa(count), colorize))
			}
			return nil
		},
	}
}

var statusDisplayOrder = []store.Status{
	store.StatusPending,
	store.StatusWritten,
	store.StatusSubmitted,
	store.StatusRunning,
	store.StatusDone,
	store.StatusExported,
	store.StatusIgnitionFailed,
	store.StatusFailed,
}

func statusKindFor(status store.Status) statusKind {
	switch status {
	case store.StatusDone, store.StatusExported:
		return statusOK
	case store.StatusIgnitionFailed:
		return statusWarn
	case store.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}
