package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adi-analytics/ticketdesk/internal/types"
	"github.com/adi-analytics/ticketdesk/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:     "history <id>",
	Short:   "Show the change history of a ticket",
	GroupID: "tickets",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseTicketID(args[0])
		if _, err := store.GetTicket(cmd.Context(), id); err != nil {
			FatalError("%v", err)
		}
		limit, _ := cmd.Flags().GetInt("limit")
		events, err := store.GetEvents(cmd.Context(), id, limit)
		if err != nil {
			FatalError("loading history: %v", err)
		}
		if jsonOutput {
			if events == nil {
				events = []*types.Event{}
			}
			outputJSON(events)
			return
		}
		w := cmd.OutOrStdout()
		for _, e := range events {
			fmt.Fprintln(w, formatEvent(e))
		}
		if len(events) == 0 {
			fmt.Fprintln(w, ui.RenderMuted("No history."))
		}
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of events (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func formatEvent(e *types.Event) string {
	when := ui.RenderMuted(e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	switch e.EventType {
	case types.EventCreated:
		return fmt.Sprintf("%s  %s created %q", when, e.Actor, types.Deref(e.NewValue))
	case types.EventCellUpdated:
		return fmt.Sprintf("%s  %s set %s: %s → %s", when, e.Actor, e.Column.Header(),
			formatValue(e.OldValue), formatValue(e.NewValue))
	}
	return fmt.Sprintf("%s  %s %s", when, e.Actor, e.EventType)
}

func formatValue(v *string) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%q", ui.TruncateCell(*v, 60))
}
