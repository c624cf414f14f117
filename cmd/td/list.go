package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/adi-analytics/ticketdesk/internal/types"
	"github.com/adi-analytics/ticketdesk/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List tickets",
	GroupID: "tickets",
	Long: `List tickets, optionally narrowed by the same five selectors as the grid.

"All" or an empty value disables a selector.`,
	Run: func(cmd *cobra.Command, args []string) {
		filter := filterFromFlags(cmd)
		tickets, err := store.ListTickets(cmd.Context(), filter)
		if err != nil {
			FatalError("listing tickets: %v", err)
		}
		if jsonOutput {
			if tickets == nil {
				tickets = []*types.Ticket{}
			}
			outputJSON(tickets)
			return
		}

		noPager, _ := cmd.Flags().GetBool("no-pager")
		var sb strings.Builder
		if len(tickets) > 0 {
			sb.WriteString(ui.RenderTicketTable(tickets))
			sb.WriteString("\n")
		}
		sb.WriteString(ui.RenderSummary(len(tickets)))
		sb.WriteString("\n")
		if err := ui.ToPager(cmd.OutOrStdout(), sb.String(), ui.PagerOptions{NoPager: noPager}); err != nil {
			FatalError("writing output: %v", err)
		}
	},
}

func init() {
	addFilterFlags(listCmd.Flags())
	listCmd.Flags().Bool("no-pager", false, "Disable the pager")
	rootCmd.AddCommand(listCmd)
}

func addFilterFlags(f *pflag.FlagSet) {
	f.String("region", "", "Filter by region (NA, EMEA)")
	f.String("segment", "", "Filter by business segment")
	f.String("function", "", "Filter by function")
	f.String("type", "", "Filter by request type")
	f.StringP("status", "s", "", "Filter by project status")
}

func filterFromFlags(cmd *cobra.Command) types.TicketFilter {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return types.TicketFilter{
		Region:          get("region"),
		BusinessSegment: get("segment"),
		FunctionName:    get("function"),
		RequestType:     get("type"),
		ProjectStatus:   get("status"),
	}.Normalized()
}
