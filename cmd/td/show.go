package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adi-analytics/ticketdesk/internal/types"
	"github.com/adi-analytics/ticketdesk/internal/ui"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show ticket details",
	GroupID: "tickets",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseTicketID(args[0])
		ticket, err := store.GetTicket(cmd.Context(), id)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(ticket)
			return
		}
		noPager, _ := cmd.Flags().GetBool("no-pager")
		if err := ui.ToPager(cmd.OutOrStdout(), formatTicket(ticket), ui.PagerOptions{NoPager: noPager}); err != nil {
			FatalError("writing output: %v", err)
		}
	},
}

func init() {
	showCmd.Flags().Bool("no-pager", false, "Disable the pager")
	rootCmd.AddCommand(showCmd)
}

func parseTicketID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		FatalError("invalid ticket id %q", s)
	}
	return id
}

func formatTicket(t *types.Ticket) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", ui.RenderAccent(fmt.Sprintf("#%d", t.ID)), t.RequestTitle)
	fmt.Fprintf(&sb, "%s\n\n", ui.RenderStatus(t.ProjectStatus))

	field := func(label, value string) {
		if value == "" {
			value = ui.RenderMuted("-")
		}
		fmt.Fprintf(&sb, "  %-18s %s\n", ui.RenderCategory(label), value)
	}
	field("Created", t.DateCreated.Local().Format("2006-01-02 15:04"))
	field("Function", t.FunctionName)
	field("Requestor", t.RequestorEmail)
	field("Request type", string(t.RequestType))
	field("Region", string(t.Region))
	field("Segment", string(t.BusinessSegment))
	field("Data manager", t.DataManager)
	field("Assigned to", types.Deref(t.AssignedName))
	field("ETC", types.Deref(t.ETC))
	field("Completed", types.Deref(t.DateCompleted))
	if t.HasAttachment() {
		field("Attachment", fmt.Sprintf("td download %d", t.ID))
	}

	sb.WriteString("\n")
	sb.WriteString(ui.RenderSeparator())
	sb.WriteString("\n")
	sb.WriteString(strings.TrimRight(ui.RenderMarkdown(t.RequestName), "\n"))
	sb.WriteString("\n")
	if c := types.Deref(t.Comments); c != "" {
		sb.WriteString(ui.RenderCategory("Comments"))
		sb.WriteString("\n")
		sb.WriteString(strings.TrimRight(ui.RenderMarkdown(c), "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}
