package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adi-analytics/ticketdesk/internal/debug"
	"github.com/adi-analytics/ticketdesk/internal/grid"
	"github.com/adi-analytics/ticketdesk/internal/types"
	"github.com/adi-analytics/ticketdesk/internal/ui"
)

// updateFlags maps update flags to the editable columns they write.
var updateFlags = []struct {
	name   string
	column types.Column
	usage  string
}{
	{"status", types.ColProjectStatus, "Project status (Not Assigned, Assigned, Pending, Completed)"},
	{"assignee", types.ColAssignedName, "Assigned analyst; empty clears"},
	{"etc", types.ColETC, "Estimated completion date (YYYY-MM-DD, +3d, next friday); empty clears"},
	{"comments", types.ColComments, "Comments; empty clears"},
	{"region", types.ColRegion, "Region"},
	{"segment", types.ColBusinessSegment, "Business segment"},
	{"function", types.ColFunctionName, "Function"},
	{"type", types.ColRequestType, "Request type"},
}

var updateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Edit a ticket's grid fields",
	GroupID: "tickets",
	Long: `Edit a ticket the way the grid does. Only the flags given are changed.

Assigned and completion date are derived: assigning someone sets the assigned
flag, and moving the status to Completed stamps today's date.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseTicketID(args[0])
		cells := cellsFromFlags(cmd)
		if len(cells) == 0 {
			FatalErrorWithHint("nothing to update", "pass at least one of --status, --assignee, --etc, --comments, --region, --segment, --function, --type")
		}

		res, err := grid.NewService(store, logger).UpdateTicket(cmd.Context(), id, cells, getActor())
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(res)
			return
		}
		for _, w := range res.Warnings() {
			WarnError("%s", w)
		}
		for _, e := range res.Errors() {
			fmt.Fprintf(os.Stderr, "Error: %s\n", e)
		}
		if !res.OK() {
			os.Exit(1)
		}
		debug.PrintNormal("%s Updated ticket %d (%d cells)\n", ui.RenderPass("✓"), id, len(res.Applied))
	},
}

func init() {
	for _, f := range updateFlags {
		updateCmd.Flags().String(f.name, "", f.usage)
	}
	rootCmd.AddCommand(updateCmd)
}

// cellsFromFlags collects the changed flags. An empty value on a nullable
// column becomes NULL.
func cellsFromFlags(cmd *cobra.Command) map[types.Column]*string {
	cells := make(map[types.Column]*string)
	for _, f := range updateFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		v, _ := cmd.Flags().GetString(f.name)
		if v == "" && f.column.IsNullable() {
			cells[f.column] = nil
			continue
		}
		cells[f.column] = types.StringPtr(v)
	}
	return cells
}
