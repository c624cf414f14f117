package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/adi-analytics/ticketdesk/internal/routing"
	"github.com/adi-analytics/ticketdesk/internal/types"
	"github.com/adi-analytics/ticketdesk/internal/ui"
)

var routingCmd = &cobra.Command{
	Use:         "routing [function...]",
	Short:       "Show how functions are routed",
	GroupID:     "setup",
	Annotations: noStore(),
	Long: `Show the region, business segment and data manager assigned to each function.

Without arguments every known function is listed. --export prints the active
rules in the YAML format accepted by routing.file.`,
	Run: func(cmd *cobra.Command, args []string) {
		router, path, err := loadRouter()
		if err != nil {
			FatalError("load routing rules: %v", err)
		}
		rules := router.Rules()

		if export, _ := cmd.Flags().GetBool("export"); export {
			data, err := routing.MarshalYAML(rules)
			if err != nil {
				FatalError("%v", err)
			}
			_, _ = cmd.OutOrStdout().Write(data)
			return
		}

		functions := args
		if len(functions) == 0 {
			functions = types.Functions
		}
		decisions := make([]routing.Decision, 0, len(functions))
		for _, fn := range functions {
			decisions = append(decisions, rules.Route(fn))
		}

		if jsonOutput {
			outputJSON(decisions)
			return
		}
		source := "built-in rules"
		if path != "" {
			source = path
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderRouting(decisions))
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMuted("Source: "+source))
	},
}

func init() {
	routingCmd.Flags().Bool("export", false, "Print the active rules as YAML")
	rootCmd.AddCommand(routingCmd)
}

func renderRouting(decisions []routing.Decision) string {
	rows := make([][]string, 0, len(decisions))
	for _, d := range decisions {
		dm := d.DataManager
		if dm == "" {
			dm = "-"
		}
		rows = append(rows, []string{d.Function, string(d.Region), string(d.Segment), dm})
	}
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ui.ColorMuted)).
		Headers("FUNCTION", "REGION", "SEGMENT", "DATA MANAGER").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Render()
}
