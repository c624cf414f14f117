package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/adi-analytics/ticketdesk/internal/types"
)

// listColumns are the columns `td list` prints; the grid shows more.
var listColumns = []types.Column{
	types.ColID, types.ColDownload, types.ColRegion, types.ColFunctionName,
	types.ColRequestType, types.ColRequestTitle, types.ColAssignedName,
	types.ColProjectStatus, types.ColETC,
}

const maxCellWidth = 32

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// RenderTicketTable renders tickets as a bordered terminal table.
func RenderTicketTable(tickets []*types.Ticket) string {
	headers := make([]string, len(listColumns))
	for i, c := range listColumns {
		headers[i] = c.Header()
	}

	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		row := make([]string, len(listColumns))
		for i, c := range listColumns {
			row[i] = TruncateCell(types.Deref(t.Cell(c)), maxCellWidth)
		}
		rows = append(rows, row)
	}

	statusCol := columnIndex(types.ColProjectStatus)
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == statusCol && row >= 0 && row < len(tickets) {
				return cellStyle.Inherit(StatusStyle(tickets[row].ProjectStatus))
			}
			return cellStyle
		})
	return tbl.String()
}

// RenderSummary renders the one-line count under a listing.
func RenderSummary(shown int) string {
	return RenderMuted(strconv.Itoa(shown) + " ticket(s)")
}

func columnIndex(c types.Column) int {
	for i, lc := range listColumns {
		if lc == c {
			return i
		}
	}
	return -1
}
