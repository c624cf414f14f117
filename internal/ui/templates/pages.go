package templates

import (
	"github.com/adi-analytics/ticketdesk/internal/types"
)

// StaticPrefix is where the asset handler is mounted.
const StaticPrefix = "/.assets"

// IntakePageData drives the request form.
type IntakePageData struct {
	Title        string
	StaticPrefix string
	Functions    []string
	RequestTypes []string
	Extensions   []string
	MaxUploadMB  float64

	// Echoed back after a failed submission.
	Values map[string]string
	Error  string
}

// SuccessPageData drives the confirmation page.
type SuccessPageData struct {
	Title        string
	StaticPrefix string
	Message      string
	TicketID     int64
}

// GridPageData drives the project-manager grid.
type GridPageData struct {
	Title        string
	StaticPrefix string
	Filter       types.TicketFilter
	Options      types.FilterOptions
	Columns      []types.Column
	Rows         []*types.Ticket
	// Baseline is the row set as loaded, posted back with the edits.
	Baseline []*types.Ticket
	Statuses []string
	Messages []string
}

func (d *IntakePageData) defaults() {
	if d.Title == "" {
		d.Title = "Analytics Request"
	}
	if d.StaticPrefix == "" {
		d.StaticPrefix = StaticPrefix
	}
	if d.Values == nil {
		d.Values = map[string]string{}
	}
}

// RenderIntake renders the request form.
func RenderIntake(data IntakePageData) ([]byte, error) {
	data.defaults()
	return render("intake.html.tmpl", data)
}

// RenderSuccess renders the confirmation shown after a submission.
func RenderSuccess(data SuccessPageData) ([]byte, error) {
	if data.Title == "" {
		data.Title = "Request Submitted"
	}
	if data.StaticPrefix == "" {
		data.StaticPrefix = StaticPrefix
	}
	return render("success.html.tmpl", data)
}

// RenderGrid renders the editable grid.
func RenderGrid(data GridPageData) ([]byte, error) {
	if data.Title == "" {
		data.Title = "Project Manager"
	}
	if data.StaticPrefix == "" {
		data.StaticPrefix = StaticPrefix
	}
	if len(data.Columns) == 0 {
		data.Columns = types.DisplayColumns
	}
	if data.Baseline == nil {
		data.Baseline = data.Rows
	}
	if len(data.Statuses) == 0 {
		for _, s := range types.ProjectStatuses {
			data.Statuses = append(data.Statuses, string(s))
		}
	}
	return render("grid.html.tmpl", data)
}
