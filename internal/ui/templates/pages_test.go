package templates

import (
	"strings"
	"testing"

	"github.com/adi-analytics/ticketdesk/internal/types"
)

func TestRenderIntake(t *testing.T) {
	out, err := RenderIntake(IntakePageData{
		Functions:    []string{"Credit", "Payroll"},
		RequestTypes: []string{"Report Request"},
		Extensions:   []string{"xlsx", "xls"},
		MaxUploadMB:  1,
		Values:       map[string]string{"function_name": "Payroll", "request_title": "<b>x</b>"},
		Error:        "Please enter a valid email address.",
	})
	if err != nil {
		t.Fatalf("RenderIntake() error = %v", err)
	}
	html := string(out)
	for _, want := range []string{
		`<option value="Payroll" selected>Payroll</option>`,
		"Please enter a valid email address.",
		".xlsx, .xls",
		"&lt;b&gt;x&lt;/b&gt;",
		`href="/.assets/styles.css"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("intake page missing %q", want)
		}
	}
}

func TestRenderSuccess(t *testing.T) {
	out, err := RenderSuccess(SuccessPageData{Message: "Thanks!", TicketID: 42})
	if err != nil {
		t.Fatalf("RenderSuccess() error = %v", err)
	}
	if !strings.Contains(string(out), "Thanks!") || !strings.Contains(string(out), "<strong>42</strong>") {
		t.Errorf("success page = %s", out)
	}
}

func TestRenderGrid(t *testing.T) {
	rows := []*types.Ticket{{
		ID:            3,
		FunctionName:  "Credit",
		RequestTitle:  "Holds",
		ProjectStatus: types.StatusPending,
		Download:      types.StringPtr(types.DownloadGlyph),
		ETC:           types.StringPtr("2025-05-01"),
	}}
	out, err := RenderGrid(GridPageData{
		Filter:  types.TicketFilter{Region: "NA"},
		Options: types.DefaultFilterOptions(),
		Rows:    rows,
	})
	if err != nil {
		t.Fatalf("RenderGrid() error = %v", err)
	}
	html := string(out)
	for _, want := range []string{
		`<tr data-id="3">`,
		`href="/api/tickets/3/attachment"`,
		`<option selected>Pending</option>`,
		`type="date" value="2025-05-01"`,
		`<option selected>NA</option>`,
		`id="grid-baseline"`,
		"PROJECT STATUS",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("grid page missing %q", want)
		}
	}
}
