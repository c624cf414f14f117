// Package types defines core data structures for the ticketdesk ticket system.
package types

import (
	"fmt"
	"strings"
	"time"
)

// DownloadGlyph marks tickets that carry an attachment (U+25BC).
const DownloadGlyph = "▼"

// Ticket represents one analytics request row.
type Ticket struct {
	ID              int64           `json:"id"`
	DateCreated     time.Time       `json:"date_created"`
	FunctionName    string          `json:"function_name"`
	RequestorEmail  string          `json:"requestor_email"`
	RequestType     RequestType     `json:"request_type"`
	RequestTitle    string          `json:"request_title"`
	RequestName     string          `json:"request_name"`
	DataManager     string          `json:"data_manager,omitempty"`
	Upload          string          `json:"-"` // base64; only loaded by GetTicket/GetAttachment
	Region          Region          `json:"region"`
	BusinessSegment BusinessSegment `json:"business_segment"`
	Download        *string         `json:"download"`
	Assigned        string          `json:"assigned,omitempty"`
	AssignedName    *string         `json:"assigned_name"`
	ProjectStatus   ProjectStatus   `json:"project_status"`
	DateCompleted   *string         `json:"date_completed"` // YYYY-MM-DD
	ETC             *string         `json:"etc"`            // YYYY-MM-DD
	Comments        *string         `json:"comments"`
}

// HasAttachment reports whether the ticket carries a downloadable file.
func (t *Ticket) HasAttachment() bool {
	return t.Download != nil && *t.Download != ""
}

// Clone returns a deep copy of the ticket.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	c.Download = cloneString(t.Download)
	c.AssignedName = cloneString(t.AssignedName)
	c.DateCompleted = cloneString(t.DateCompleted)
	c.ETC = cloneString(t.ETC)
	c.Comments = cloneString(t.Comments)
	return &c
}

// SetDefaults fills fields a freshly submitted ticket leaves empty.
func (t *Ticket) SetDefaults() {
	if t.ProjectStatus == "" {
		t.ProjectStatus = StatusNotAssigned
	}
	if t.Assigned == "" {
		t.Assigned = AssignedFlag(t.AssignedName)
	}
}

// Validate checks the invariants a stored ticket must satisfy.
func (t *Ticket) Validate() error {
	if strings.TrimSpace(t.FunctionName) == "" {
		return fmt.Errorf("function_name is required")
	}
	if strings.TrimSpace(t.RequestorEmail) == "" {
		return fmt.Errorf("requestor_email is required")
	}
	if !t.RequestType.IsValid() {
		return fmt.Errorf("invalid request type: %q", t.RequestType)
	}
	if strings.TrimSpace(t.RequestTitle) == "" {
		return fmt.Errorf("request_title is required")
	}
	if strings.TrimSpace(t.RequestName) == "" {
		return fmt.Errorf("request_name is required")
	}
	if t.ProjectStatus != "" && !t.ProjectStatus.IsValid() {
		return fmt.Errorf("invalid project status: %q", t.ProjectStatus)
	}
	if (t.Upload != "") != t.HasAttachment() {
		return fmt.Errorf("download marker must be set if and only if an upload is present")
	}
	return nil
}

// AssignedFlag derives the assigned column from an assignee name.
func AssignedFlag(name *string) string {
	if name != nil && strings.TrimSpace(*name) != "" {
		return "Y"
	}
	return "N"
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Deref returns the pointed-to string, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// ProjectStatus tracks the ticket through the PM workflow.
type ProjectStatus string

// Project status constants
const (
	StatusNotAssigned ProjectStatus = "Not Assigned"
	StatusAssigned    ProjectStatus = "Assigned"
	StatusPending     ProjectStatus = "Pending"
	StatusCompleted   ProjectStatus = "Completed"
)

// ProjectStatuses lists the statuses in display order.
var ProjectStatuses = []ProjectStatus{StatusNotAssigned, StatusAssigned, StatusPending, StatusCompleted}

// IsValid checks if the status value is known.
func (s ProjectStatus) IsValid() bool {
	switch s {
	case StatusNotAssigned, StatusAssigned, StatusPending, StatusCompleted:
		return true
	}
	return false
}

// RequestType categorizes the kind of analytics work requested.
type RequestType string

// Request type constants
const (
	RequestReport    RequestType = "Report Request"
	RequestBIInquiry RequestType = "BI Tool Inquiry"
	RequestBIRequest RequestType = "BI Tool Request"
	RequestAdhocAuto RequestType = "Adhoc/Automated"
)

// RequestTypes lists the request types in display order.
var RequestTypes = []RequestType{RequestReport, RequestBIInquiry, RequestBIRequest, RequestAdhocAuto}

// IsValid checks if the request type is known.
func (r RequestType) IsValid() bool {
	switch r {
	case RequestReport, RequestBIInquiry, RequestBIRequest, RequestAdhocAuto:
		return true
	}
	return false
}

// Region is the geographic owner of a ticket.
type Region string

// Region constants
const (
	RegionNA   Region = "NA"
	RegionEMEA Region = "EMEA"
)

// Regions lists the regions in display order.
var Regions = []Region{RegionNA, RegionEMEA}

// IsValid checks if the region is known.
func (r Region) IsValid() bool {
	return r == RegionNA || r == RegionEMEA
}

// BusinessSegment is the business unit a ticket is routed to.
type BusinessSegment string

// Business segment constants
const (
	SegmentSnapOne         BusinessSegment = "Snap One"
	SegmentBusinessSupport BusinessSegment = "Business Support Group"
	SegmentEMEA            BusinessSegment = "EMEA"
)

// BusinessSegments lists the segments in display order.
var BusinessSegments = []BusinessSegment{SegmentSnapOne, SegmentBusinessSupport, SegmentEMEA}

// IsValid checks if the segment is known.
func (b BusinessSegment) IsValid() bool {
	switch b {
	case SegmentSnapOne, SegmentBusinessSupport, SegmentEMEA:
		return true
	}
	return false
}

// Functions lists the requesting business functions offered by the intake form.
var Functions = []string{
	"Branch", "Category Management", "Credit", "Customer Service",
	"Data Analytics", "Data Comm", "DX", "Inventory", "Other", "Outbound Telesales",
	"Pro AV", "RAS/NAM", "Snap Accounting", "Snap DX", "Snap Manufacturing & Quality",
	"Snap Operations", "Snap Rewards & Marketing", "Snap Sales", "Snap Support & Education",
}

// IsKnownFunction reports whether fn is one of Functions.
func IsKnownFunction(fn string) bool {
	for _, f := range Functions {
		if f == fn {
			return true
		}
	}
	return false
}

// Event records a single change to a ticket.
type Event struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	EventType EventType `json:"event_type"`
	Column    Column    `json:"column,omitempty"`
	Actor     string    `json:"actor"`
	OldValue  *string   `json:"old_value,omitempty"`
	NewValue  *string   `json:"new_value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventType categorizes ticket events.
type EventType string

// Event type constants
const (
	EventCreated     EventType = "created"
	EventCellUpdated EventType = "cell_updated"
)

// Statistics summarizes the ticket table.
type Statistics struct {
	TotalTickets    int                   `json:"total_tickets"`
	ByStatus        map[ProjectStatus]int `json:"by_status"`
	WithAttachments int                   `json:"with_attachments"`
}
