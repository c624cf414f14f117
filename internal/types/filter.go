package types

import "strings"

// FilterAll disables a filter selector.
const FilterAll = "All"

// TicketFilter holds the five grid selectors. Empty or "All" matches everything.
type TicketFilter struct {
	Region          string `json:"region,omitempty"`
	BusinessSegment string `json:"business_segment,omitempty"`
	FunctionName    string `json:"function_name,omitempty"`
	RequestType     string `json:"request_type,omitempty"`
	ProjectStatus   string `json:"project_status,omitempty"`
}

// IsEmpty reports whether no selector is active.
func (f TicketFilter) IsEmpty() bool {
	return !active(f.Region) && !active(f.BusinessSegment) && !active(f.FunctionName) &&
		!active(f.RequestType) && !active(f.ProjectStatus)
}

// Matches reports whether the ticket passes every active selector.
func (f TicketFilter) Matches(t *Ticket) bool {
	if t == nil {
		return false
	}
	if active(f.Region) && string(t.Region) != f.Region {
		return false
	}
	if active(f.BusinessSegment) && string(t.BusinessSegment) != f.BusinessSegment {
		return false
	}
	if active(f.FunctionName) && t.FunctionName != f.FunctionName {
		return false
	}
	if active(f.RequestType) && string(t.RequestType) != f.RequestType {
		return false
	}
	if active(f.ProjectStatus) && string(t.ProjectStatus) != f.ProjectStatus {
		return false
	}
	return true
}

// Normalized returns a copy with "All" selectors cleared and whitespace trimmed.
func (f TicketFilter) Normalized() TicketFilter {
	norm := func(s string) string {
		s = strings.TrimSpace(s)
		if !active(s) {
			return ""
		}
		return s
	}
	return TicketFilter{
		Region:          norm(f.Region),
		BusinessSegment: norm(f.BusinessSegment),
		FunctionName:    norm(f.FunctionName),
		RequestType:     norm(f.RequestType),
		ProjectStatus:   norm(f.ProjectStatus),
	}
}

func active(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.EqualFold(s, FilterAll)
}

// FilterOptions are the selector choices shown above the grid.
type FilterOptions struct {
	Regions          []string `json:"regions"`
	BusinessSegments []string `json:"business_segments"`
	Functions        []string `json:"functions"`
	RequestTypes     []string `json:"request_types"`
	ProjectStatuses  []string `json:"project_statuses"`
}

// DefaultFilterOptions returns the selector lists, each starting with "All".
func DefaultFilterOptions() FilterOptions {
	opts := FilterOptions{
		Regions:          []string{FilterAll},
		BusinessSegments: []string{FilterAll},
		Functions:        append([]string{FilterAll}, Functions...),
		RequestTypes:     []string{FilterAll},
		ProjectStatuses:  []string{FilterAll},
	}
	for _, r := range Regions {
		opts.Regions = append(opts.Regions, string(r))
	}
	for _, b := range BusinessSegments {
		opts.BusinessSegments = append(opts.BusinessSegments, string(b))
	}
	for _, r := range RequestTypes {
		opts.RequestTypes = append(opts.RequestTypes, string(r))
	}
	for _, s := range ProjectStatuses {
		opts.ProjectStatuses = append(opts.ProjectStatuses, string(s))
	}
	return opts
}
