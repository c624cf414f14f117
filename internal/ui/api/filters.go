package api

import (
	"net/url"
	"strings"

	"github.com/adi-analytics/ticketdesk/internal/types"
)

// filterFromQuery reads the five grid selectors from query parameters.
func filterFromQuery(q url.Values) types.TicketFilter {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(q.Get(k)); v != "" {
				return v
			}
		}
		return ""
	}
	return types.TicketFilter{
		Region:          get("region"),
		BusinessSegment: get("segment", "business_segment"),
		FunctionName:    get("function", "function_name"),
		RequestType:     get("request_type"),
		ProjectStatus:   get("status", "project_status"),
	}.Normalized()
}
