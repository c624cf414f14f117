package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Column names a column of the ticket table.
type Column string

// Column constants
const (
	ColID              Column = "id"
	ColDateCreated     Column = "date_created"
	ColFunctionName    Column = "function_name"
	ColRequestorEmail  Column = "requestor_email"
	ColRequestType     Column = "request_type"
	ColRequestTitle    Column = "request_title"
	ColRequestName     Column = "request_name"
	ColDataManager     Column = "data_manager"
	ColUpload          Column = "upload"
	ColRegion          Column = "region"
	ColBusinessSegment Column = "business_segment"
	ColDownload        Column = "download"
	ColAssigned        Column = "assigned"
	ColAssignedName    Column = "assigned_name"
	ColProjectStatus   Column = "project_status"
	ColDateCompleted   Column = "date_completed"
	ColETC             Column = "etc"
	ColComments        Column = "comments"
)

// EditableColumns are the grid columns a project manager may change.
var EditableColumns = []Column{
	ColFunctionName, ColRequestType, ColProjectStatus,
	ColAssignedName, ColRegion, ColBusinessSegment, ColETC, ColComments,
}

// ReadOnlyColumns are shown in the grid but cannot be edited there.
var ReadOnlyColumns = []Column{
	ColID, ColDateCreated, ColRequestTitle, ColRequestName, ColDownload, ColDateCompleted,
}

// DerivedColumns are written only by the cross-field rules.
var DerivedColumns = []Column{ColAssigned, ColDateCompleted}

// DisplayColumns is the grid column order.
var DisplayColumns = []Column{
	ColID, ColDownload, ColRegion, ColBusinessSegment, ColFunctionName, ColRequestorEmail,
	ColDateCreated, ColDateCompleted, ColETC, ColRequestType, ColRequestTitle, ColRequestName,
	ColAssignedName, ColProjectStatus, ColComments,
}

// Header returns the upper-case grid header for the column.
func (c Column) Header() string {
	return strings.ToUpper(string(c))
}

// IsDate reports whether the column stores a calendar date.
func (c Column) IsDate() bool {
	return c == ColDateCompleted || c == ColETC
}

// IsEditable reports whether the column is editable in the grid.
func (c Column) IsEditable() bool {
	return containsColumn(EditableColumns, c)
}

// IsUpdatable reports whether a cell write may target the column.
func (c Column) IsUpdatable() bool {
	return c.IsEditable() || containsColumn(DerivedColumns, c)
}

// IsNullable reports whether the column may hold NULL.
func (c Column) IsNullable() bool {
	switch c {
	case ColUpload, ColDownload, ColAssignedName, ColDateCompleted, ColETC, ColComments:
		return true
	}
	return false
}

// ParseColumn accepts either the column name or its upper-case header.
func ParseColumn(s string) (Column, error) {
	c := Column(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ColID, ColDateCreated, ColFunctionName, ColRequestorEmail, ColRequestType,
		ColRequestTitle, ColRequestName, ColDataManager, ColUpload, ColRegion,
		ColBusinessSegment, ColDownload, ColAssigned, ColAssignedName, ColProjectStatus,
		ColDateCompleted, ColETC, ColComments:
		return c, nil
	}
	return "", fmt.Errorf("unknown column %q", s)
}

func containsColumn(cols []Column, c Column) bool {
	for _, col := range cols {
		if col == c {
			return true
		}
	}
	return false
}

// Cell returns the value of column c as a nullable string.
func (t *Ticket) Cell(c Column) *string {
	switch c {
	case ColID:
		return StringPtr(strconv.FormatInt(t.ID, 10))
	case ColDateCreated:
		if t.DateCreated.IsZero() {
			return nil
		}
		return StringPtr(t.DateCreated.UTC().Format(time.RFC3339))
	case ColFunctionName:
		return StringPtr(t.FunctionName)
	case ColRequestorEmail:
		return StringPtr(t.RequestorEmail)
	case ColRequestType:
		return StringPtr(string(t.RequestType))
	case ColRequestTitle:
		return StringPtr(t.RequestTitle)
	case ColRequestName:
		return StringPtr(t.RequestName)
	case ColDataManager:
		return StringPtr(t.DataManager)
	case ColUpload:
		if t.Upload == "" {
			return nil
		}
		return StringPtr(t.Upload)
	case ColRegion:
		return StringPtr(string(t.Region))
	case ColBusinessSegment:
		return StringPtr(string(t.BusinessSegment))
	case ColDownload:
		return cloneString(t.Download)
	case ColAssigned:
		return StringPtr(t.Assigned)
	case ColAssignedName:
		return cloneString(t.AssignedName)
	case ColProjectStatus:
		return StringPtr(string(t.ProjectStatus))
	case ColDateCompleted:
		return cloneString(t.DateCompleted)
	case ColETC:
		return cloneString(t.ETC)
	case ColComments:
		return cloneString(t.Comments)
	}
	return nil
}

// SetCell assigns a nullable string to an updatable column.
func (t *Ticket) SetCell(c Column, v *string) error {
	switch c {
	case ColFunctionName:
		t.FunctionName = Deref(v)
	case ColRequestType:
		t.RequestType = RequestType(Deref(v))
	case ColProjectStatus:
		t.ProjectStatus = ProjectStatus(Deref(v))
	case ColAssignedName:
		t.AssignedName = cloneString(v)
	case ColRegion:
		t.Region = Region(Deref(v))
	case ColBusinessSegment:
		t.BusinessSegment = BusinessSegment(Deref(v))
	case ColETC:
		t.ETC = cloneString(v)
	case ColComments:
		t.Comments = cloneString(v)
	case ColAssigned:
		t.Assigned = Deref(v)
	case ColDateCompleted:
		t.DateCompleted = cloneString(v)
	default:
		return fmt.Errorf("column %s is not updatable", c)
	}
	return nil
}

// CellEqual compares two nullable cells. Null and the empty string are the
// same blank cell, since HTML forms cannot tell them apart.
func CellEqual(a, b *string) bool {
	return Deref(a) == Deref(b)
}
