// Package intake validates and records new ticket submissions.
package intake

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/adi-analytics/ticketdesk/internal/types"
)

// Defaults for Options.
const (
	DefaultMaxUploadBytes = 1_000_000
	selectPlaceholder     = "select an option"
)

// DefaultAllowedExtensions are the spreadsheet formats accepted on upload.
var DefaultAllowedExtensions = []string{"xlsx", "xls"}

// User-facing validation messages, in the order they are checked.
const (
	MsgFunction     = "Please select your function."
	MsgEmail        = "Please enter a valid email address."
	MsgRequestType  = "Please select a request type."
	MsgRequestTitle = "Request Title cannot be empty."
	MsgRequestName  = "Request Name cannot be empty."
	MsgFileTooLarge = "The file you submitted is too large. Please reduce the size of your file and try again."
	MsgFileType     = "Only .xlsx and .xls files are accepted."
)

// SuccessMessage replaces the form after a successful submission.
const SuccessMessage = "Your ticket has been successfully submitted. Please refresh the page if you would like to submit another ticket."

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// ValidationError carries the message shown to the submitter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// File is an uploaded attachment.
type File struct {
	Name string
	Data []byte
}

// Submission is the raw content of the intake form.
type Submission struct {
	Function     string `json:"function"`
	Email        string `json:"email"`
	RequestType  string `json:"request_type"`
	RequestTitle string `json:"request_title"`
	RequestName  string `json:"request_name"`
	File         *File  `json:"-"`
}

// Options tunes upload limits.
type Options struct {
	MaxUploadBytes    int64
	AllowedExtensions []string
}

func (o Options) withDefaults() Options {
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(o.AllowedExtensions) == 0 {
		o.AllowedExtensions = DefaultAllowedExtensions
	}
	return o
}

// Validate returns the first failing rule as a *ValidationError.
func Validate(sub Submission, opts Options) error {
	opts = opts.withDefaults()

	if isUnselected(sub.Function) {
		return &ValidationError{Field: "function", Message: MsgFunction}
	}
	if sub.Email == "" || !emailPattern.MatchString(sub.Email) {
		return &ValidationError{Field: "email", Message: MsgEmail}
	}
	if isUnselected(sub.RequestType) || !types.RequestType(sub.RequestType).IsValid() {
		return &ValidationError{Field: "request_type", Message: MsgRequestType}
	}
	if strings.TrimSpace(sub.RequestTitle) == "" {
		return &ValidationError{Field: "request_title", Message: MsgRequestTitle}
	}
	if strings.TrimSpace(sub.RequestName) == "" {
		return &ValidationError{Field: "request_name", Message: MsgRequestName}
	}
	if sub.File != nil && len(sub.File.Data) > 0 {
		if int64(len(sub.File.Data)) > opts.MaxUploadBytes {
			return &ValidationError{Field: "file", Message: MsgFileTooLarge}
		}
		if !extensionAllowed(sub.File.Name, opts.AllowedExtensions) {
			return &ValidationError{Field: "file", Message: fileTypeMessage(opts.AllowedExtensions)}
		}
	}
	return nil
}

func isUnselected(v string) bool {
	return v == "" || strings.EqualFold(strings.TrimSpace(v), selectPlaceholder)
}

func extensionAllowed(name string, allowed []string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, a := range allowed {
		if ext == strings.ToLower(strings.TrimPrefix(a, ".")) {
			return true
		}
	}
	return false
}

func fileTypeMessage(allowed []string) string {
	if len(allowed) == 2 && strings.EqualFold(allowed[0], "xlsx") && strings.EqualFold(allowed[1], "xls") {
		return MsgFileType
	}
	exts := make([]string, len(allowed))
	for i, a := range allowed {
		exts[i] = "." + strings.TrimPrefix(a, ".")
	}
	return fmt.Sprintf("Only %s files are accepted.", strings.Join(exts, ", "))
}
