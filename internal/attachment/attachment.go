// Package attachment converts ticket uploads between raw bytes and the
// base64 text stored in the upload column.
package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ContentType is served with every download.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// nullMarker is how an absent upload is rendered by some SQL clients.
const nullMarker = "[NULL]"

// ErrNoFile is returned by Decode when the ticket has no attachment.
var ErrNoFile = errors.New("no file")

// Encode returns the standard base64 encoding of data, or "" for no data.
func Encode(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// Decode returns the bytes of a stored upload. Empty values and "[NULL]"
// yield ErrNoFile.
func Decode(encoded string) ([]byte, error) {
	if IsEmpty(encoded) {
		return nil, ErrNoFile
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decoding attachment: %w", err)
	}
	return data, nil
}

// IsEmpty reports whether a stored upload value means "no file".
func IsEmpty(encoded string) bool {
	s := strings.TrimSpace(encoded)
	return s == "" || s == nullMarker
}

// FileName is the download name for a ticket's attachment.
func FileName(ticketID int64) string {
	return fmt.Sprintf("ticket_%d.xlsx", ticketID)
}
