package main

import (
	"encoding/json"
	"io"
	"os"
)

// outputJSON writes v as indented JSON to stdout.
func outputJSON(v any) {
	if err := writeJSON(os.Stdout, v); err != nil {
		FatalError("encoding JSON: %v", err)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
