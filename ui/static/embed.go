// Package static bundles the web UI's stylesheet and scripts.
package static

import "embed"

// Files exposes the static UI assets.
//
//go:embed styles.css grid.js
var Files embed.FS
