// Package version exposes the build version embedded at compile time.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var raw string

// Get returns the version string from the embedded VERSION file.
func Get() string {
	return strings.TrimSpace(raw)
}
