// Package buildinfo exposes build metadata stamped at link time.
//
// The variables default to "N/A" and are overridden via -ldflags, e.g.:
//
//	go build -ldflags "-X github.com/parkit-app/parkit-go/internal/buildinfo.Version=v1.2.0 \
//	  -X github.com/parkit-app/parkit-go/internal/buildinfo.BuildDate=2025-06-10"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	Version   = "N/A"
	BuildDate = "N/A"
)

// PrintBuildData writes the build version and date to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", BuildDate)
}
