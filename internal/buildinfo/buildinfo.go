// Package buildinfo holds the version string stamped into cache
// metadata and log headers.
package buildinfo

import (
	"os"
	"strings"
)

// Version is the software version recorded in cache metadata and
// analysis log headers.
const Version = "1.0.0"

// FullCommand reconstructs the command line the current process was
// invoked with, for provenance logging.
func FullCommand() string {
	return strings.Join(os.Args, " ")
}
