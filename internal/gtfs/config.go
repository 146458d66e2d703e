package gtfs

import (
	"strings"
	"time"
)

// Config describes where a schedule feed comes from.
type Config struct {
	// Source is a local path to a GTFS zip or an http(s) URL.
	Source string
	// Timeout bounds the download of a remote feed. Zero means no timeout.
	Timeout time.Duration
	Verbose bool
}

func (config Config) isLocalFile() bool {
	return !strings.HasPrefix(config.Source, "http://") && !strings.HasPrefix(config.Source, "https://")
}
