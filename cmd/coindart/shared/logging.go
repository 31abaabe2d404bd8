package shared

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger configures a charmbracelet logger writing to w
func SetupLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}

// SetupStructuredLogger configures a logger that writes JSON lines
func SetupStructuredLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Formatter:       log.JSONFormatter,
	})
}
