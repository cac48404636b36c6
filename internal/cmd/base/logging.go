package base

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// ProcessLogLevel turns a -log-level flag value into an hclog.Level. An
// empty value means logging is disabled and maps to hclog.Off.
func ProcessLogLevel(raw string) (hclog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return hclog.Off, nil
	case "trace":
		return hclog.Trace, nil
	case "debug":
		return hclog.Debug, nil
	case "info":
		return hclog.Info, nil
	case "warn", "warning":
		return hclog.Warn, nil
	case "err", "error":
		return hclog.Error, nil
	default:
		return hclog.NoLevel, fmt.Errorf("unknown log level %q", raw)
	}
}
