package publishers

import "github.com/samvad-hq/mercury-reader/pkg/mercury"

// Logger is the same surface the mercury client logs through, so one adapter serves both.
type Logger = mercury.Logger

func ensureLogger(log Logger) Logger {
	if log == nil {
		return mercury.NopLogger{}
	}
	return log
}
