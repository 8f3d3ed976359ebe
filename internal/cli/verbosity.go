package cli

import (
	"io"
	"log/slog"

	"github.com/akamai-api/akamai-api/internal/constants"
)

// SetVerbosity sets the logging level of the default logger from the verbose flag count.
//
// This function has the same behaviors as slog.SetLogLoggerLevel.
func SetVerbosity(level int) {
	slog.SetLogLoggerLevel(getLevel(level))
}

// SetSlog sets the logging level and format of the default logger.
// JSON logs are written to w, which should not be the output of the command.
func SetSlog(level int, jsonLogs bool, w io.Writer) {
	if jsonLogs {
		slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: getLevel(level)})))
		return
	}

	SetVerbosity(level)
}

func getLevel(level int) slog.Level {
	switch level {
	case 0:
		return constants.DefaultLogLevel
	case 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
