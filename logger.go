package match

import (
	"log/slog"
	"os"
)

// Logs go to stderr so hosts that print to stdout (the console front end)
// keep their output clean.
var logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))

// SetLogger allows setting a custom logger
func SetLogger(l *slog.Logger) {
	logger = l
}
