package objtree

import "log/slog"

var logger = slog.Default()

// SetLogger replaces the logger used to report non-panicking data source
// failures.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}
