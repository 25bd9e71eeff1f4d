package rosekv

import "go.uber.org/zap"

// logger is the package-wide logger, following go-wal's use of the global
// zap.L() logger rather than threading a *zap.Logger through every call.
// Callers that want their own sink can replace it with SetLogger.
var logger = zap.L()

// SetLogger installs the *zap.Logger used for this package's log lines.
// Safe to call once at process startup, before any WAL is opened.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

func debugLog(verbose bool, msg string, fields ...zap.Field) {
	if verbose {
		logger.Debug(msg, fields...)
	}
}
