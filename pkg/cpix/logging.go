package cpix

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// pkgLogger is the package-scoped sub-logger used to report error context
// from operations that signal failure with a plain bool or empty-value
// return. Call SetLogger to redirect it (e.g. a packager embedding this
// codec can route it into its own request-scoped logger).
var pkgLogger = log.Logger.With().Str("pkg", "cpix").Logger()

// SetLogger replaces the package-scoped logger used for error context
// reporting. The zero value of zerolog.Logger discards everything.
func SetLogger(logger zerolog.Logger) {
	pkgLogger = logger
}

func logRejected(op, reason string) {
	pkgLogger.Warn().Str("op", op).Msg(reason)
}

func logError(op string, err error) {
	pkgLogger.Error().Str("op", op).Err(err).Msg("operation failed")
}
