// Package ports defines the interfaces between the poster core and its
// collaborators: raster engine, file system, fetcher, QR generator, debug sink
// and logger.
package ports

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is used by components (engine, resolver, canvas) for
	// per-operation details.
	LevelDebug LogLevel = iota
	// LevelInfo is used by the recipe runner for progress.
	LevelInfo
	// LevelWarn is for recoverable problems.
	LevelWarn
	// LevelError is for failures that stop a poster build.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

var levelNames = map[LogLevel]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelQuiet: "quiet",
}

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLogLevel parses a string into a LogLevel. Unknown names yield LevelInfo.
func ParseLogLevel(s string) LogLevel {
	for level, name := range levelNames {
		if name == s {
			return level
		}
	}
	return LevelInfo
}

// Logger abstracts logging. The msg parameter is a translation key; args are
// applied as format arguments after translation.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with the component name.
	WithComponent(component string) Logger
}
