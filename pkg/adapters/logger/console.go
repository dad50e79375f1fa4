// Package logger provides logging implementations.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/user/poster/pkg/ports"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

const timeLayout = "2006-01-02T15:04:05.000"

// ConsoleLogger writes translated messages line by line. Debug and info go
// to out, warnings and errors to errOut. Loggers derived with WithComponent
// share one lock, so batch workers and server handlers never interleave lines.
type ConsoleLogger struct {
	mu         *sync.Mutex
	level      ports.LogLevel
	components []string
	color      bool
	timestamps bool
	now        func() time.Time
	out        io.Writer
	errOut     io.Writer
}

// NewConsole creates a console logger writing to stdout and stderr.
// Color output is enabled when stdout is a terminal.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	fd := os.Stdout.Fd()
	l := NewWriter(level, os.Stdout)
	l.errOut = os.Stderr
	l.color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return l
}

// NewWriter creates an uncolored logger writing every level to w.
func NewWriter(level ports.LogLevel, w io.Writer) *ConsoleLogger {
	return &ConsoleLogger{mu: &sync.Mutex{}, level: level, now: time.Now, out: w, errOut: w}
}

// WithTimestamps prefixes every line with the local time. Used by the
// long-running serve command.
func (l *ConsoleLogger) WithTimestamps() *ConsoleLogger {
	c := *l
	c.timestamps = true
	return &c
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	l.log(ports.LevelDebug, msg, args...)
}

func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	l.log(ports.LevelInfo, msg, args...)
}

func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	l.log(ports.LevelWarn, msg, args...)
}

func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	l.log(ports.LevelError, msg, args...)
}

// WithComponent returns a logger whose prefix gains component, so the
// canvas of a server request logs as [server/canvas].
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	c := *l
	c.components = append(append([]string(nil), l.components...), component)
	return &c
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args ...interface{}) {
	if level < l.level {
		return
	}

	var b strings.Builder
	if l.timestamps {
		b.WriteString(l.now().Format(timeLayout))
		b.WriteByte(' ')
	}
	if len(l.components) > 0 {
		prefix := "[" + strings.Join(l.components, "/") + "]"
		if l.color {
			prefix = colorCyan + prefix + colorReset
		}
		b.WriteString(prefix)
		b.WriteByte(' ')
	}
	b.WriteString(l10n.F(msg, args...))

	line := b.String()
	if l.color {
		switch level {
		case ports.LevelDebug:
			line = colorGray + line + colorReset
		case ports.LevelWarn:
			line = colorYellow + line + colorReset
		case ports.LevelError:
			line = colorRed + line + colorReset
		}
	}

	w := l.out
	if level >= ports.LevelWarn {
		w = l.errOut
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(w, line)
}

var _ ports.Logger = (*ConsoleLogger)(nil)
