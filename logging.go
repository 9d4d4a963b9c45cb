package volray

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// DefaultLogger writes "[prefix] LEVEL: message" lines. Debug and info go
// to the out writer, warnings and errors to the err writer. Loggers derived
// with Named share the debug switch of their parent.
type DefaultLogger struct {
	debug  *atomic.Bool
	prefix string
	out    *log.Logger
	err    *log.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewLogger(os.Stdout, os.Stderr, prefix, debug)
}

func NewLogger(out, errOut io.Writer, prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	l := &DefaultLogger{
		debug:  new(atomic.Bool),
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
	}
	l.debug.Store(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool {
	return l.debug.Load()
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.debug.Store(enabled)
}

// Named returns a logger for a component, writing to the same outputs.
func (l *DefaultLogger) Named(prefix string) *DefaultLogger {
	return &DefaultLogger{
		debug:  l.debug,
		prefix: prefix,
		out:    l.out,
		err:    l.err,
	}
}

func (l *DefaultLogger) logf(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = fmt.Sprintf("[%s] %s: %s", l.prefix, level, msg)
	} else {
		msg = fmt.Sprintf("%s: %s", level, msg)
	}
	if level >= LevelWarn {
		l.err.Print(msg)
		return
	}
	l.out.Print(msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if l.DebugEnabled() {
		l.logf(LevelDebug, format, args...)
	}
}

func (l *DefaultLogger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

type nopLogger struct{}

func NewNopLogger() Logger                          { return nopLogger{} }
func (nopLogger) DebugEnabled() bool                { return false }
func (nopLogger) SetDebug(enabled bool)             {}
func (nopLogger) Debugf(format string, args ...any) {}
func (nopLogger) Infof(format string, args ...any)  {}
func (nopLogger) Warnf(format string, args ...any)  {}
func (nopLogger) Errorf(format string, args ...any) {}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}
