package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: timeFormat}
	}

	zl := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return &Logger{zl: zl}, nil
}

// NewWriter logs JSON to w at debug level. Used by tests.
func NewWriter(w io.Writer) *Logger {
	return &Logger{zl: zerolog.New(w).Level(zerolog.DebugLevel)}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger()}
}

func (l *Logger) Debug(msg string, fields ...Field) { write(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { write(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { write(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { write(l.zl.Error(), msg, fields) }

func write(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, f := range fields {
		f.AddTo(event)
	}
	event.Msg(msg)
}

// Field is a structured log attribute.
type Field interface {
	AddTo(event *zerolog.Event)
}

type fieldFunc func(*zerolog.Event)

func (f fieldFunc) AddTo(e *zerolog.Event) { f(e) }

func String(key, value string) Field {
	return fieldFunc(func(e *zerolog.Event) { e.Str(key, value) })
}

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}

func Int(key string, value int) Field {
	return fieldFunc(func(e *zerolog.Event) { e.Int(key, value) })
}

func Int64(key string, value int64) Field {
	return fieldFunc(func(e *zerolog.Event) { e.Int64(key, value) })
}

func Float64(key string, value float64) Field {
	return fieldFunc(func(e *zerolog.Event) { e.Float64(key, value) })
}

func Bool(key string, value bool) Field {
	return fieldFunc(func(e *zerolog.Event) { e.Bool(key, value) })
}

// Duration logs milliseconds.
func Duration(key string, value time.Duration) Field {
	return fieldFunc(func(e *zerolog.Event) { e.Int64(key, value.Milliseconds()) })
}

func Time(key string, value time.Time) Field {
	return fieldFunc(func(e *zerolog.Event) { e.Time(key, value) })
}

func Error(err error) Field {
	return fieldFunc(func(e *zerolog.Event) { e.Err(err) })
}

func Any(key string, value interface{}) Field {
	return fieldFunc(func(e *zerolog.Event) { e.Interface(key, value) })
}
