// Package logging provides structured logging using bolt.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

var (
	defaultLogger *bolt.Logger
	mu            sync.Mutex
)

// Config configures the logger.
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string

	// Format is the output format (json or console).
	Format string

	// Output is the output destination. Defaults to os.Stdout.
	Output io.Writer
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: os.Stdout,
	}
}

func parseLevel(s string) bolt.Level {
	switch strings.ToLower(s) {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "info":
		return bolt.INFO
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// New builds a logger from config without touching the default logger.
func New(config Config) *bolt.Logger {
	output := config.Output
	if output == nil {
		output = os.Stdout
	}

	var handler bolt.Handler
	if config.Format == "json" {
		handler = bolt.NewJSONHandler(output)
	} else {
		handler = bolt.NewConsoleHandler(output)
	}
	return bolt.New(handler).SetLevel(parseLevel(config.Level))
}

// Init replaces the default logger.
func Init(config Config) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = New(config)
}

// Get returns the default logger, initializing it if necessary.
func Get() *bolt.Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(DefaultConfig())
	}
	return defaultLogger
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *bolt.Logger {
	return New(Config{Level: "error", Format: "json", Output: io.Discard})
}

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// With applies fields to an event and returns it for chaining.
func With(e *bolt.Event, fields ...Field) *bolt.Event {
	if e == nil {
		return nil
	}
	for _, f := range fields {
		e = f(e)
	}
	return e
}

// Endpoint adds the upstream endpoint key.
func Endpoint(key string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("endpoint", key)
	}
}

// Status adds an HTTP status code.
func Status(code int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("status", code)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Cached adds a cached field.
func Cached(cached bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("cached", cached)
	}
}

// RequestID adds the request correlation id.
func RequestID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("request_id", id)
	}
}

// User adds the identity partition key.
func User(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("user_id", id)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}
