package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with the payroll field helpers
type Logger struct {
	zerolog.Logger
}

// New creates the process logger. Development writes colored console lines
// at debug level; every other environment writes JSON at info level.
func New(serviceName string, environment string) *Logger {
	if environment == "development" {
		l := NewWithWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, serviceName)
		return &Logger{Logger: l.Level(zerolog.DebugLevel)}
	}
	l := NewWithWriter(os.Stdout, serviceName)
	return &Logger{Logger: l.Level(zerolog.InfoLevel)}
}

// NewWithWriter creates a logger writing JSON lines to w
func NewWithWriter(w io.Writer, serviceName string) *Logger {
	return &Logger{
		Logger: zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger(),
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.Logger.With().Str(key, value).Logger()}
}

// WithRequestID scopes the logger to one HTTP request
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.with("request_id", requestID)
}

// WithCorrelationID scopes the logger to one queued payroll job
func (l *Logger) WithCorrelationID(correlationID string) *Logger {
	return l.with("correlation_id", correlationID)
}

// WithComponent names the service component writing the entry
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithEmployeeID scopes the logger to one employee
func (l *Logger) WithEmployeeID(employeeID string) *Logger {
	return l.with("employee_id", employeeID)
}

// WithPeriod scopes the logger to a payroll period given as YYYY-MM-DD dates
func (l *Logger) WithPeriod(start, end string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("period_start", start).Str("period_end", end).Logger(),
	}
}
