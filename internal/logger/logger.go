package logger

import (
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level represents the severity of a log message
type Level = logrus.Level

const (
	// LevelDebug for detailed troubleshooting
	LevelDebug = logrus.DebugLevel
	// LevelInfo for general operational entries
	LevelInfo = logrus.InfoLevel
	// LevelWarn for non-critical issues
	LevelWarn = logrus.WarnLevel
	// LevelError for errors that should be addressed
	LevelError = logrus.ErrorLevel
)

// log is the process-wide logger. It writes to stderr so that stdout stays
// reserved for the stdio transport.
var log = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})
	l.SetLevel(LevelInfo)
	return l
}

// Initialize sets up the logger with the specified level
func Initialize(level string) {
	log.SetOutput(logWriter())
	setLogLevel(level)
}

// IsLoggingDisabled checks if MCP logging should be disabled
func IsLoggingDisabled() bool {
	val := os.Getenv("MCP_DISABLE_LOGGING")
	return strings.ToLower(val) == "true" || val == "1"
}

func logWriter() io.Writer {
	if IsLoggingDisabled() {
		return io.Discard
	}
	return os.Stderr
}

// setLogLevel sets the log level from a string
func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		log.SetLevel(LevelDebug)
	case "info":
		log.SetLevel(LevelInfo)
	case "warn", "warning":
		log.SetLevel(LevelWarn)
	case "error":
		log.SetLevel(LevelError)
	default:
		log.SetLevel(LevelInfo)
	}
}

// CurrentLevel returns the active log level
func CurrentLevel() Level {
	return log.GetLevel()
}

// WithField returns an entry carrying a structured field
func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	log.Infof(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	log.Warnf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

// Fatal logs an error message and terminates the process
func Fatal(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}

// ErrorWithStack logs an error with a stack trace
func ErrorWithStack(err error) {
	if err == nil {
		return
	}
	log.Errorf("%v\n%s", err, debug.Stack())
}

// RequestLog logs details of an HTTP request
func RequestLog(method, url, sessionID, body string) {
	entry := log.WithFields(logrus.Fields{"method": method, "url": url})
	if sessionID != "" {
		entry = entry.WithField("session", sessionID)
	}
	entry.Debugf("HTTP Request: %s", body)
}

// SSEEventLog logs details of an SSE event
func SSEEventLog(eventType, sessionID, data string) {
	log.WithFields(logrus.Fields{"event": eventType, "session": sessionID}).Debugf("SSE Event: %s", data)
}

// RequestResponseLog logs a JSON-RPC exchange as one entry
func RequestResponseLog(method, sessionID, request, response string) {
	log.WithFields(logrus.Fields{"rpc": method, "session": sessionID}).
		Debugf("request=%s response=%s", request, response)
}
