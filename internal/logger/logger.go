package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

var (
	debugMode bool
	base      *log.Logger
)

func init() {
	base = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		CallerOffset:    1,
		Level:           log.InfoLevel,
	})
}

func SetDebugMode(enabled bool) {
	debugMode = enabled
	if debugMode {
		base.SetLevel(log.DebugLevel)
		base.SetReportCaller(true)
		Debug("Debug mode enabled")
		return
	}
	base.SetLevel(log.InfoLevel)
	base.SetReportCaller(false)
}

func IsDebugMode() bool {
	return debugMode
}

// Logger exposes the underlying structured logger for packages that want key/value output.
func Logger() *log.Logger {
	return base
}

func Debug(format string, args ...interface{}) {
	base.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	base.Infof(format, args...)
}

func Error(format string, args ...interface{}) {
	base.Errorf(format, args...)
}

func Warn(format string, args ...interface{}) {
	base.Warnf(format, args...)
}

// Request logging function for HTTP requests
func LogRequest(method, path, remoteAddr string) {
	base.Debug("http request", "method", method, "path", path, "remote", remoteAddr)
}

// Response logging function for HTTP responses
func LogResponse(method, path string, statusCode int, duration string) {
	base.Debug("http response", "method", method, "path", path, "status", statusCode, "duration", duration)
}
