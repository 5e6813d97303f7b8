package logx

import (
	"io"
	"os"
	"strings"
)

var defaultLogger *Logger

func init() {
	defaultLogger = New()
	Configure(os.Getenv)
}

// Configure applies LOG_LEVEL, LOG_FORMAT, LOG_COLOR and LOG_CALLER
// read through getenv to the default logger
func Configure(getenv func(string) string) {
	if lv := getenv("LOG_LEVEL"); lv != "" {
		if level, err := ParseLevel(lv); err == nil {
			defaultLogger.SetLevel(level)
		}
	}

	switch strings.ToLower(getenv("LOG_FORMAT")) {
	case "json":
		defaultLogger.SetFormat(FormatJSON)
	case "cloudwatch":
		defaultLogger.SetFormat(FormatCloudWatch)
	case "console":
		defaultLogger.SetFormat(FormatConsole)
	}

	if v := getenv("LOG_COLOR"); v != "" {
		defaultLogger.SetColored(strings.ToLower(v) != "false")
	}
	if v := getenv("LOG_CALLER"); v != "" {
		defaultLogger.SetShowCaller(strings.ToLower(v) != "false")
	}
}

func SetLevel(level Level)          { defaultLogger.SetLevel(level) }
func SetPrefix(prefix string)       { defaultLogger.SetPrefix(prefix) }
func SetOutput(w io.Writer)         { defaultLogger.SetOutput(w) }
func SetShowCaller(show bool)       { defaultLogger.SetShowCaller(show) }
func SetColored(colored bool)       { defaultLogger.SetColored(colored) }
func SetFormat(format OutputFormat) { defaultLogger.SetFormat(format) }

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	return defaultLogger
}

// With derives a logger from the default one
func With(fields Fields) *Logger {
	return defaultLogger.With(fields)
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }
func Fatal(msg string, args ...any) { defaultLogger.Fatal(msg, args...) }

func DebugStruct(name string, value any) { defaultLogger.DebugStruct(name, value) }

func IsLevelEnabled(level Level) bool { return defaultLogger.IsLevelEnabled(level) }
