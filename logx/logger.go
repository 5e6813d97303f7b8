package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// OutputFormat defines the log output format
type OutputFormat string

const (
	FormatConsole    OutputFormat = "console"
	FormatCloudWatch OutputFormat = "cloudwatch"
	FormatJSON       OutputFormat = "json"
)

// Fields are key/value pairs attached to every line of a derived logger
type Fields map[string]any

// Logger writes leveled printf-style lines in one of three formats
type Logger struct {
	mu         *sync.Mutex
	level      Level
	out        io.Writer
	prefix     string
	showCaller bool
	colored    bool
	format     OutputFormat
	fields     Fields
	now        func() time.Time
}

// New creates a new logger with default settings
func New() *Logger {
	return &Logger{
		mu:         &sync.Mutex{},
		level:      InfoLevel,
		out:        os.Stdout,
		showCaller: true,
		colored:    true,
		format:     FormatConsole,
		now:        time.Now,
	}
}

func (l *Logger) SetLevel(level Level)         { l.level = level }
func (l *Logger) SetOutput(w io.Writer)        { l.out = w }
func (l *Logger) SetPrefix(p string)           { l.prefix = p }
func (l *Logger) SetShowCaller(b bool)         { l.showCaller = b }
func (l *Logger) SetColored(b bool)            { l.colored = b }
func (l *Logger) IsLevelEnabled(lv Level) bool { return lv >= l.level }

// SetFormat switches the output format; structured formats never use color
func (l *Logger) SetFormat(format OutputFormat) {
	l.format = format
	if format != FormatConsole {
		l.colored = false
	}
}

// With returns a child logger that appends fields to each line.
// The child shares the parent's writer and lock.
func (l *Logger) With(fields Fields) *Logger {
	child := *l
	child.fields = make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	return &child
}

// findCaller returns " file.go:line" for the first frame outside logx
func (l *Logger) findCaller() string {
	if !l.showCaller {
		return ""
	}
	for i := 2; i < 15; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if strings.Contains(filepath.Dir(file), "logx") && !strings.HasSuffix(file, "_test.go") {
			continue
		}
		return fmt.Sprintf(" %s:%d", filepath.Base(file), line)
	}
	return ""
}

func (l *Logger) log(level Level, msg string, args ...any) {
	if !l.IsLevelEnabled(level) {
		return
	}

	if level <= DebugLevel {
		for i, arg := range args {
			args[i] = formatArg(arg)
		}
	}
	message := msg
	if len(args) > 0 {
		message = fmt.Sprintf(msg, args...)
	}

	var line string
	switch l.format {
	case FormatJSON:
		line = l.jsonLine(level, message)
	case FormatCloudWatch:
		line = l.textLine(l.now().UTC().Format("2006-01-02T15:04:05.000Z"), level.String(), message)
	default:
		levelStr := level.String()
		if l.colored {
			levelStr = level.Colored()
		}
		line = l.textLine(l.now().Format("2006-01-02 15:04:05"), levelStr, message)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, line)
}

func (l *Logger) textLine(ts, levelStr, message string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", ts)
	if l.prefix != "" {
		b.WriteString(l.prefix)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "[%s]%s: %s", levelStr, l.findCaller(), message)
	for _, k := range sortedKeys(l.fields) {
		fmt.Fprintf(&b, " %s=%v", k, l.fields[k])
	}
	return b.String()
}

func (l *Logger) jsonLine(level Level, message string) string {
	entry := map[string]any{
		"timestamp": l.now().Format(time.RFC3339),
		"level":     level.String(),
		"message":   message,
	}
	if l.prefix != "" {
		entry["prefix"] = l.prefix
	}
	if caller := strings.TrimSpace(l.findCaller()); caller != "" {
		entry["caller"] = caller
	}
	for k, v := range l.fields {
		entry[k] = v
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":%q,"message":%q}`, level.String(), message)
	}
	return string(data)
}

func sortedKeys(f Fields) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l *Logger) Trace(msg string, args ...any) { l.log(TraceLevel, msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { l.log(DebugLevel, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(InfoLevel, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(WarnLevel, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(ErrorLevel, msg, args...) }

// Fatal logs at error level and exits
func (l *Logger) Fatal(msg string, args ...any) {
	l.log(ErrorLevel, msg, args...)
	os.Exit(1)
}

// DebugStruct logs a value with the compact struct formatter
func (l *Logger) DebugStruct(name string, value any) {
	if !l.IsLevelEnabled(DebugLevel) {
		return
	}
	l.log(DebugLevel, "%s = %s", name, formatValue(value))
}
