package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strings"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
)

// DefaultLogger writes one line per entry:
//
//	2024/01/02 15:04:05 [WARN] message: err a=1 b=2
//
// Every level goes to the same writer, stderr by default, so command
// output on stdout stays machine-readable.
type DefaultLogger struct {
	out    *log.Logger
	level  Level
	fields Fields
	color  bool
}

// NewDefaultLogger logs at info level to stderr, colored on a terminal
func NewDefaultLogger() *DefaultLogger {
	l := NewWriterLogger(os.Stderr, InfoLevel)
	l.color = isTerminal(os.Stderr)
	return l
}

// NewWriterLogger logs to w without color
func NewWriterLogger(w io.Writer, level Level) *DefaultLogger {
	return &DefaultLogger{
		out:    log.New(w, "", log.LstdFlags),
		level:  level,
		fields: make(Fields),
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func (d *DefaultLogger) write(level Level, err error, msg string, extra []Fields) {
	if level < d.level {
		return
	}

	fields := maps.Clone(d.fields)
	for _, f := range extra {
		maps.Copy(fields, f)
	}

	var b strings.Builder
	if d.color {
		switch level {
		case WarnLevel:
			b.WriteString(colorYellow)
		case ErrorLevel:
			b.WriteString(colorRed)
		}
	}
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	if err != nil {
		fmt.Fprintf(&b, ": %v", err)
	}
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(&b, " %s=%v", key, fields[key])
	}
	if d.color && level >= WarnLevel {
		b.WriteString(colorReset)
	}

	d.out.Println(b.String())
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.write(DebugLevel, nil, msg, fields)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.write(InfoLevel, nil, msg, fields)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.write(WarnLevel, nil, msg, fields)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.write(ErrorLevel, err, msg, fields)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	child := *d
	child.fields = maps.Clone(d.fields)
	maps.Copy(child.fields, fields)
	return &child
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := FieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

// NoOpLogger discards everything
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
