// Package logging configures the process-wide logrus logger.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. Components take module entries from it.
var Log = NewLogger(os.Stdout)

// NewLogger creates a logger writing formatted lines to w.
func NewLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&TextFormatter{})
	return l
}

// Module returns a log entry tagged with a module name.
func Module(name string) *logrus.Entry {
	return Log.WithField("module", name)
}

// SetLevel parses level and applies it to Log. Unknown levels fall back to info.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}

// Discard returns an entry that drops everything. Used by tests.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// TextFormatter renders "time [level] module: message key=value ...".
type TextFormatter struct{}

// Format implements logrus.Formatter.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
	b.WriteString(fmt.Sprintf(" [%s] ", entry.Level.String()))

	module, ok := entry.Data["module"].(string)
	if !ok {
		module = "default"
	}
	b.WriteString(module)
	b.WriteString(": ")
	b.WriteString(entry.Message)

	for k, v := range entry.Data {
		if k == "module" {
			continue
		}
		b.WriteString(fmt.Sprintf(" %s=%v", k, v))
	}
	b.WriteByte('\n')

	return b.Bytes(), nil
}
