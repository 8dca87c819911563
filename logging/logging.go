// Package logging configures logrus for the command line tools.
package logging

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otellogrus"
)

// Format is the output format of log lines
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name, ignoring case. Empty means text
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q, expected text or json", s)
	}
}

// Configure sets the level and format of logger. JSON logs carry a severity
// field so that log collectors can pick up the level. Logs go to out if it is
// not nil
func Configure(logger *log.Logger, level string, format string, out io.Writer) error {
	if logger == nil {
		return nil
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	f, err := ParseFormat(format)
	if err != nil {
		return err
	}

	logger.SetLevel(lvl)
	if out != nil {
		logger.SetOutput(out)
	}

	switch f {
	case FormatJSON:
		logger.SetFormatter(&log.JSONFormatter{})
		addSeverityHook(logger)
	default:
		logger.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}

	return nil
}

// AttachToSpans records entries logged with a context as events on the span
// in that context. Only levels enabled on logger when it is called are
// recorded, so call it after Configure
func AttachToSpans(logger *log.Logger) {
	logger.AddHook(otellogrus.NewHook(otellogrus.WithLevels(
		log.AllLevels[:logger.GetLevel()+1]...,
	)))
}

func addSeverityHook(logger *log.Logger) {
	for _, hook := range logger.Hooks[log.InfoLevel] {
		if _, ok := hook.(SeverityHook); ok {
			return
		}
	}
	logger.AddHook(SeverityHook{})
}

// SeverityHook adds a severity field to log entries.
type SeverityHook struct{}

func (SeverityHook) Levels() []log.Level {
	return log.AllLevels
}

func (SeverityHook) Fire(entry *log.Entry) error {
	if entry == nil {
		return nil
	}
	if _, ok := entry.Data["severity"]; ok {
		return nil
	}

	entry.Data["severity"] = severityForLevel(entry.Level)
	return nil
}

func severityForLevel(level log.Level) string {
	switch level {
	case log.PanicLevel:
		return "EMERGENCY"
	case log.FatalLevel:
		return "CRITICAL"
	case log.ErrorLevel:
		return "ERROR"
	case log.WarnLevel:
		return "WARNING"
	case log.InfoLevel:
		return "INFO"
	case log.DebugLevel, log.TraceLevel:
		return "DEBUG"
	default:
		return "DEFAULT"
	}
}
