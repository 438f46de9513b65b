/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Console formatter for recon logs. Colored level and event prefix, with structured
fields printed in a stable order.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ReconFormatter renders one line per entry with an event tag derived from the message
type ReconFormatter struct {
	Timestamp bool
	Caller    bool
	Colors    bool
}

// Format formats a log entry
func (f *ReconFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var output strings.Builder

	if f.Timestamp {
		f.write(&output, 36, entry.Time.Format("2006-01-02 15:04:05.000"))
	}
	f.write(&output, levelColor(entry.Level), strings.ToUpper(entry.Level.String()))

	if prefix := eventPrefix(entry.Message); prefix != "" {
		f.write(&output, 35, "["+prefix+"]")
	}
	if f.Caller && entry.HasCaller() {
		f.write(&output, 33, fmt.Sprintf("[%s:%d]", entry.Caller.File, entry.Caller.Line))
	}

	output.WriteString(entry.Message)
	if len(entry.Data) > 0 {
		output.WriteString(" ")
		output.WriteString(f.formatFields(entry.Data))
	}
	output.WriteString("\n")
	return []byte(output.String()), nil
}

// write appends s and a trailing space, colored when enabled
func (f *ReconFormatter) write(b *strings.Builder, color int, s string) {
	if f.Colors {
		fmt.Fprintf(b, "\033[%dm%s\033[0m ", color, s)
		return
	}
	b.WriteString(s)
	b.WriteString(" ")
}

func levelColor(level logrus.Level) int {
	switch level {
	case logrus.InfoLevel:
		return 32
	case logrus.WarnLevel:
		return 33
	case logrus.ErrorLevel:
		return 31
	case logrus.FatalLevel, logrus.PanicLevel:
		return 35
	default:
		return 37
	}
}

// eventPrefix tags the messages emitted by the recon components
func eventPrefix(message string) string {
	message = strings.ToLower(message)
	switch {
	case strings.Contains(message, "page fetched"):
		return "FETCH"
	case strings.Contains(message, "sensitive"):
		return "LEAK"
	case strings.Contains(message, "alert"):
		return "ALERT"
	case strings.Contains(message, "credential"), strings.Contains(message, "login"), strings.Contains(message, "authenticated"):
		return "AUTH"
	case strings.Contains(message, "crawl"), strings.Contains(message, "skipping page"), strings.Contains(message, "redirected"):
		return "CRAWL"
	case strings.Contains(message, "form"), strings.Contains(message, "fuzz"):
		return "FUZZ"
	case strings.Contains(message, "guess"):
		return "GUESS"
	case strings.Contains(message, "statistics"):
		return "STATS"
	case strings.Contains(message, "engine"), strings.Contains(message, "session"):
		return "ENGINE"
	default:
		return ""
	}
}

func (f *ReconFormatter) formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := formatValue(fields[key])
		if f.Colors {
			parts = append(parts, fmt.Sprintf("\033[34m%s\033[0m=\033[32m%s\033[0m", key, value))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", key, value))
		}
	}
	return strings.Join(parts, " ")
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format("15:04:05.000")
	case error:
		return v.Error()
	case string:
		if len(v) > 120 {
			return v[:120] + "..."
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
