/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Logging for recon sessions. Structured logrus output to the console and a timestamped
file, optional syslog sink, and helpers for the events a session produces: fetches, leaks,
alerts, credential hits and summary statistics.
*/

package logging

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

const filePrefix = "akaylee-recon"

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatText   LogFormat = "text"
	LogFormatCustom LogFormat = "custom"
)

// LoggerConfig holds the configuration for the logger. An empty OutputDir logs
// to the console only.
type LoggerConfig struct {
	Level     LogLevel  `json:"level"`
	Format    LogFormat `json:"format"`
	OutputDir string    `json:"output_dir"`
	MaxFiles  int       `json:"max_files"`
	Timestamp bool      `json:"timestamp"`
	Caller    bool      `json:"caller"`
	Colors    bool      `json:"colors"`

	SyslogEnabled bool   `json:"syslog_enabled"`
	SyslogNetwork string `json:"syslog_network"`
	SyslogAddress string `json:"syslog_address"`
}

// DefaultLoggerConfig returns console-friendly defaults
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     LogLevelInfo,
		Format:    LogFormatCustom,
		MaxFiles:  10,
		Timestamp: true,
		Colors:    true,
	}
}

// Validate checks the LoggerConfig for invalid or missing values
func (c *LoggerConfig) Validate() error {
	if c.OutputDir != "" && c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive")
	}
	switch c.Format {
	case LogFormatJSON, LogFormatText, LogFormatCustom:
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	if c.SyslogEnabled && c.SyslogAddress == "" && c.SyslogNetwork != "" {
		return fmt.Errorf("syslog address required for network %s", c.SyslogNetwork)
	}
	return nil
}

// Logger wraps a logrus logger with recon event helpers
type Logger struct {
	config     *LoggerConfig
	logger     *logrus.Logger
	fileHandle *os.File
	filePath   string
	startTime  time.Time
}

// NewLogger creates a logger writing to console, and to a file when OutputDir is set
func NewLogger(config *LoggerConfig) (*Logger, error) {
	return newLogger(config, os.Stderr)
}

func newLogger(config *LoggerConfig, console io.Writer) (*Logger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	l := &Logger{
		config:    config,
		logger:    logrus.New(),
		startTime: time.Now(),
	}
	l.logger.SetOutput(console)

	if err := l.setup(console); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return l, nil
}

func (l *Logger) setup(console io.Writer) error {
	level, err := logrus.ParseLevel(string(l.config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.logger.SetLevel(level)
	l.logger.SetReportCaller(l.config.Caller)

	if err := l.setFormatter(); err != nil {
		return err
	}

	writers := []io.Writer{console}
	if l.config.OutputDir != "" {
		file, err := l.openLogFile()
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}
	if l.config.SyslogEnabled {
		writer, err := syslog.Dial(l.config.SyslogNetwork, l.config.SyslogAddress, syslog.LOG_INFO|syslog.LOG_USER, filePrefix)
		if err != nil {
			return fmt.Errorf("failed to connect to syslog: %w", err)
		}
		writers = append(writers, writer)
	}
	l.logger.SetOutput(io.MultiWriter(writers...))

	if l.filePath != "" {
		l.logger.WithFields(logrus.Fields{
			"log_file": l.filePath,
			"level":    l.config.Level,
			"format":   l.config.Format,
		}).Debug("Logging initialized")
	}
	return nil
}

func (l *Logger) setFormatter() error {
	prettyCaller := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}
	switch l.config.Format {
	case LogFormatJSON:
		l.logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: prettyCaller,
		})
	case LogFormatText:
		l.logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    l.config.Timestamp,
			TimestampFormat:  time.RFC3339,
			ForceColors:      l.config.Colors,
			DisableColors:    !l.config.Colors,
			CallerPrettyfier: prettyCaller,
		})
	case LogFormatCustom:
		l.logger.SetFormatter(&ReconFormatter{
			Timestamp: l.config.Timestamp,
			Caller:    l.config.Caller,
			Colors:    l.config.Colors,
		})
	default:
		return fmt.Errorf("unsupported log format: %s", l.config.Format)
	}
	return nil
}

func (l *Logger) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(l.config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	name := fmt.Sprintf("%s_%s.log", filePrefix, l.startTime.Format("2006-01-02_15-04-05"))
	path := filepath.Join(l.config.OutputDir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l.fileHandle = file
	l.filePath = path
	return file, nil
}

// cleanup removes the oldest log files beyond MaxFiles
func (l *Logger) cleanup() error {
	if l.config.OutputDir == "" {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(l.config.OutputDir, filePrefix+"_*.log"))
	if err != nil {
		return err
	}
	if len(files) <= l.config.MaxFiles {
		return nil
	}
	// names embed the start time, so lexical order is age order
	sort.Strings(files)
	for _, f := range files[:len(files)-l.config.MaxFiles] {
		os.Remove(f)
	}
	return nil
}

// LogFetch logs a fetched page
func (l *Logger) LogFetch(url string, forms int) {
	l.logger.WithFields(logrus.Fields{"url": url, "forms": forms}).Info("Page fetched")
}

// LogLeak logs a keyword found on a page
func (l *Logger) LogLeak(keyword, url string) {
	l.logger.WithFields(logrus.Fields{"keyword": keyword, "url": url}).Info("Sensitive data found")
}

// LogAlert logs a script alert raised by a page
func (l *Logger) LogAlert(url, text string) {
	l.logger.WithFields(logrus.Fields{"url": url, "alert": text}).Info("Alert triggered")
}

// LogCredential logs a working login. The password is kept out of every log
// sink and only reaches the result file.
func (l *Logger) LogCredential(username string) {
	l.logger.WithField("username", username).Info("Credential accepted")
}

// LogStats logs summary statistics
func (l *Logger) LogStats(fields map[string]interface{}) {
	entry := l.logger.WithField("uptime", time.Since(l.startTime).Round(time.Millisecond))
	entry.WithFields(fields).Info("Statistics update")
}

// Close flushes the log file and prunes old ones
func (l *Logger) Close() error {
	if l.fileHandle != nil {
		l.fileHandle.Close()
		l.fileHandle = nil
	}
	if err := l.cleanup(); err != nil {
		return fmt.Errorf("failed to cleanup log files: %w", err)
	}
	return nil
}

// GetLogger returns the underlying logrus logger
func (l *Logger) GetLogger() *logrus.Logger {
	return l.logger
}

// FilePath returns the current log file, or "" when logging to console only
func (l *Logger) FilePath() string {
	return l.filePath
}
