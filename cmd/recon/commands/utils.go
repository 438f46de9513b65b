/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared helpers for the recon commands: configuration loading, logging setup,
session construction from viper, and result output.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kleascm/akaylee-recon/pkg/logging"
	"github.com/kleascm/akaylee-recon/pkg/reporting"
	"github.com/kleascm/akaylee-recon/pkg/utils"
	"github.com/kleascm/akaylee-recon/pkg/web"
	"github.com/kleascm/akaylee-recon/pkg/wordlist"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Version is reported by --version and stamped into result files
const Version = "1.0.0"

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("AKAYLEE_RECON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	return nil
}

// SetupLogging builds the logger from the log_* settings
func SetupLogging() (*logging.Logger, error) {
	config := &logging.LoggerConfig{
		Level:         logging.LogLevel(viper.GetString("log_level")),
		Format:        logging.LogFormat(viper.GetString("log_format")),
		OutputDir:     viper.GetString("log_dir"),
		MaxFiles:      viper.GetInt("log_max_files"),
		Timestamp:     true,
		Caller:        viper.GetBool("log_caller"),
		Colors:        !viper.GetBool("no_color"),
		SyslogEnabled: viper.GetBool("syslog.enabled"),
		SyslogNetwork: viper.GetString("syslog.network"),
		SyslogAddress: viper.GetString("syslog.address"),
	}
	logger, err := logging.NewLogger(config)
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// lists holds every wordlist a run may need
type lists struct {
	keywords  []string
	vectors   []string
	paths     []string
	usernames []string
	passwords []string
}

// loadLists reads the configured wordlists. A list without a path is empty, or
// the built-in list when --builtin is set.
func loadLists() (lists, error) {
	var (
		l   lists
		err error
	)
	load := func(key, builtin string, dst *[]string) {
		if err != nil {
			return
		}
		path := viper.GetString("wordlists." + key)
		if path == "" && viper.GetBool("builtin") {
			*dst, err = wordlist.Builtin(builtin)
			return
		}
		*dst, err = wordlist.Load(path)
	}
	load("keywords", wordlist.Keywords, &l.keywords)
	load("vectors", wordlist.Vectors, &l.vectors)
	load("paths", wordlist.GuessPaths, &l.paths)
	load("usernames", wordlist.Usernames, &l.usernames)
	load("passwords", wordlist.Passwords, &l.passwords)
	return l, err
}

// buildSessionConfig maps viper settings onto a SessionConfig
func buildSessionConfig(l lists) web.SessionConfig {
	return web.SessionConfig{
		StartURL:           viper.GetString("target"),
		MinRequestInterval: viper.GetDuration("interval"),
		Workers:            viper.GetInt("workers"),
		MaxPages:           viper.GetInt("max_pages"),
		MaxDepth:           viper.GetInt("max_depth"),
		Exclude:            viper.GetStringSlice("exclude"),
		Keywords:           l.keywords,
		FuzzVectors:        l.vectors,
		GuessPaths:         l.paths,
		LoginURL:           viper.GetString("login.url"),
		Username:           viper.GetString("login.username"),
		Password:           viper.GetString("login.password"),
		SuccessSuffix:      viper.GetString("login.success_suffix"),
	}
}

func buildEngineConfig() web.EngineConfig {
	return web.EngineConfig{
		Kind:           viper.GetString("engine"),
		TargetURL:      viper.GetString("target"),
		Headless:       viper.GetBool("headless"),
		RequestTimeout: viper.GetDuration("timeout"),
		UserAgent:      viper.GetString("user_agent"),
		Cookies:        web.ParseKeyValues(viper.GetStringSlice("cookies")),
		Headers:        web.ParseKeyValues(viper.GetStringSlice("headers")),
	}
}

// run is the state shared by one command invocation
type run struct {
	command string
	logger  *logging.Logger
	lists   lists
	session *web.Session
	report  *reporting.Report
}

// startRun loads config, logging and wordlists and starts a session. With
// --dry-run it validates everything and returns a nil run.
func startRun(ctx context.Context, command string) (*run, error) {
	if err := LoadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := SetupLogging()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	l, err := loadLists()
	if err != nil {
		logger.Close()
		return nil, err
	}
	config := buildSessionConfig(l)
	if err := config.Validate(); err != nil {
		logger.Close()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.GetLogger()
	engine, err := web.NewEngine(buildEngineConfig(), log)
	if err != nil {
		logger.Close()
		return nil, err
	}

	if viper.GetBool("dry_run") {
		log.WithFields(logrus.Fields{
			"target":    config.StartURL,
			"engine":    viper.GetString("engine"),
			"keywords":  len(l.keywords),
			"vectors":   len(l.vectors),
			"paths":     len(l.paths),
			"usernames": len(l.usernames),
			"passwords": len(l.passwords),
		}).Info("Dry run: configuration is valid")
		logger.Close()
		return nil, nil
	}

	session, err := web.NewSession(engine, config, log)
	if err != nil {
		logger.Close()
		return nil, err
	}
	session.SetReporter(newConsoleReporter(logger))
	if err := session.Start(ctx); err != nil {
		logger.Close()
		return nil, err
	}

	return &run{command: command, logger: logger, lists: l, session: session}, nil
}

// authenticate logs in when a login URL is configured
func (r *run) authenticate(ctx context.Context) error {
	if _, err := r.session.Authenticate(ctx); err != nil {
		return err
	}
	return nil
}

// finish prints and persists the report, then closes the session
func (r *run) finish(runErr error) error {
	defer r.logger.Close()
	defer r.session.Close()

	if r.report == nil {
		r.report = reporting.NewReport("Akaylee Recon: "+r.command, Version, r.session)
	}

	stats := r.report.Snapshot
	r.logger.LogStats(map[string]interface{}{
		"pages":       len(stats.Pages),
		"visited":     len(stats.Visited),
		"cookies":     len(stats.Cookies),
		"leaks":       len(stats.Leaks),
		"alerts":      r.report.AlertCount(),
		"credentials": len(stats.Credentials),
	})

	switch viper.GetString("report.format") {
	case "json":
		if err := reporting.WriteJSON(os.Stdout, r.report); err != nil {
			return err
		}
	case "none":
	default:
		if err := reporting.WriteText(os.Stdout, r.report, !viper.GetBool("no_color")); err != nil {
			return err
		}
	}

	if path, err := utils.WriteResult(viper.GetString("output"), r.command, Version, r.report); err != nil {
		r.logger.GetLogger().WithError(err).Warn("Failed to write result file")
	} else {
		r.logger.GetLogger().WithField("path", path).Info("Result written")
	}

	if dir := viper.GetString("report.dir"); dir != "" {
		if _, err := reporting.NewHTMLGenerator(dir, r.logger.GetLogger()).Generate(r.report); err != nil {
			r.logger.GetLogger().WithError(err).Warn("Failed to write HTML report")
		}
	}
	return runErr
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
