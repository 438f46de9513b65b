/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: session.go
Description: Recon session wiring. Owns one engine, one ledger and one throttle, and exposes the
crawl, page guessing, form fuzzing and credential probing operations over that shared state.
*/

package web

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session is one reconnaissance run against a single target
type Session struct {
	ID        string
	StartedAt time.Time

	config   SessionConfig
	engine   BrowserEngine
	ledger   *DiscoveryLedger
	throttle *RequestThrottle
	scanner  *SensitiveDataScanner
	fetcher  *PageFetcher
	crawler  *Crawler
	fuzzer   *FormFuzzer
	prober   *CredentialProber
	guesser  *PageGuesser
	logger   logrus.FieldLogger
}

// NewSession validates config and wires every component around engine
func NewSession(engine BrowserEngine, config SessionConfig, logger logrus.FieldLogger) (*Session, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine must not be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	id := uuid.New().String()
	log := logger.WithField("session", id)

	ledger := NewDiscoveryLedger()
	throttle := NewRequestThrottle(config.MinRequestInterval)
	scanner := NewSensitiveDataScanner(config.Keywords)
	fetcher := NewPageFetcher(engine, throttle, ledger, scanner, log)

	s := &Session{
		ID:        id,
		StartedAt: time.Now(),
		config:    config,
		engine:    engine,
		ledger:    ledger,
		throttle:  throttle,
		scanner:   scanner,
		fetcher:   fetcher,
		crawler: NewCrawler(fetcher, ledger, CrawlerConfig{
			Workers:  config.Workers,
			MaxPages: config.MaxPages,
			MaxDepth: config.MaxDepth,
			Exclude:  config.Exclude,
		}, log),
		fuzzer:  NewFormFuzzer(fetcher, log),
		prober:  NewCredentialProber(fetcher, engine, ledger, log),
		guesser: NewPageGuesser(fetcher, log),
		logger:  log,
	}
	s.SetReporter(NewLoggerReporter(log))
	return s, nil
}

// SetReporter routes discovery events to r. Sessions start with a
// LoggerReporter.
func (s *Session) SetReporter(r Reporter) {
	s.fetcher.SetReporter(r)
	s.prober.SetReporter(r)
}

// Config returns the session configuration
func (s *Session) Config() SessionConfig { return s.config }

// Ledger exposes the shared discovery state
func (s *Session) Ledger() *DiscoveryLedger { return s.ledger }

// MinimumRequestInterval returns the current pacing interval
func (s *Session) MinimumRequestInterval() time.Duration {
	return s.throttle.MinimumRequestInterval()
}

// SetMinimumRequestInterval changes the pacing interval for subsequent requests
func (s *Session) SetMinimumRequestInterval(interval time.Duration) {
	s.throttle.SetMinimumRequestInterval(interval)
}

// Start launches the engine
func (s *Session) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"target":   s.config.StartURL,
		"keywords": len(s.scanner.Keywords()),
		"workers":  s.config.Workers,
	}).Info("Starting recon session")
	return s.engine.Start(ctx)
}

// Close stops the engine
func (s *Session) Close() error {
	s.logger.WithField("duration", time.Since(s.StartedAt).String()).Info("Closing recon session")
	return s.engine.Stop()
}

// Authenticate logs in with the configured credentials. It is a no-op when no
// login URL is configured. A rejected login is a warning, not an error, so the
// session can continue unauthenticated.
func (s *Session) Authenticate(ctx context.Context) (bool, error) {
	if s.config.LoginURL == "" {
		return false, nil
	}
	ok, err := s.prober.Attempt(ctx, s.config.LoginURL, s.config.Username, s.config.Password, s.config.SuccessSuffix)
	if err != nil {
		return false, fmt.Errorf("authenticate: %w", err)
	}
	if !ok {
		s.logger.WithFields(logrus.Fields{"url": s.config.LoginURL, "username": s.config.Username}).Warn("Login rejected, continuing unauthenticated")
		return false, nil
	}
	s.logger.WithField("username", s.config.Username).Info("Authenticated")
	return true, nil
}

// Crawl traverses the target from the configured start URL
func (s *Session) Crawl(ctx context.Context) (CrawlStats, error) {
	return s.CrawlFrom(ctx, s.config.StartURL)
}

// CrawlFrom traverses from startURL, sharing the visited set with earlier calls
func (s *Session) CrawlFrom(ctx context.Context, startURL string) (CrawlStats, error) {
	start := time.Now()
	stats, err := s.crawler.Crawl(ctx, startURL)
	s.logger.WithFields(logrus.Fields{
		"start":    startURL,
		"fetched":  stats.Fetched,
		"failed":   stats.Failed,
		"depth":    stats.Depth,
		"duration": time.Since(start).String(),
	}).Info("Crawl finished")
	return stats, err
}

// GuessPages probes candidates relative to baseURL, or to the start URL when
// baseURL is empty. A nil candidates slice uses the configured guess paths.
func (s *Session) GuessPages(ctx context.Context, baseURL string, candidates []string) ([]CanonicalURL, error) {
	if baseURL == "" {
		baseURL = s.config.StartURL
	}
	if candidates == nil {
		candidates = s.config.GuessPaths
	}
	return s.guesser.GuessPages(ctx, baseURL, candidates)
}

// FuzzForms fuzzes every form in the ledger with the configured vectors.
// Per-form failures are logged and the remaining forms still run.
func (s *Session) FuzzForms(ctx context.Context) ([]FuzzResult, error) {
	return s.FuzzFormsWith(ctx, s.config.FuzzVectors)
}

// FuzzFormsWith fuzzes every known form with vectors
func (s *Session) FuzzFormsWith(ctx context.Context, vectors []string) ([]FuzzResult, error) {
	forms := s.ledger.Forms()
	results := make([]FuzzResult, 0, len(forms))
	for _, form := range forms {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := s.fuzzer.Fuzz(ctx, form, vectors)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			s.logger.WithFields(logrus.Fields{"url": form.Page.String(), "form": form.Index, "error": err}).Warn("Form fuzzing failed")
			result.Skipped = true
			result.Reason = err.Error()
		}
		results = append(results, result)
	}
	return results, nil
}

// ProbeCredentials tries every username/password pair against the login URL.
// An empty loginURL or successSuffix falls back to the session config.
func (s *Session) ProbeCredentials(ctx context.Context, usernames, passwords []string, loginURL, successSuffix string) ([]CredentialPair, error) {
	if loginURL == "" {
		loginURL = s.config.LoginURL
	}
	if successSuffix == "" {
		successSuffix = s.config.SuccessSuffix
	}
	if loginURL == "" {
		return nil, fmt.Errorf("no login url configured")
	}
	return s.prober.Probe(ctx, usernames, passwords, loginURL, successSuffix)
}

// Snapshot returns a copy of everything discovered so far
func (s *Session) Snapshot() Snapshot {
	return s.ledger.Snapshot()
}
