/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Reporter hooks for live discovery events. Lets the session notify listeners of fetched
pages, leaks, alerts and successful credentials; LoggerReporter writes them through logrus.
*/

package web

import (
	"github.com/sirupsen/logrus"
)

// Reporter receives discovery events as they happen
type Reporter interface {
	// OnPageFetched is called after a page has been fetched and recorded
	OnPageFetched(page CanonicalURL, forms int)
	// OnLeak is called the first time a keyword is seen on a page
	OnLeak(keyword string, page CanonicalURL)
	// OnAlert is called for every script alert raised while rendering a page
	OnAlert(page CanonicalURL, text string)
	// OnCredential is called when a credential pair logs in
	OnCredential(pair CredentialPair)
}

// LoggerReporter logs discovery events
type LoggerReporter struct {
	logger logrus.FieldLogger
}

// NewLoggerReporter creates a new LoggerReporter
func NewLoggerReporter(logger logrus.FieldLogger) *LoggerReporter {
	return &LoggerReporter{logger: logger}
}

func (r *LoggerReporter) OnPageFetched(page CanonicalURL, forms int) {
	r.logger.WithFields(logrus.Fields{"url": page.String(), "forms": forms}).Debug("Page fetched")
}

func (r *LoggerReporter) OnLeak(keyword string, page CanonicalURL) {
	r.logger.WithFields(logrus.Fields{"url": page.String(), "keyword": keyword}).Info("Sensitive keyword leaked")
}

func (r *LoggerReporter) OnAlert(page CanonicalURL, text string) {
	r.logger.WithFields(logrus.Fields{"url": page.String(), "alert": text}).Info("Script alert raised")
}

func (r *LoggerReporter) OnCredential(pair CredentialPair) {
	r.logger.WithFields(logrus.Fields{"username": pair.Username}).Warn("Valid credentials found")
}

type nopReporter struct{}

func (nopReporter) OnPageFetched(CanonicalURL, int) {}
func (nopReporter) OnLeak(string, CanonicalURL) {}
func (nopReporter) OnAlert(CanonicalURL, string) {}
func (nopReporter) OnCredential(CredentialPair) {}
