/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Routes session discovery events into the recon logger.
*/

package commands

import (
	"github.com/kleascm/akaylee-recon/pkg/logging"
	"github.com/kleascm/akaylee-recon/pkg/web"
)

type consoleReporter struct {
	logger *logging.Logger
}

func newConsoleReporter(logger *logging.Logger) *consoleReporter {
	return &consoleReporter{logger: logger}
}

func (r *consoleReporter) OnPageFetched(page web.CanonicalURL, forms int) {
	r.logger.LogFetch(page.String(), forms)
}

func (r *consoleReporter) OnLeak(keyword string, page web.CanonicalURL) {
	r.logger.LogLeak(keyword, page.String())
}

func (r *consoleReporter) OnAlert(page web.CanonicalURL, text string) {
	r.logger.LogAlert(page.String(), text)
}

func (r *consoleReporter) OnCredential(pair web.CredentialPair) {
	r.logger.LogCredential(pair.Username)
}
