/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: prober.go
Description: Credential probing against a login form. Tries the full username x password cross
product and records every pair whose post-login URL ends with the success suffix.
*/

package web

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// CredentialProber performs login attempts through the page fetcher
type CredentialProber struct {
	fetcher  *PageFetcher
	engine   BrowserEngine
	ledger   *DiscoveryLedger
	reporter Reporter
	logger   logrus.FieldLogger
}

// NewCredentialProber creates a prober. engine is used only to reset the
// session between attempts when it implements SessionResetter.
func NewCredentialProber(fetcher *PageFetcher, engine BrowserEngine, ledger *DiscoveryLedger, logger logrus.FieldLogger) *CredentialProber {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CredentialProber{
		fetcher:  fetcher,
		engine:   engine,
		ledger:   ledger,
		reporter: nopReporter{},
		logger:   logger,
	}
}

// SetReporter installs a listener for successful credentials
func (p *CredentialProber) SetReporter(r Reporter) {
	if r == nil {
		r = nopReporter{}
	}
	p.reporter = r
}

// Probe tries every (username, password) pair against the login form at
// loginURL. There is no short-circuit: one success for a username does not stop
// the remaining passwords. Failed attempts are logged and skipped; a login page
// without a login form or a cancelled ctx aborts the probe.
func (p *CredentialProber) Probe(ctx context.Context, usernames, passwords []string, loginURL, successSuffix string) ([]CredentialPair, error) {
	var found []CredentialPair
	for _, user := range usernames {
		for _, pass := range passwords {
			if err := ctx.Err(); err != nil {
				return found, err
			}
			ok, err := p.Attempt(ctx, loginURL, user, pass, successSuffix)
			if err != nil {
				if ctx.Err() != nil {
					return found, ctx.Err()
				}
				if errors.Is(err, ErrNoLoginForm) {
					return found, fmt.Errorf("%s: %w", loginURL, err)
				}
				p.logger.WithFields(logrus.Fields{"url": loginURL, "username": user, "error": err}).Warn("Login attempt failed")
				continue
			}
			if ok {
				pair := CredentialPair{Username: user, Password: pass}
				found = append(found, pair)
				p.ledger.RecordCredential(pair)
				p.reporter.OnCredential(pair)
			}
		}
	}
	return found, nil
}

// Attempt performs one login: reset the session, load the login page, fill the
// login form and submit it. It reports whether the resulting URL ends with
// successSuffix.
func (p *CredentialProber) Attempt(ctx context.Context, loginURL, username, password, successSuffix string) (bool, error) {
	if resetter, ok := p.engine.(SessionResetter); ok {
		if err := resetter.ResetSession(ctx); err != nil {
			return false, fmt.Errorf("reset session: %w", err)
		}
	}

	page, err := p.fetcher.Fetch(ctx, loginURL)
	if err != nil {
		return false, err
	}

	form, values, ok := loginForm(page.Forms(), username, password)
	if !ok {
		return false, ErrNoLoginForm
	}

	result, err := p.fetcher.Submit(ctx, form, values)
	if err != nil {
		return false, err
	}
	return loginSucceeded(result.URL(), successSuffix), nil
}

// loginForm picks the first form with a password input and fills it. The
// username goes into the text input closest before the password field, or the
// first text input when none precedes it.
func loginForm(forms []FormHandle, username, password string) (FormHandle, map[string]string, bool) {
	for _, form := range forms {
		inputs := form.Inputs()
		pwIdx := -1
		for i, in := range inputs {
			if in.IsPassword() && in.Name != "" {
				pwIdx = i
				break
			}
		}
		if pwIdx < 0 {
			continue
		}

		userIdx := -1
		for i := pwIdx - 1; i >= 0; i-- {
			if isUserField(inputs[i]) {
				userIdx = i
				break
			}
		}
		if userIdx < 0 {
			for i, in := range inputs {
				if isUserField(in) {
					userIdx = i
					break
				}
			}
		}

		values := map[string]string{inputs[pwIdx].Name: password}
		if userIdx >= 0 {
			values[inputs[userIdx].Name] = username
		}
		return form, values, true
	}
	return nil, nil, false
}

func isUserField(in InputDescriptor) bool {
	return in.Kind == InputText && !in.IsPassword() && in.Name != ""
}

// loginSucceeded compares the suffix against the canonical final URL, so query
// strings and fragments do not hide a match
func loginSucceeded(finalURL, successSuffix string) bool {
	if successSuffix == "" {
		return false
	}
	if c, err := ParseCanonical(finalURL); err == nil {
		return strings.HasSuffix(c.String(), successSuffix)
	}
	return strings.HasSuffix(finalURL, successSuffix)
}
