/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: guesser.go
Description: Existence probing of unlinked pages. Resolves candidate relative paths against a base
URL and fetches them, treating 404-class responses as a normal "absent" result.
*/

package web

import (
	"context"

	"github.com/sirupsen/logrus"
)

// PageGuesser probes candidate paths through the page fetcher
type PageGuesser struct {
	fetcher *PageFetcher
	logger  logrus.FieldLogger
}

// NewPageGuesser creates a guesser
func NewPageGuesser(fetcher *PageFetcher, logger logrus.FieldLogger) *PageGuesser {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PageGuesser{fetcher: fetcher, logger: logger}
}

// GuessPages fetches every candidate that resolves to an in-scope URL of
// baseURL and returns the canonical URLs that exist. 404 and 410 mean the page
// does not exist. Any other HTTP status failure is returned together with the
// pages found so far. Transport failures are logged and skipped.
func (g *PageGuesser) GuessPages(ctx context.Context, baseURL string, candidates []string) ([]CanonicalURL, error) {
	var found []CanonicalURL
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		target, ok := Resolve(baseURL, candidate)
		if !ok {
			continue
		}
		page, err := g.fetcher.Fetch(ctx, target.String())
		switch {
		case err == nil:
			final, perr := ParseCanonical(page.URL())
			if perr != nil {
				final = target
			}
			g.logger.WithFields(logrus.Fields{"url": target.String(), "final": final.String()}).Info("Guessed page exists")
			found = append(found, target)
		case IsNotFound(err):
			continue
		case IsHTTPStatus(err):
			return found, err
		case ctx.Err() != nil:
			return found, ctx.Err()
		default:
			g.logger.WithFields(logrus.Fields{"url": target.String(), "error": err}).Warn("Guess request failed")
		}
	}
	return found, nil
}
