/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: fetcher.go
Description: PageFetcher routes every request through the throttle and the browser engine, then
records the visited URL, query parameters, cookies, forms, leaks and alerts into the ledger as a
single observation.
*/

package web

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"
)

// PageFetcher is the only path from the core to the browser engine
type PageFetcher struct {
	engine   BrowserEngine
	throttle *RequestThrottle
	ledger   *DiscoveryLedger
	scanner  *SensitiveDataScanner
	reporter Reporter
	logger   logrus.FieldLogger
}

// NewPageFetcher wires a fetcher to its collaborators
func NewPageFetcher(engine BrowserEngine, throttle *RequestThrottle, ledger *DiscoveryLedger, scanner *SensitiveDataScanner, logger logrus.FieldLogger) *PageFetcher {
	if throttle == nil {
		throttle = NewRequestThrottle(0)
	}
	if scanner == nil {
		scanner = NewSensitiveDataScanner(nil)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PageFetcher{
		engine:   engine,
		throttle: throttle,
		ledger:   ledger,
		scanner:  scanner,
		reporter: nopReporter{},
		logger:   logger,
	}
}

// SetReporter installs a listener for discovery events
func (f *PageFetcher) SetReporter(r Reporter) {
	if r == nil {
		r = nopReporter{}
	}
	f.reporter = r
}

// Fetch throttles, retrieves rawURL and records what the page reveals. On error
// nothing is recorded and the error is returned to the caller.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (RenderedPage, error) {
	requested, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	canon, err := ParseCanonical(rawURL)
	if err != nil {
		return nil, err
	}

	if err := f.throttle.Acquire(ctx); err != nil {
		return nil, err
	}

	page, err := f.engine.FetchPage(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", canon, err)
	}

	obs := f.observe(ctx, page, canon, true)
	obs.Visited = canon
	obs.RawQuery = requested.RawQuery
	f.commit(obs)
	f.reporter.OnPageFetched(obs.Page, len(obs.Forms))
	return page, nil
}

// Submit throttles, submits form with values and records the cookies, leaks and
// alerts of the resulting page. The result is not added to the visited set and
// its forms are not recorded.
func (f *PageFetcher) Submit(ctx context.Context, form FormHandle, values map[string]string) (RenderedPage, error) {
	if err := f.throttle.Acquire(ctx); err != nil {
		return nil, err
	}

	page, err := form.Submit(ctx, values)
	if err != nil {
		return nil, fmt.Errorf("submit form: %w", err)
	}

	// the form inventory of a page comes from fetching it, never from landing on it
	obs := f.observe(ctx, page, CanonicalURL{}, false)
	f.commit(obs)
	return page, nil
}

// observe reads what page reveals. Forms are collected only when recordForms is set.
func (f *PageFetcher) observe(ctx context.Context, page RenderedPage, fallback CanonicalURL, recordForms bool) PageObservation {
	final, err := ParseCanonical(page.URL())
	if err != nil {
		final = fallback
	}

	obs := PageObservation{Page: final, SetForms: recordForms}

	cookies, err := f.engine.Cookies(ctx)
	if err != nil {
		f.logger.WithFields(logrus.Fields{"url": final.String(), "error": err}).Warn("Failed to read cookies")
	}
	obs.Cookies = cookies

	if recordForms {
		for i, form := range page.Forms() {
			obs.Forms = append(obs.Forms, FormRecord{
				Page:   final,
				Index:  i,
				Inputs: append([]InputDescriptor(nil), form.Inputs()...),
			})
		}
	}
	obs.Leaks = f.scanner.Scan(page)
	obs.Alerts = page.Alerts()
	return obs
}

func (f *PageFetcher) commit(obs PageObservation) {
	fresh := f.ledger.Commit(obs)
	for _, kw := range fresh {
		f.reporter.OnLeak(kw, obs.Page)
	}
	for _, text := range obs.Alerts {
		f.reporter.OnAlert(obs.Page, text)
	}
}
