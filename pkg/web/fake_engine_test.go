/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: fake_engine_test.go
Description: In-memory BrowserEngine used by the web package tests. Pages are declared up front;
fetch counts, submissions and concurrency are recorded for assertions.
*/

package web_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/kleascm/akaylee-recon/pkg/web"
	"github.com/sirupsen/logrus"
)

var errTransport = errors.New("connection refused")

type fakePage struct {
	status  int
	final   string
	anchors []string
	text    string
	alerts  []string
	cookies []web.Cookie
	forms   []*fakeForm
	err     error
}

type fakeForm struct {
	inputs []web.InputDescriptor
	// submit returns the URL of the page the submission lands on
	submit func(values map[string]string) string
}

type fakeSite struct {
	mu          sync.Mutex
	pages       map[string]*fakePage
	fetches     map[string]int
	requested   []string
	submissions []map[string]string
	cookies     map[string]web.Cookie
	resets      int
	delay       time.Duration
	cookieDelay time.Duration
	inflight    int
	maxInflight int
	started     bool
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		pages:   make(map[string]*fakePage),
		fetches: make(map[string]int),
		cookies: make(map[string]web.Cookie),
	}
}

func (s *fakeSite) add(url string, p *fakePage) *fakeSite {
	s.pages[url] = p
	return s
}

func (s *fakeSite) fetchCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[key(url)]
}

func (s *fakeSite) totalFetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.fetches {
		n += c
	}
	return n
}

func (s *fakeSite) Start(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSite) Stop() error {
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	return nil
}

// key files fetches and pages under the canonical form, so query variants
// of a page share one entry
func key(url string) string {
	if c, err := web.ParseCanonical(url); err == nil {
		return c.String()
	}
	return url
}

func (s *fakeSite) FetchPage(ctx context.Context, url string) (web.RenderedPage, error) {
	s.mu.Lock()
	s.fetches[key(url)]++
	s.requested = append(s.requested, url)
	s.inflight++
	if s.inflight > s.maxInflight {
		s.maxInflight = s.inflight
	}
	delay := s.delay
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.render(url)
}

func (s *fakeSite) render(url string) (web.RenderedPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[key(url)]
	if !ok {
		return nil, &web.HTTPStatusError{URL: url, StatusCode: 404}
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.status >= 400 {
		return nil, &web.HTTPStatusError{URL: url, StatusCode: p.status}
	}

	for _, c := range p.cookies {
		s.cookies[c.Name] = c
	}

	final := url
	if p.final != "" {
		final = p.final
	}
	rp := &fakeRendered{url: final, anchors: p.anchors, text: p.text, alerts: p.alerts}
	for _, f := range p.forms {
		rp.forms = append(rp.forms, &fakeFormHandle{site: s, form: f})
	}
	return rp, nil
}

func (s *fakeSite) Cookies(ctx context.Context) ([]web.Cookie, error) {
	if s.cookieDelay > 0 {
		time.Sleep(s.cookieDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]web.Cookie, 0, len(s.cookies))
	for _, c := range s.cookies {
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeSite) ResetSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	s.cookies = make(map[string]web.Cookie)
	return nil
}

type fakeRendered struct {
	url     string
	anchors []string
	forms   []web.FormHandle
	text    string
	alerts  []string
}

func (p *fakeRendered) URL() string { return p.url }
func (p *fakeRendered) Anchors() []string { return p.anchors }
func (p *fakeRendered) Forms() []web.FormHandle { return p.forms }
func (p *fakeRendered) Text() string { return p.text }
func (p *fakeRendered) Alerts() []string { return p.alerts }

type fakeFormHandle struct {
	site *fakeSite
	form *fakeForm
}

func (f *fakeFormHandle) Inputs() []web.InputDescriptor { return f.form.inputs }

func (f *fakeFormHandle) Submit(ctx context.Context, values map[string]string) (web.RenderedPage, error) {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	f.site.mu.Lock()
	f.site.submissions = append(f.site.submissions, copied)
	f.site.mu.Unlock()

	return f.site.render(f.form.submit(values))
}

func textInput(name string) web.InputDescriptor {
	return web.InputDescriptor{Name: name, Type: "text", Kind: web.InputText}
}

func passwordInput(name string) web.InputDescriptor {
	return web.InputDescriptor{Name: name, Type: "password", Kind: web.InputText}
}

func submitInput(name string) web.InputDescriptor {
	return web.InputDescriptor{Name: name, Type: "submit", Kind: web.InputSubmit}
}

func mustCanonical(raw string) web.CanonicalURL {
	c, err := web.ParseCanonical(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newTestFetcher wires a fetcher, ledger and scanner around engine
func newTestFetcher(engine web.BrowserEngine, keywords ...string) (*web.PageFetcher, *web.DiscoveryLedger) {
	ledger := web.NewDiscoveryLedger()
	fetcher := web.NewPageFetcher(engine, web.NewRequestThrottle(0), ledger, web.NewSensitiveDataScanner(keywords), quietLogger())
	return fetcher, ledger
}
