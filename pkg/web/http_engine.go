/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: http_engine.go
Description: BrowserEngine over plain HTTP with goquery parsing. No script execution, so it never
raises alerts; useful for static targets and for running without a Chrome install.
*/

package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

const maxBodyBytes = 10 << 20

// HTTPEngine fetches pages with net/http and a public-suffix aware cookie jar
type HTTPEngine struct {
	config EngineConfig
	logger logrus.FieldLogger

	mu       sync.RWMutex
	client   *http.Client
	recorder *cookieRecorder
}

// NewHTTPEngine creates an engine; the client is built on Start
func NewHTTPEngine(config EngineConfig, logger logrus.FieldLogger) *HTTPEngine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HTTPEngine{config: config, logger: logger}
}

// Start builds the HTTP client and seeds the configured cookies
func (e *HTTPEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return nil
	}
	e.recorder = &cookieRecorder{next: http.DefaultTransport, cookies: make(map[cookieKey]Cookie)}
	e.client = &http.Client{
		Transport: e.recorder,
		Timeout:   e.timeout(),
	}
	if err := e.resetJarLocked(); err != nil {
		e.client = nil
		return err
	}
	e.logger.Info("HTTP engine started")
	return nil
}

// Stop releases idle connections
func (e *HTTPEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		e.client.CloseIdleConnections()
		e.client = nil
	}
	return nil
}

// FetchPage performs a GET and parses the response
func (e *HTTPEngine) FetchPage(ctx context.Context, rawURL string) (RenderedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	return e.do(req)
}

// Cookies returns every cookie set by the target during this session
func (e *HTTPEngine) Cookies(ctx context.Context) ([]Cookie, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.recorder == nil {
		return nil, ErrEngineNotStarted
	}
	return e.recorder.snapshot(), nil
}

// ResetSession replaces the cookie jar and re-seeds the configured cookies
func (e *HTTPEngine) ResetSession(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return ErrEngineNotStarted
	}
	e.recorder.clear()
	return e.resetJarLocked()
}

func (e *HTTPEngine) resetJarLocked() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return err
	}
	if len(e.config.Cookies) > 0 {
		target, err := url.Parse(e.config.TargetURL)
		if err != nil || target.Host == "" {
			return fmt.Errorf("cookies need a target url: %w", ErrMalformedURL)
		}
		names := make([]string, 0, len(e.config.Cookies))
		for name := range e.config.Cookies {
			names = append(names, name)
		}
		sort.Strings(names)
		var cookies []*http.Cookie
		for _, name := range names {
			c := &http.Cookie{Name: name, Value: e.config.Cookies[name], Path: "/"}
			cookies = append(cookies, c)
			e.recorder.record(target, c)
		}
		jar.SetCookies(&url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/"}, cookies)
	}
	e.client.Jar = jar
	return nil
}

func (e *HTTPEngine) timeout() time.Duration {
	if e.config.RequestTimeout > 0 {
		return e.config.RequestTimeout
	}
	return defaultRequestTimeout
}

func (e *HTTPEngine) do(req *http.Request) (RenderedPage, error) {
	e.mu.RLock()
	client := e.client
	e.mu.RUnlock()
	if client == nil {
		return nil, ErrEngineNotStarted
	}

	if e.config.UserAgent != "" {
		req.Header.Set("User-Agent", e.config.UserAgent)
	}
	for k, v := range e.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &HTTPStatusError{URL: final, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", final, err)
	}
	return e.parse(resp.Request.URL, doc), nil
}

func (e *HTTPEngine) parse(pageURL *url.URL, doc *goquery.Document) RenderedPage {
	p := &staticPage{url: pageURL.String()}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		p.anchors = append(p.anchors, href)
	})

	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		p.forms = append(p.forms, parseForm(e, pageURL, s))
	})

	doc.Find("script, style, noscript, template").Remove()
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	p.text = strings.Join(strings.Fields(body.Text()), " ")
	return p
}

// httpField is a form control with the default value it would submit
type httpField struct {
	desc    InputDescriptor
	value   string
	include bool
}

type httpForm struct {
	engine *HTTPEngine
	action *url.URL
	method string
	fields []httpField
	submit int
	inputs []InputDescriptor
}

func parseForm(e *HTTPEngine, pageURL *url.URL, s *goquery.Selection) *httpForm {
	f := &httpForm{engine: e, action: pageURL, method: http.MethodGet, submit: -1}
	if action, ok := s.Attr("action"); ok && strings.TrimSpace(action) != "" {
		if ref, err := url.Parse(strings.TrimSpace(action)); err == nil {
			f.action = pageURL.ResolveReference(ref)
		}
	}
	if strings.EqualFold(strings.TrimSpace(s.AttrOr("method", "")), http.MethodPost) {
		f.method = http.MethodPost
	}

	s.Find("input, textarea, button, select").Each(func(_ int, el *goquery.Selection) {
		tag := goquery.NodeName(el)
		typ := el.AttrOr("type", "")
		desc := InputDescriptor{
			Name: el.AttrOr("name", ""),
			Type: typ,
			Kind: ClassifyInput(tag, typ),
		}
		field := httpField{desc: desc, include: true}
		switch tag {
		case "textarea":
			field.value = el.Text()
		case "select":
			opt := el.Find("option[selected]").First()
			if opt.Length() == 0 {
				opt = el.Find("option").First()
			}
			field.value = opt.AttrOr("value", strings.TrimSpace(opt.Text()))
		default:
			field.value = el.AttrOr("value", "")
			switch strings.ToLower(typ) {
			case "checkbox", "radio":
				_, field.include = el.Attr("checked")
			case "file", "reset":
				field.include = false
			}
		}
		if desc.IsSubmit() {
			field.include = false
			if f.submit < 0 {
				f.submit = len(f.fields)
			}
		}
		f.fields = append(f.fields, field)
		f.inputs = append(f.inputs, desc)
	})
	return f
}

func (f *httpForm) Inputs() []InputDescriptor { return f.inputs }

// Submit encodes the defaults overridden by values plus the first submit
// control, the way a browser click on that control would
func (f *httpForm) Submit(ctx context.Context, values map[string]string) (RenderedPage, error) {
	if f.submit < 0 {
		return nil, ErrMissingSubmitControl
	}

	data := url.Values{}
	for i, field := range f.fields {
		name := field.desc.Name
		if name == "" {
			continue
		}
		if v, ok := values[name]; ok && !field.desc.IsSubmit() {
			data.Set(name, v)
			continue
		}
		if field.include || i == f.submit {
			data.Add(name, field.value)
		}
	}

	target := *f.action
	target.Fragment = ""
	var (
		req *http.Request
		err error
	)
	if f.method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(data.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		target.RawQuery = data.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	}
	if err != nil {
		return nil, err
	}
	return f.engine.do(req)
}

// cookieRecorder observes Set-Cookie headers so cookie domain and path can be
// reported; the jar itself only exposes name and value
type cookieRecorder struct {
	next    http.RoundTripper
	mu      sync.Mutex
	cookies map[cookieKey]Cookie
}

func (r *cookieRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	for _, c := range resp.Cookies() {
		r.record(req.URL, c)
	}
	return resp, nil
}

func (r *cookieRecorder) record(from *url.URL, c *http.Cookie) {
	rec := Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   strings.ToLower(strings.TrimPrefix(c.Domain, ".")),
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HttpOnly,
	}
	if rec.Domain == "" {
		rec.Domain = strings.ToLower(from.Hostname())
	}
	if rec.Path == "" || !strings.HasPrefix(rec.Path, "/") {
		rec.Path = defaultCookiePath(from.Path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c.MaxAge < 0 {
		delete(r.cookies, rec.key())
		return
	}
	r.cookies[rec.key()] = rec
}

func (r *cookieRecorder) snapshot() []Cookie {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Cookie, 0, len(r.cookies))
	for _, c := range r.cookies {
		out = append(out, c)
	}
	return out
}

func (r *cookieRecorder) clear() {
	r.mu.Lock()
	r.cookies = make(map[cookieKey]Cookie)
	r.mu.Unlock()
}

// defaultCookiePath is the directory of the request path (RFC 6265 5.1.4)
func defaultCookiePath(p string) string {
	i := strings.LastIndex(p, "/")
	if p == "" || p[0] != '/' || i == 0 {
		return "/"
	}
	return p[:i]
}
