/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: chromedp_engine.go
Description: BrowserEngine backed by headless Chrome through chromedp. Pages are rendered with
JavaScript, alerts are captured from dialog events and accepted, and cookies are read from the
browser's storage.
*/

package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const defaultRequestTimeout = 30 * time.Second

// Page snapshot taken after every navigation
const snapshotScript = `(() => {
	const forms = Array.from(document.forms).map(f => ({
		inputs: Array.from(f.querySelectorAll('input, textarea, button, select')).map(el => ({
			tag: el.tagName.toLowerCase(),
			name: el.getAttribute('name') || '',
			type: el.getAttribute('type') || ''
		}))
	}));
	return {
		url: location.href,
		anchors: Array.from(document.querySelectorAll('a[href]')).map(a => a.getAttribute('href')),
		forms: forms,
		text: document.body ? document.body.innerText : ''
	};
})()`

const submitSelector = `input[type=submit], input[type=image], button:not([type]), button[type=submit]`

// Fills form %d with the JSON object %s and reports whether it has a submit control
const fillFormScript = `((index, values) => {
	const form = document.forms[index];
	if (!form) return false;
	for (const [name, value] of Object.entries(values)) {
		const el = form.elements.namedItem(name);
		if (!el) continue;
		if (el instanceof RadioNodeList) {
			if (el.length) el[0].value = value;
		} else {
			el.value = value;
		}
	}
	return form.querySelector('` + submitSelector + `') !== null;
})(%d, %s)`

const clickSubmitScript = `((index) => {
	document.forms[index].querySelector('` + submitSelector + `').click();
})(%d)`

type chromeSnapshot struct {
	URL     string   `json:"url"`
	Anchors []string `json:"anchors"`
	Forms   []struct {
		Inputs []struct {
			Tag  string `json:"tag"`
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"inputs"`
	} `json:"forms"`
	Text string `json:"text"`
}

// ChromeDPEngine drives one Chrome tab. Actions on the tab are serialized, so
// parallel crawl workers share it in turn. Dialogs opened during an action are
// attached to the page that action returns.
type ChromeDPEngine struct {
	config EngineConfig
	logger logrus.FieldLogger

	mu          sync.Mutex
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc

	alertMu sync.Mutex
	alerts  []string
}

// NewChromeDPEngine creates an engine; the browser starts on Start
func NewChromeDPEngine(config EngineConfig, logger logrus.FieldLogger) *ChromeDPEngine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ChromeDPEngine{config: config, logger: logger}
}

// Start launches Chrome, attaches the dialog listener and applies the
// configured headers and cookies
func (e *ChromeDPEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tab != nil {
		return nil
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", e.config.Headless), chromedp.Flag("ignore-certificate-errors", true))
	if e.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(e.config.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, tabCancel := chromedp.NewContext(allocCtx)

	chromedp.ListenTarget(tab, func(ev interface{}) {
		if d, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			e.alertMu.Lock()
			e.alerts = append(e.alerts, d.Message)
			e.alertMu.Unlock()
			go func() {
				if err := chromedp.Run(tab, page.HandleJavaScriptDialog(true)); err != nil {
					e.logger.WithError(err).Debug("Failed to accept dialog")
				}
			}()
		}
	})

	// the first Run allocates the browser and must use the tab context itself,
	// otherwise the browser dies with the derived timeout context
	if err := chromedp.Run(tab); err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("start chrome: %w", err)
	}

	startCtx, cancel := context.WithTimeout(tab, e.timeout())
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(startCtx, network.Enable(), e.applyState()); err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("start chrome: %w", err)
	}

	e.tab, e.tabCancel, e.allocCancel = tab, tabCancel, allocCancel
	e.logger.WithField("headless", e.config.Headless).Info("Chrome engine started")
	return nil
}

// Stop closes the tab and the browser
func (e *ChromeDPEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tabCancel != nil {
		e.tabCancel()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	e.tab, e.tabCancel, e.allocCancel = nil, nil, nil
	return nil
}

// FetchPage navigates to rawURL and snapshots the rendered page
func (e *ChromeDPEngine) FetchPage(ctx context.Context, rawURL string) (RenderedPage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tctx, done, err := e.actionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	e.drainAlerts()
	if err := navigate(tctx, rawURL); err != nil {
		return nil, err
	}
	return e.snapshot(tctx)
}

// Cookies reads every cookie the browser holds
func (e *ChromeDPEngine) Cookies(ctx context.Context) ([]Cookie, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tctx, done, err := e.actionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	var out []Cookie
	err = chromedp.Run(tctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		out = make([]Cookie, 0, len(cookies))
		for _, c := range cookies {
			out = append(out, Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
			})
		}
		return nil
	}))
	return out, err
}

// drainAlerts returns and clears captured dialog messages
func (e *ChromeDPEngine) drainAlerts() []string {
	e.alertMu.Lock()
	defer e.alertMu.Unlock()
	out := e.alerts
	e.alerts = nil
	return out
}

// ResetSession clears browser cookies and re-applies the configured ones
func (e *ChromeDPEngine) ResetSession(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tctx, done, err := e.actionContext(ctx)
	if err != nil {
		return err
	}
	defer done()

	return chromedp.Run(tctx, network.ClearBrowserCookies(), e.applyState())
}

func (e *ChromeDPEngine) applyState() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if len(e.config.Headers) > 0 {
			headers := make(network.Headers, len(e.config.Headers))
			for k, v := range e.config.Headers {
				headers[k] = v
			}
			if err := network.SetExtraHTTPHeaders(headers).Do(ctx); err != nil {
				return err
			}
		}
		if len(e.config.Cookies) == 0 {
			return nil
		}
		target, err := url.Parse(e.config.TargetURL)
		if err != nil || target.Hostname() == "" {
			return fmt.Errorf("cookies need a target url: %w", ErrMalformedURL)
		}
		for name, value := range e.config.Cookies {
			if err := network.SetCookie(name, value).WithDomain(target.Hostname()).WithPath("/").Do(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// actionContext bounds one tab action by the request timeout and the caller's
// ctx. Callers hold e.mu.
func (e *ChromeDPEngine) actionContext(ctx context.Context) (context.Context, func(), error) {
	if e.tab == nil {
		return nil, nil, ErrEngineNotStarted
	}
	tctx, cancel := context.WithTimeout(e.tab, e.timeout())
	stop := context.AfterFunc(ctx, cancel)
	return tctx, func() {
		stop()
		cancel()
	}, nil
}

func (e *ChromeDPEngine) timeout() time.Duration {
	if e.config.RequestTimeout > 0 {
		return e.config.RequestTimeout
	}
	return defaultRequestTimeout
}

func (e *ChromeDPEngine) snapshot(ctx context.Context) (RenderedPage, error) {
	var snap chromeSnapshot
	if err := chromedp.Run(ctx, chromedp.Evaluate(snapshotScript, &snap)); err != nil {
		return nil, fmt.Errorf("snapshot page: %w", err)
	}

	p := &staticPage{url: snap.URL, anchors: snap.Anchors, text: snap.Text, alerts: e.drainAlerts()}
	for i, f := range snap.Forms {
		form := &chromeForm{engine: e, pageURL: snap.URL, index: i}
		for _, in := range f.Inputs {
			form.inputs = append(form.inputs, InputDescriptor{
				Name: in.Name,
				Type: in.Type,
				Kind: ClassifyInput(in.Tag, in.Type),
			})
		}
		p.forms = append(p.forms, form)
	}
	return p, nil
}

// navigate runs the actions and maps a final status >= 400 to HTTPStatusError
func navigate(ctx context.Context, rawURL string, actions ...chromedp.Action) error {
	if len(actions) == 0 {
		actions = []chromedp.Action{chromedp.Navigate(rawURL)}
	}
	resp, err := chromedp.RunResponse(ctx, actions...)
	if err != nil {
		return err
	}
	if resp != nil && resp.Status >= 400 {
		return &HTTPStatusError{URL: resp.URL, StatusCode: int(resp.Status)}
	}
	return nil
}

// chromeForm re-opens its page on every submission
type chromeForm struct {
	engine  *ChromeDPEngine
	pageURL string
	index   int
	inputs  []InputDescriptor
}

func (f *chromeForm) Inputs() []InputDescriptor { return f.inputs }

func (f *chromeForm) Submit(ctx context.Context, values map[string]string) (RenderedPage, error) {
	e := f.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	tctx, done, err := e.actionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	e.drainAlerts()
	if err := navigate(tctx, f.pageURL); err != nil {
		return nil, err
	}
	// alerts raised by the form page itself belong to the fetch, not the submission
	e.drainAlerts()

	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	var hasSubmit bool
	if err := chromedp.Run(tctx, chromedp.Evaluate(fmt.Sprintf(fillFormScript, f.index, encoded), &hasSubmit)); err != nil {
		return nil, fmt.Errorf("fill form: %w", err)
	}
	if !hasSubmit {
		return nil, ErrMissingSubmitControl
	}

	if err := navigate(tctx, f.pageURL, chromedp.Evaluate(fmt.Sprintf(clickSubmitScript, f.index), nil)); err != nil {
		return nil, err
	}
	return e.snapshot(tctx)
}
