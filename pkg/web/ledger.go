/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: ledger.go
Description: DiscoveryLedger, the aggregation state of one crawl session. Holds the visited set,
query-parameter index, forms, cookies, leaks, alerts and successful credentials. All writes are
serialized, and a page observation is applied in a single critical section.
*/

package web

import (
	"sort"
	"sync"
)

// DiscoveredPage is a canonical URL plus every query parameter name observed on
// any fetched variant of it
type DiscoveredPage struct {
	URL    CanonicalURL `json:"url"`
	Params []string     `json:"params"`
}

// Cookie is a cookie as reported by the browser engine
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"http_only,omitempty"`
}

type cookieKey struct {
	name, domain, path string
}

func (c Cookie) key() cookieKey { return cookieKey{c.Name, c.Domain, c.Path} }

// FormRecord describes one form found on a page
type FormRecord struct {
	Page   CanonicalURL      `json:"page"`
	Index  int               `json:"index"`
	Inputs []InputDescriptor `json:"inputs"`
}

// SubmitControl returns the first submit control of the form
func (f FormRecord) SubmitControl() (InputDescriptor, bool) {
	for _, in := range f.Inputs {
		if in.IsSubmit() {
			return in, true
		}
	}
	return InputDescriptor{}, false
}

// CredentialPair is a username/password combination that logged in
type CredentialPair struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PageObservation is everything learnt from one fetch or submission. The ledger
// applies it atomically. Visited, when set, is added to the visited set and its
// RawQuery to the parameter index. Forms, leaks and alerts belong to Page, the
// canonical final URL; SetForms replaces the page's form list even when empty.
type PageObservation struct {
	Visited  CanonicalURL
	RawQuery string
	Page     CanonicalURL
	Forms    []FormRecord
	SetForms bool
	Cookies  []Cookie
	Leaks    []string
	Alerts   []string
}

// DiscoveryLedger owns all discovery state for one session
type DiscoveryLedger struct {
	mu sync.RWMutex

	visited     map[CanonicalURL]struct{}
	pages       map[CanonicalURL]*pageEntry
	forms       map[CanonicalURL][]FormRecord
	cookies     map[cookieKey]Cookie
	leaks       map[string]map[CanonicalURL]struct{}
	alerts      map[CanonicalURL][]string
	credentials map[CredentialPair]struct{}
	credOrder   []CredentialPair
}

type pageEntry struct {
	params  []string
	queries map[string]struct{}
}

// NewDiscoveryLedger creates an empty ledger
func NewDiscoveryLedger() *DiscoveryLedger {
	return &DiscoveryLedger{
		visited:     make(map[CanonicalURL]struct{}),
		pages:       make(map[CanonicalURL]*pageEntry),
		forms:       make(map[CanonicalURL][]FormRecord),
		cookies:     make(map[cookieKey]Cookie),
		leaks:       make(map[string]map[CanonicalURL]struct{}),
		alerts:      make(map[CanonicalURL][]string),
		credentials: make(map[CredentialPair]struct{}),
	}
}

// Claim atomically marks u visited. It returns false if u was already present,
// in which case the caller must not fetch it.
func (l *DiscoveryLedger) Claim(u CanonicalURL) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.visited[u]; ok {
		return false
	}
	l.visited[u] = struct{}{}
	return true
}

// HasVisited reports whether u is in the visited set
func (l *DiscoveryLedger) HasVisited(u CanonicalURL) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.visited[u]
	return ok
}

// VisitedCount returns the size of the visited set
func (l *DiscoveryLedger) VisitedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.visited)
}

// Commit applies an observation in one critical section and returns the
// keywords that were newly recorded for obs.Page
func (l *DiscoveryLedger) Commit(obs PageObservation) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !obs.Visited.IsZero() {
		l.visited[obs.Visited] = struct{}{}
		l.recordParamsLocked(obs.Visited, obs.RawQuery)
	}
	l.mergeCookiesLocked(obs.Cookies)
	if obs.Page.IsZero() {
		return nil
	}
	if obs.SetForms {
		l.forms[obs.Page] = append([]FormRecord(nil), obs.Forms...)
	}
	var fresh []string
	for _, kw := range obs.Leaks {
		if l.recordLeakLocked(kw, obs.Page) {
			fresh = append(fresh, kw)
		}
	}
	if len(obs.Alerts) > 0 {
		l.alerts[obs.Page] = append(l.alerts[obs.Page], obs.Alerts...)
	}
	return fresh
}

// recordParamsLocked adds the parameter names of rawQuery to the page index
func (l *DiscoveryLedger) recordParamsLocked(u CanonicalURL, rawQuery string) {
	entry, ok := l.pages[u]
	if !ok {
		entry = &pageEntry{queries: make(map[string]struct{})}
		l.pages[u] = entry
	}
	if rawQuery == "" {
		return
	}
	if _, seen := entry.queries[rawQuery]; seen {
		return
	}
	entry.queries[rawQuery] = struct{}{}
	entry.params = append(entry.params, QueryParamNames(rawQuery)...)
}

// mergeCookiesLocked keys cookies by (name, domain, path); a later value wins
func (l *DiscoveryLedger) mergeCookiesLocked(cookies []Cookie) {
	for _, c := range cookies {
		l.cookies[c.key()] = c
	}
}

// recordLeakLocked returns false if the (keyword, page) pair was known
func (l *DiscoveryLedger) recordLeakLocked(keyword string, page CanonicalURL) bool {
	set, ok := l.leaks[keyword]
	if !ok {
		set = make(map[CanonicalURL]struct{})
		l.leaks[keyword] = set
	}
	if _, dup := set[page]; dup {
		return false
	}
	set[page] = struct{}{}
	return true
}

// RecordCredential stores a successful login pair
func (l *DiscoveryLedger) RecordCredential(pair CredentialPair) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.credentials[pair]; ok {
		return
	}
	l.credentials[pair] = struct{}{}
	l.credOrder = append(l.credOrder, pair)
}

// Forms returns every recorded form, ordered by page then index
func (l *DiscoveryLedger) Forms() []FormRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []FormRecord
	for _, page := range sortedURLs(l.forms) {
		out = append(out, l.forms[page]...)
	}
	return out
}

// Cookies returns the cookie set
func (l *DiscoveryLedger) Cookies() []Cookie {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Cookie, 0, len(l.cookies))
	for _, c := range l.cookies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Domain != out[j].Domain {
			return out[i].Domain < out[j].Domain
		}
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Snapshot is a sorted, detached copy of the ledger for reporting
type Snapshot struct {
	Visited     []CanonicalURL                `json:"visited"`
	Pages       []DiscoveredPage              `json:"pages"`
	Forms       map[CanonicalURL][]FormRecord `json:"forms"`
	Cookies     []Cookie                      `json:"cookies"`
	Leaks       map[string][]CanonicalURL     `json:"leaks"`
	Alerts      map[CanonicalURL][]string     `json:"alerts"`
	Credentials []CredentialPair              `json:"credentials"`
}

// Snapshot copies the current state
func (l *DiscoveryLedger) Snapshot() Snapshot {
	cookies := l.Cookies()

	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Snapshot{
		Visited:     sortedURLs(l.visited),
		Forms:       make(map[CanonicalURL][]FormRecord, len(l.forms)),
		Cookies:     cookies,
		Leaks:       make(map[string][]CanonicalURL, len(l.leaks)),
		Alerts:      make(map[CanonicalURL][]string, len(l.alerts)),
		Credentials: append([]CredentialPair(nil), l.credOrder...),
	}
	for _, u := range sortedURLs(l.pages) {
		s.Pages = append(s.Pages, DiscoveredPage{
			URL:    u,
			Params: append([]string(nil), l.pages[u].params...),
		})
	}
	for page, forms := range l.forms {
		s.Forms[page] = append([]FormRecord(nil), forms...)
	}
	for kw, set := range l.leaks {
		s.Leaks[kw] = sortedURLs(set)
	}
	for page, alerts := range l.alerts {
		s.Alerts[page] = append([]string(nil), alerts...)
	}
	return s
}

func sortedURLs[V any](m map[CanonicalURL]V) []CanonicalURL {
	out := make([]CanonicalURL, 0, len(m))
	for u := range m {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
