/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scanner.go
Description: Sensitive data detection over rendered page text. Case-insensitive keyword matching;
hits are recorded idempotently per keyword and URL when the fetcher commits the page.
*/

package web

import (
	"strings"
)

// SensitiveDataScanner looks for configured keywords in rendered text
type SensitiveDataScanner struct {
	keywords []string
	lowered  []string
}

// NewSensitiveDataScanner creates a scanner; blank keywords are ignored
func NewSensitiveDataScanner(keywords []string) *SensitiveDataScanner {
	s := &SensitiveDataScanner{}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		s.keywords = append(s.keywords, kw)
		s.lowered = append(s.lowered, strings.ToLower(kw))
	}
	return s
}

// Keywords returns the configured keywords
func (s *SensitiveDataScanner) Keywords() []string {
	return append([]string(nil), s.keywords...)
}

// Match returns the keywords that occur in text, in configuration order
func (s *SensitiveDataScanner) Match(text string) []string {
	if len(s.lowered) == 0 || text == "" {
		return nil
	}
	haystack := strings.ToLower(text)
	var hits []string
	for i, kw := range s.lowered {
		if strings.Contains(haystack, kw) {
			hits = append(hits, s.keywords[i])
		}
	}
	return hits
}

// Scan returns the keywords present in the rendered text of page. The hits are
// committed to the ledger with the rest of the page observation, which keeps one
// entry per (keyword, URL) pair.
func (s *SensitiveDataScanner) Scan(page RenderedPage) []string {
	return s.Match(page.Text())
}
