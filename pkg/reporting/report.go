/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report.go
Description: Report model built from a session snapshot, with sorted views shared by the text,
JSON and HTML renderers.
*/

package reporting

import (
	"sort"
	"time"

	"github.com/kleascm/akaylee-recon/pkg/web"
)

// Report is everything a finished run produced
type Report struct {
	Title       string           `json:"title"`
	Version     string           `json:"version"`
	SessionID   string           `json:"session_id"`
	Target      string           `json:"target"`
	GeneratedAt time.Time        `json:"generated_at"`
	Duration    time.Duration    `json:"duration"`
	Crawl       *web.CrawlStats  `json:"crawl,omitempty"`
	Guessed     []string         `json:"guessed,omitempty"`
	Fuzz        []web.FuzzResult `json:"fuzz,omitempty"`
	Snapshot    web.Snapshot     `json:"snapshot"`
}

// PageForms groups the forms found on one page
type PageForms struct {
	Page  string
	Forms []web.FormRecord
}

// Leak is one keyword and the pages it appeared on
type Leak struct {
	Keyword string
	Pages   []string
}

// PageAlerts groups the alerts raised by one page
type PageAlerts struct {
	Page   string
	Alerts []string
}

// NewReport builds a report for session with the snapshot taken now
func NewReport(title, version string, session *web.Session) *Report {
	return &Report{
		Title:       title,
		Version:     version,
		SessionID:   session.ID,
		Target:      session.Config().StartURL,
		GeneratedAt: time.Now(),
		Duration:    time.Since(session.StartedAt),
		Snapshot:    session.Snapshot(),
	}
}

// SetGuessed records the pages found by guessing
func (r *Report) SetGuessed(found []web.CanonicalURL) {
	r.Guessed = r.Guessed[:0]
	for _, u := range found {
		r.Guessed = append(r.Guessed, u.String())
	}
}

// FormsByPage returns forms grouped by page in URL order
func (r *Report) FormsByPage() []PageForms {
	out := make([]PageForms, 0, len(r.Snapshot.Forms))
	for page, forms := range r.Snapshot.Forms {
		if len(forms) == 0 {
			continue
		}
		out = append(out, PageForms{Page: page.String(), Forms: forms})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out
}

// Leaks returns leaks in keyword order
func (r *Report) Leaks() []Leak {
	out := make([]Leak, 0, len(r.Snapshot.Leaks))
	for kw, pages := range r.Snapshot.Leaks {
		leak := Leak{Keyword: kw}
		for _, p := range pages {
			leak.Pages = append(leak.Pages, p.String())
		}
		out = append(out, leak)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out
}

// Alerts returns alerts grouped by page in URL order
func (r *Report) Alerts() []PageAlerts {
	out := make([]PageAlerts, 0, len(r.Snapshot.Alerts))
	for page, alerts := range r.Snapshot.Alerts {
		out = append(out, PageAlerts{Page: page.String(), Alerts: alerts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out
}

// FormCount is the number of forms across all pages
func (r *Report) FormCount() int {
	n := 0
	for _, forms := range r.Snapshot.Forms {
		n += len(forms)
	}
	return n
}

// AlertCount is the number of alerts across all pages
func (r *Report) AlertCount() int {
	n := 0
	for _, alerts := range r.Snapshot.Alerts {
		n += len(alerts)
	}
	return n
}
