/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: text.go
Description: Console rendering of a report: labelled sections for pages and parameters, forms,
cookies, leaks, alerts and credentials.
*/

package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

type palette struct {
	header *color.Color
	label  *color.Color
	value  *color.Color
	danger *color.Color
	muted  *color.Color
}

func newPalette(colors bool) palette {
	p := palette{
		header: color.New(color.FgCyan, color.Bold),
		label:  color.New(color.FgBlue),
		value:  color.New(color.FgGreen),
		danger: color.New(color.FgRed, color.Bold),
		muted:  color.New(color.FgHiBlack),
	}
	if !colors {
		for _, c := range []*color.Color{p.header, p.label, p.value, p.danger, p.muted} {
			c.DisableColor()
		}
	} else {
		for _, c := range []*color.Color{p.header, p.label, p.value, p.danger, p.muted} {
			c.EnableColor()
		}
	}
	return p
}

// WriteText renders r for a terminal
func WriteText(w io.Writer, r *Report, colors bool) error {
	p := newPalette(colors)
	tw := &textWriter{w: w}
	s := r.Snapshot

	tw.printf("%s\n", p.header.Sprintf("%s (%s)", r.Title, r.Target))
	tw.printf("%s %s  %s %s\n", p.label.Sprint("session:"), r.SessionID, p.label.Sprint("duration:"), r.Duration.Round(time.Millisecond))
	if r.Crawl != nil {
		tw.printf("%s fetched=%d failed=%d depth=%d\n", p.label.Sprint("crawl:"), r.Crawl.Fetched, r.Crawl.Failed, r.Crawl.Depth)
	}

	tw.section(p, "Pages", len(s.Pages))
	for _, page := range s.Pages {
		if len(page.Params) > 0 {
			tw.printf("  %s %s\n", page.URL, p.muted.Sprintf("?%s", strings.Join(page.Params, ", ")))
		} else {
			tw.printf("  %s\n", page.URL)
		}
	}

	if len(r.Guessed) > 0 {
		tw.section(p, "Guessed pages", len(r.Guessed))
		for _, u := range r.Guessed {
			tw.printf("  %s\n", u)
		}
	}

	tw.section(p, "Forms", r.FormCount())
	for _, group := range r.FormsByPage() {
		tw.printf("  %s\n", group.Page)
		for _, form := range group.Forms {
			names := make([]string, 0, len(form.Inputs))
			for _, in := range form.Inputs {
				names = append(names, fmt.Sprintf("%s:%s", displayName(in.Name), in.Kind))
			}
			tw.printf("    #%d %s\n", form.Index, strings.Join(names, " "))
		}
	}

	tw.section(p, "Cookies", len(s.Cookies))
	for _, c := range s.Cookies {
		tw.printf("  %s=%s %s\n", p.value.Sprint(c.Name), c.Value, p.muted.Sprintf("(%s%s)", c.Domain, c.Path))
	}

	if len(r.Fuzz) > 0 {
		tw.section(p, "Fuzzed forms", len(r.Fuzz))
		for _, res := range r.Fuzz {
			status := fmt.Sprintf("submissions=%d failures=%d", res.Submissions, res.Failures)
			if res.Skipped {
				status = p.muted.Sprintf("skipped: %s", res.Reason)
			}
			tw.printf("  %s #%d %s\n", res.Form.Page, res.Form.Index, status)
		}
	}

	tw.section(p, "Sensitive data", len(s.Leaks))
	for _, leak := range r.Leaks() {
		tw.printf("  %s\n", p.danger.Sprint(leak.Keyword))
		for _, page := range leak.Pages {
			tw.printf("    %s\n", page)
		}
	}

	tw.section(p, "Alerts", r.AlertCount())
	for _, group := range r.Alerts() {
		tw.printf("  %s\n", group.Page)
		for _, text := range group.Alerts {
			tw.printf("    %s\n", p.danger.Sprint(text))
		}
	}

	tw.section(p, "Credentials", len(s.Credentials))
	for _, pair := range s.Credentials {
		tw.printf("  %s / %s\n", p.danger.Sprint(pair.Username), p.danger.Sprint(pair.Password))
	}
	return tw.err
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}

// textWriter keeps the first write error
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) section(p palette, title string, count int) {
	t.printf("\n%s %s\n", p.header.Sprint(title), p.muted.Sprintf("(%d)", count))
}
