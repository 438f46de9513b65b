/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Browser engine capability consumed by the crawl-and-fuzz core. Defines BrowserEngine,
RenderedPage, FormHandle and the tagged input descriptors that adapters attach at enumeration time.
*/

package web

import (
	"context"
	"strings"
)

// BrowserEngine abstracts the component that performs HTTP(S) requests, runs scripts
// and renders pages. The core never parses HTML or executes JavaScript itself.
type BrowserEngine interface {
	Start(ctx context.Context) error
	Stop() error
	// FetchPage retrieves the fully rendered page for url. A final status >= 400
	// is reported as *HTTPStatusError.
	FetchPage(ctx context.Context, url string) (RenderedPage, error)
	// Cookies returns every cookie currently held by the engine.
	Cookies(ctx context.Context) ([]Cookie, error)
}

// SessionResetter is implemented by engines that can drop their authenticated
// state. Initial cookies configured on the engine survive a reset.
type SessionResetter interface {
	ResetSession(ctx context.Context) error
}

// RenderedPage is a snapshot of a page after rendering
type RenderedPage interface {
	// URL is the raw final URL after redirects
	URL() string
	// Anchors returns raw href attributes in document order
	Anchors() []string
	Forms() []FormHandle
	// Text is the rendered visible text
	Text() string
	// Alerts returns the script alert texts raised while this page rendered
	Alerts() []string
}

// FormHandle is a live form that can be submitted any number of times
type FormHandle interface {
	Inputs() []InputDescriptor
	// Submit sets the given input values, triggers the form's submit control and
	// returns the resulting page. Inputs not named in values keep their defaults.
	Submit(ctx context.Context, values map[string]string) (RenderedPage, error)
}

// InputKind classifies a form control at enumeration time
type InputKind int

const (
	InputOther InputKind = iota
	InputText
	InputSubmit
)

func (k InputKind) String() string {
	switch k {
	case InputText:
		return "text"
	case InputSubmit:
		return "submit"
	default:
		return "other"
	}
}

// MarshalText renders the kind by name
func (k InputKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// InputDescriptor describes a single form control
type InputDescriptor struct {
	Name string    `json:"name"`
	Type string    `json:"type"`
	Kind InputKind `json:"kind"`
}

// IsSubmit reports whether the control submits its form
func (d InputDescriptor) IsSubmit() bool { return d.Kind == InputSubmit }

// IsPassword reports whether the control holds a password
func (d InputDescriptor) IsPassword() bool { return strings.EqualFold(d.Type, "password") }

// ClassifyInput maps an element tag and its type attribute onto an InputKind.
// Adapters call it while enumerating forms.
func ClassifyInput(tag, typ string) InputKind {
	tag = strings.ToLower(strings.TrimSpace(tag))
	typ = strings.ToLower(strings.TrimSpace(typ))
	switch tag {
	case "textarea":
		return InputText
	case "button":
		if typ == "" || typ == "submit" {
			return InputSubmit
		}
		return InputOther
	case "input":
		switch typ {
		case "submit", "image":
			return InputSubmit
		case "", "text", "password", "email", "search", "url", "tel", "number":
			return InputText
		}
	}
	return InputOther
}
