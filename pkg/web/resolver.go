/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: resolver.go
Description: URL canonicalization and same-origin link resolution. Turns raw href attributes into
canonical absolute URLs (scheme, host and dot-normalized path) or rejects them as not a link.
*/

package web

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Origin is the (scheme, authority) pair used for scoping
type Origin struct {
	Scheme string `json:"scheme"`
	Host   string `json:"host"`
}

func (o Origin) String() string { return o.Scheme + "://" + o.Host }

// CanonicalURL is scheme + authority + path with query and fragment removed.
// Scheme and host are lower-cased, default ports dropped, and the path has its
// dot-segments resolved. Values are comparable and safe to use as map keys.
type CanonicalURL struct {
	Scheme string `json:"scheme"`
	Host   string `json:"host"`
	Path   string `json:"path"`
}

func (c CanonicalURL) String() string {
	if c.Scheme == "" && c.Host == "" {
		return c.Path
	}
	return c.Scheme + "://" + c.Host + c.Path
}

// Origin returns the scheme and authority of the URL
func (c CanonicalURL) Origin() Origin {
	return Origin{Scheme: c.Scheme, Host: c.Host}
}

// IsZero reports whether the URL is unset
func (c CanonicalURL) IsZero() bool { return c == CanonicalURL{} }

// MarshalText renders the URL as its string form, so it works as a JSON map key
func (c CanonicalURL) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// ParseCanonical parses an absolute http(s) URL and canonicalizes it
func ParseCanonical(raw string) (CanonicalURL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return CanonicalURL{}, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if !isWebScheme(u.Scheme) || u.Host == "" {
		return CanonicalURL{}, fmt.Errorf("%w: %q is not an absolute web URL", ErrMalformedURL, raw)
	}
	return Canonicalize(u), nil
}

// Canonicalize strips query, fragment and user info from u and normalizes the rest
func Canonicalize(u *url.URL) CanonicalURL {
	// ResolveReference removes dot-segments even for absolute references
	clean := (&url.URL{}).ResolveReference(&url.URL{
		Scheme:  u.Scheme,
		Host:    u.Host,
		Path:    u.Path,
		RawPath: u.RawPath,
	})
	scheme := strings.ToLower(clean.Scheme)
	p := clean.EscapedPath()
	if p == "" {
		p = "/"
	}
	return CanonicalURL{
		Scheme: scheme,
		Host:   normalizeHost(scheme, clean.Host),
		Path:   p,
	}
}

// Link is a resolved href: the canonical URL used for scoping and dedup, and
// the absolute URL to request, which keeps the query string
type Link struct {
	Canonical CanonicalURL
	Target    string
}

// Resolve turns an href found on pageURL into a canonical same-origin URL.
// ok is false for anything that is not a navigable in-scope link: non-web
// schemes, off-origin URLs, in-page fragments, self references and malformed
// input. Callers skip those silently.
func Resolve(pageURL, href string) (CanonicalURL, bool) {
	link, ok := ResolveLink(pageURL, href)
	return link.Canonical, ok
}

// ResolveLink is Resolve that also returns the request target
func ResolveLink(pageURL, href string) (Link, bool) {
	base, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || !isWebScheme(base.Scheme) || base.Host == "" {
		return Link{}, false
	}
	pageOrigin := Canonicalize(base).Origin()

	href = strings.TrimSpace(href)
	if href == "" || href == "." || strings.HasPrefix(href, "#") {
		return Link{}, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return Link{}, false
	}

	var target *url.URL
	if ref.Scheme != "" {
		// absolute URL: web scheme only
		if !isWebScheme(ref.Scheme) || ref.Host == "" {
			return Link{}, false
		}
		target = ref
	} else {
		// protocol-relative, root-relative and path-relative references
		target = base.ResolveReference(ref)
	}

	c := Canonicalize(target)
	if c.Origin() != pageOrigin {
		return Link{}, false
	}
	request := *target
	request.Fragment, request.RawFragment = "", ""
	request.User = nil
	return Link{Canonical: c, Target: request.String()}, true
}

// SameOrigin reports whether two canonical URLs share scheme and authority
func SameOrigin(a, b CanonicalURL) bool {
	return a.Origin() == b.Origin()
}

// QueryParamNames splits a raw query string into parameter names, in order and
// with duplicates kept. A pair without '=' is treated as a bare name.
func QueryParamNames(rawQuery string) []string {
	if rawQuery == "" {
		return nil
	}
	var names []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name, _, _ := strings.Cut(pair, "=")
		if name == "" {
			continue
		}
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		names = append(names, name)
	}
	return names
}

func isWebScheme(scheme string) bool {
	return strings.HasPrefix(strings.ToLower(scheme), "http")
}

func normalizeHost(scheme, host string) string {
	host = strings.ToLower(host)
	h, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		if strings.Contains(h, ":") {
			return "[" + h + "]"
		}
		return h
	}
	return host
}
