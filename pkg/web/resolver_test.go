/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: resolver_test.go
Description: Tests for URL canonicalization, link resolution and query parameter extraction.
*/

package web_test

import (
	"encoding/json"
	"testing"

	"github.com/kleascm/akaylee-recon/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCanonical(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"http://x/a?q=1#frag", "http://x/a"},
		{"HTTP://Example.COM:80/Path", "http://example.com/Path"},
		{"https://example.com:443", "https://example.com/"},
		{"http://example.com:8080/a/./b/../c", "http://example.com:8080/a/c"},
		{"http://user:pw@example.com/a", "http://example.com/a"},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := web.ParseCanonical(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestParseCanonicalRejectsNonWebURLs(t *testing.T) {
	for _, raw := range []string{"", "/relative", "mailto:a@b.c", "ftp://x/a", "http://", "http://x/%zz"} {
		_, err := web.ParseCanonical(raw)
		assert.ErrorIs(t, err, web.ErrMalformedURL, raw)
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	for _, raw := range []string{"http://x/a", "https://x:8443/a/b/", "http://x/a%20b"} {
		first, err := web.ParseCanonical(raw)
		require.NoError(t, err)
		second, err := web.ParseCanonical(first.String())
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestCanonicalMarshalsAsString(t *testing.T) {
	m := map[web.CanonicalURL]int{mustCanonical("http://x/a"): 1}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"http://x/a": 1}`, string(data))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		page string
		href string
		want string
		ok   bool
	}{
		{"absolute same origin", "http://x/a", "http://x/b?q=1", "http://x/b", true},
		{"root relative", "http://x/dir/a", "/b", "http://x/b", true},
		{"path relative sibling", "http://x/dir/a", "b", "http://x/dir/b", true},
		{"path relative under directory", "http://x/dir/", "b", "http://x/dir/b", true},
		{"dot segments", "http://x/dir/sub/a", "../b", "http://x/dir/b", true},
		{"protocol relative same host", "http://x/a", "//x/c", "http://x/c", true},
		{"query only", "http://x/a", "?id=2", "http://x/a", true},
		{"default port folded", "http://x/a", "http://X:80/c", "http://x/c", true},
		{"off origin host", "http://x/a", "http://y/a", "", false},
		{"off origin scheme", "http://x/a", "https://x/a", "", false},
		{"off origin port", "http://x/a", "http://x:8080/a", "", false},
		{"protocol relative other host", "http://x/a", "//y/c", "", false},
		{"fragment", "http://x/a", "#top", "", false},
		{"empty", "http://x/a", "", "", false},
		{"whitespace", "http://x/a", "   ", "", false},
		{"self", "http://x/a", ".", "", false},
		{"mailto", "http://x/a", "mailto:a@x", "", false},
		{"javascript", "http://x/a", "javascript:void(0)", "", false},
		{"malformed", "http://x/a", "http://x/%zz", "", false},
		{"bad page url", "not a url", "/b", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := web.Resolve(tc.page, tc.href)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got.String())
			}
		})
	}
}

func TestResolveResultIsCanonicalAndInScope(t *testing.T) {
	page := "http://x/dir/page?z=1"
	pageOrigin := mustCanonical(page).Origin()
	for _, href := range []string{"a", "/b", "../c", "./d/", "//x/e", "http://x/f#g", "?q"} {
		got, ok := web.Resolve(page, href)
		require.True(t, ok, href)
		assert.Equal(t, pageOrigin, got.Origin(), href)

		again, err := web.ParseCanonical(got.String())
		require.NoError(t, err)
		assert.Equal(t, got, again, href)
	}
}

func TestSameOrigin(t *testing.T) {
	assert.True(t, web.SameOrigin(mustCanonical("http://x/a"), mustCanonical("http://X:80/b")))
	assert.False(t, web.SameOrigin(mustCanonical("http://x/a"), mustCanonical("https://x/a")))
}

func TestQueryParamNames(t *testing.T) {
	assert.Nil(t, web.QueryParamNames(""))
	assert.Equal(t, []string{"a", "b", "a"}, web.QueryParamNames("a=1&b=2&a=3"))
	assert.Equal(t, []string{"flag", "x y"}, web.QueryParamNames("flag&x%20y=1"))
	assert.Equal(t, []string{"q"}, web.QueryParamNames("&&q=1&=2"))
}

func TestResolveLinkKeepsRequestTarget(t *testing.T) {
	link, ok := web.ResolveLink("http://x/a/", "c?x=1#frag")
	require.True(t, ok)
	assert.Equal(t, "http://x/a/c", link.Canonical.String())
	assert.Equal(t, "http://x/a/c?x=1", link.Target)

	link, ok = web.ResolveLink("http://x/a", "http://user:pw@x/b?k=v")
	require.True(t, ok)
	assert.Equal(t, "http://x/b?k=v", link.Target)
}
