/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: session_test.go
Description: Tests for session wiring, configuration validation and engine selection.
*/

package web_test

import (
	"context"
	"testing"
	"time"

	"github.com/kleascm/akaylee-recon/pkg/web"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		config web.SessionConfig
		ok     bool
	}{
		{"minimal", web.SessionConfig{StartURL: "http://x/"}, true},
		{"empty start", web.SessionConfig{}, false},
		{"relative start", web.SessionConfig{StartURL: "/index"}, false},
		{"negative interval", web.SessionConfig{StartURL: "http://x/", MinRequestInterval: -time.Second}, false},
		{"negative workers", web.SessionConfig{StartURL: "http://x/", Workers: -1}, false},
		{"login without suffix", web.SessionConfig{StartURL: "http://x/", LoginURL: "http://x/login"}, false},
		{"login", web.SessionConfig{StartURL: "http://x/", LoginURL: "http://x/login", SuccessSuffix: "home"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewSessionRejectsBadInput(t *testing.T) {
	_, err := web.NewSession(nil, web.SessionConfig{StartURL: "http://x/"}, quietLogger())
	assert.Error(t, err)

	_, err = web.NewSession(newFakeSite(), web.SessionConfig{}, quietLogger())
	assert.Error(t, err)
}

func TestSessionLifecycle(t *testing.T) {
	site := newFakeSite()
	session, err := web.NewSession(site, web.SessionConfig{StartURL: "http://x/", MinRequestInterval: time.Millisecond}, quietLogger())
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, time.Millisecond, session.MinimumRequestInterval())
	session.SetMinimumRequestInterval(0)
	assert.Zero(t, session.MinimumRequestInterval())

	require.NoError(t, session.Start(context.Background()))
	assert.True(t, site.started)
	require.NoError(t, session.Close())
	assert.False(t, site.started)
}

func TestSessionAuthenticate(t *testing.T) {
	site := loginSite("admin", "pw")
	config := web.SessionConfig{
		StartURL:      "http://x/",
		LoginURL:      "http://x/login.php",
		Username:      "admin",
		Password:      "pw",
		SuccessSuffix: "index.php",
	}
	session, err := web.NewSession(site, config, quietLogger())
	require.NoError(t, err)

	ok, err := session.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	config.Password = "wrong"
	session, err = web.NewSession(site, config, quietLogger())
	require.NoError(t, err)
	ok, err = session.Authenticate(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionAuthenticateWithoutLogin(t *testing.T) {
	site := newFakeSite()
	session, err := web.NewSession(site, web.SessionConfig{StartURL: "http://x/"}, quietLogger())
	require.NoError(t, err)

	ok, err := session.Authenticate(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, site.totalFetches())
}

func TestSessionCrawlThenFuzz(t *testing.T) {
	form := &fakeForm{
		inputs: []web.InputDescriptor{textInput("q"), submitInput("go")},
		submit: func(values map[string]string) string { return "http://x/results" },
	}
	site := newFakeSite().
		add("http://x/", &fakePage{anchors: []string{"/search", "/static"}}).
		add("http://x/search", &fakePage{forms: []*fakeForm{form}}).
		add("http://x/static", &fakePage{forms: []*fakeForm{{inputs: []web.InputDescriptor{textInput("x")}}}}).
		add("http://x/results", &fakePage{text: "Warning: mysql_fetch_array()"})

	config := web.SessionConfig{
		StartURL:    "http://x/",
		Keywords:    []string{"mysql_fetch_array"},
		FuzzVectors: []string{"'", "\""},
	}
	session, err := web.NewSession(site, config, quietLogger())
	require.NoError(t, err)

	stats, err := session.Crawl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Fetched)

	results, err := session.FuzzForms(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	bySkip := map[bool]web.FuzzResult{}
	for _, r := range results {
		bySkip[r.Skipped] = r
	}
	assert.Equal(t, 2, bySkip[false].Submissions)
	assert.Equal(t, "http://x/static", bySkip[true].Form.Page.String())

	snap := session.Snapshot()
	assert.Equal(t, []web.CanonicalURL{mustCanonical("http://x/results")}, snap.Leaks["mysql_fetch_array"])
}

func TestSessionGuessPagesDefaults(t *testing.T) {
	site := newFakeSite().add("http://x/app/admin", &fakePage{})
	config := web.SessionConfig{StartURL: "http://x/app/", GuessPaths: []string{"admin", "backup"}}
	session, err := web.NewSession(site, config, quietLogger())
	require.NoError(t, err)

	found, err := session.GuessPages(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, []web.CanonicalURL{mustCanonical("http://x/app/admin")}, found)

	found, err = session.GuessPages(context.Background(), "http://x/", []string{})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSessionProbeCredentials(t *testing.T) {
	site := loginSite("root", "toor")
	config := web.SessionConfig{StartURL: "http://x/", LoginURL: "http://x/login.php", SuccessSuffix: "index.php"}
	session, err := web.NewSession(site, config, quietLogger())
	require.NoError(t, err)

	found, err := session.ProbeCredentials(context.Background(), []string{"root", "admin"}, []string{"toor"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, []web.CredentialPair{{Username: "root", Password: "toor"}}, found)
	assert.Equal(t, found, session.Snapshot().Credentials)

	bare, err := web.NewSession(site, web.SessionConfig{StartURL: "http://x/"}, quietLogger())
	require.NoError(t, err)
	_, err = bare.ProbeCredentials(context.Background(), []string{"a"}, []string{"b"}, "", "")
	assert.Error(t, err)
}

func TestSessionLogsDiscoveries(t *testing.T) {
	logger, hook := test.NewNullLogger()
	site := newFakeSite().add("http://x/", &fakePage{text: "api_key=123", alerts: []string{"xss"}})
	session, err := web.NewSession(site, web.SessionConfig{StartURL: "http://x/", Keywords: []string{"api_key"}}, logger)
	require.NoError(t, err)

	_, err = session.Crawl(context.Background())
	require.NoError(t, err)

	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
		if entry.Message == "Sensitive keyword leaked" {
			assert.Equal(t, "api_key", entry.Data["keyword"])
			assert.Equal(t, session.ID, entry.Data["session"])
		}
	}
	assert.Contains(t, messages, "Sensitive keyword leaked")
	assert.Contains(t, messages, "Script alert raised")
	assert.Contains(t, messages, "Crawl finished")
}

func TestNewEngine(t *testing.T) {
	engine, err := web.NewEngine(web.EngineConfig{}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &web.ChromeDPEngine{}, engine)

	engine, err = web.NewEngine(web.EngineConfig{Kind: "HTTP"}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &web.HTTPEngine{}, engine)

	_, err = web.NewEngine(web.EngineConfig{Kind: "lynx"}, quietLogger())
	assert.Error(t, err)
}

func TestParseKeyValues(t *testing.T) {
	got := web.ParseKeyValues([]string{
		"session=abc",
		"X-Token: secret",
		"a=b=c",
		"novalue",
		"=empty",
	})
	assert.Equal(t, map[string]string{
		"session": "abc",
		"X-Token": "secret",
		"a":       "b=c",
	}, got)
}
