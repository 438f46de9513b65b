/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: ledger_test.go
Description: Tests for the discovery ledger: visited claims, parameter index, cookie merge, leaks,
alerts, credentials and snapshots.
*/

package web_test

import (
	"sync"
	"testing"

	"github.com/kleascm/akaylee-recon/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerClaimIsAtomic(t *testing.T) {
	ledger := web.NewDiscoveryLedger()
	u := mustCanonical("http://x/a")

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		claims int
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ledger.Claim(u) {
				mu.Lock()
				claims++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, claims)
	assert.True(t, ledger.HasVisited(u))
	assert.Equal(t, 1, ledger.VisitedCount())
}

func TestLedgerRecordParams(t *testing.T) {
	ledger := web.NewDiscoveryLedger()
	u := mustCanonical("http://x/search")

	for _, q := range []string{"q=1&page=2", "q=1&page=2", "q=3&sort=asc", ""} {
		ledger.Commit(web.PageObservation{Visited: u, RawQuery: q})
	}

	snap := ledger.Snapshot()
	require.Len(t, snap.Pages, 1)
	assert.Equal(t, u, snap.Pages[0].URL)
	assert.Equal(t, []string{"q", "page", "q", "sort"}, snap.Pages[0].Params)
}

func TestLedgerCookiesKeyedByNameDomainPath(t *testing.T) {
	ledger := web.NewDiscoveryLedger()
	ledger.Commit(web.PageObservation{Cookies: []web.Cookie{
		{Name: "sid", Value: "1", Domain: "x", Path: "/"},
		{Name: "sid", Value: "2", Domain: "x", Path: "/admin"},
	}})
	ledger.Commit(web.PageObservation{Cookies: []web.Cookie{
		{Name: "sid", Value: "3", Domain: "x", Path: "/"},
	}})

	cookies := ledger.Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, "3", cookies[0].Value)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, "2", cookies[1].Value)
}

func TestLedgerLeaksAreIdempotent(t *testing.T) {
	ledger := web.NewDiscoveryLedger()
	a, b := mustCanonical("http://x/a"), mustCanonical("http://x/b")

	assert.Equal(t, []string{"ssn"}, ledger.Commit(web.PageObservation{Page: a, Leaks: []string{"ssn"}}))
	assert.Empty(t, ledger.Commit(web.PageObservation{Page: a, Leaks: []string{"ssn"}}))
	assert.Equal(t, []string{"ssn"}, ledger.Commit(web.PageObservation{Page: b, Leaks: []string{"ssn"}}))

	snap := ledger.Snapshot()
	assert.Equal(t, []web.CanonicalURL{a, b}, snap.Leaks["ssn"])
}

func TestLedgerCommit(t *testing.T) {
	ledger := web.NewDiscoveryLedger()
	visited := mustCanonical("http://x/login")
	final := mustCanonical("http://x/home")

	fresh := ledger.Commit(web.PageObservation{
		Visited:  visited,
		RawQuery: "next=home",
		Page:     final,
		Forms:    []web.FormRecord{{Page: final, Index: 0, Inputs: []web.InputDescriptor{textInput("q"), submitInput("go")}}},
		SetForms: true,
		Cookies:  []web.Cookie{{Name: "sid", Value: "1", Domain: "x", Path: "/"}},
		Leaks:    []string{"password"},
		Alerts:   []string{"1"},
	})
	assert.Equal(t, []string{"password"}, fresh)

	again := ledger.Commit(web.PageObservation{Page: final, Leaks: []string{"password"}, Alerts: []string{"2"}})
	assert.Empty(t, again)

	snap := ledger.Snapshot()
	assert.Equal(t, []web.CanonicalURL{visited}, snap.Visited)
	require.Len(t, snap.Pages, 1)
	assert.Equal(t, []string{"next"}, snap.Pages[0].Params)
	require.Len(t, snap.Forms[final], 1)
	assert.Len(t, snap.Cookies, 1)
	assert.Equal(t, []string{"1", "2"}, snap.Alerts[final])
}

// setForms commits a fetch observation carrying only a form list
func setForms(ledger *web.DiscoveryLedger, page web.CanonicalURL, forms ...web.FormRecord) {
	ledger.Commit(web.PageObservation{Page: page, Forms: forms, SetForms: true})
}

func TestLedgerSetFormsReplaces(t *testing.T) {
	ledger := web.NewDiscoveryLedger()
	page := mustCanonical("http://x/a")
	setForms(ledger, page, web.FormRecord{Page: page, Index: 0}, web.FormRecord{Page: page, Index: 1})
	setForms(ledger, page, web.FormRecord{Page: page, Index: 0})

	assert.Len(t, ledger.Forms(), 1)
}

func TestLedgerCommitWithoutSetFormsKeepsForms(t *testing.T) {
	ledger := web.NewDiscoveryLedger()
	page := mustCanonical("http://x/contact")
	setForms(ledger, page, web.FormRecord{Page: page, Index: 0})

	ledger.Commit(web.PageObservation{Page: page, Leaks: []string{"ssn"}})

	assert.Len(t, ledger.Forms(), 1)
}

func TestLedgerFormsOrderedByPage(t *testing.T) {
	ledger := web.NewDiscoveryLedger()
	b, a := mustCanonical("http://x/b"), mustCanonical("http://x/a")
	setForms(ledger, b, web.FormRecord{Page: b, Index: 0})
	setForms(ledger, a, web.FormRecord{Page: a, Index: 0}, web.FormRecord{Page: a, Index: 1})

	forms := ledger.Forms()
	require.Len(t, forms, 3)
	assert.Equal(t, a, forms[0].Page)
	assert.Equal(t, 1, forms[1].Index)
	assert.Equal(t, b, forms[2].Page)
}

func TestLedgerCredentialsDeduplicated(t *testing.T) {
	ledger := web.NewDiscoveryLedger()
	ledger.RecordCredential(web.CredentialPair{Username: "admin", Password: "pw1"})
	ledger.RecordCredential(web.CredentialPair{Username: "admin", Password: "pw1"})
	ledger.RecordCredential(web.CredentialPair{Username: "guest", Password: "pw2"})

	snap := ledger.Snapshot()
	assert.Equal(t, []web.CredentialPair{{"admin", "pw1"}, {"guest", "pw2"}}, snap.Credentials)
}

func TestLedgerCommitIgnoresEmptyAlerts(t *testing.T) {
	ledger := web.NewDiscoveryLedger()
	page := mustCanonical("http://x/a")
	ledger.Commit(web.PageObservation{Page: page})
	assert.Empty(t, ledger.Snapshot().Alerts)

	ledger.Commit(web.PageObservation{Page: page, Alerts: []string{"xss"}})
	assert.Equal(t, []string{"xss"}, ledger.Snapshot().Alerts[page])
}

func TestLedgerSnapshotIsDetached(t *testing.T) {
	ledger := web.NewDiscoveryLedger()
	page := mustCanonical("http://x/a")
	ledger.Commit(web.PageObservation{Page: page, Alerts: []string{"one"}})

	snap := ledger.Snapshot()
	snap.Alerts[page][0] = "changed"
	ledger.Commit(web.PageObservation{Page: page, Alerts: []string{"two"}})

	assert.Equal(t, []string{"one", "two"}, ledger.Snapshot().Alerts[page])
	assert.Len(t, snap.Alerts[page], 1)
}
