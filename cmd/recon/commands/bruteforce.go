/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: bruteforce.go
Description: bruteforce and scan commands.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/akaylee-recon/pkg/web"
	"github.com/spf13/cobra"
)

// RunBruteforce probes every username/password pair against the login form
func RunBruteforce(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	r, err := startRun(ctx, "bruteforce")
	if err != nil || r == nil {
		return err
	}
	if err := r.checkProbeConfig(); err != nil {
		return r.finish(err)
	}

	_, err = r.session.ProbeCredentials(ctx, r.lists.usernames, r.lists.passwords, "", "")
	r.newReport()
	return r.finish(err)
}

func (r *run) checkProbeConfig() error {
	config := r.session.Config()
	if config.LoginURL == "" || config.SuccessSuffix == "" {
		return fmt.Errorf("bruteforce needs --login-url and --success-suffix")
	}
	if len(r.lists.usernames) == 0 || len(r.lists.passwords) == 0 {
		return fmt.Errorf("bruteforce needs --usernames and --passwords, or --builtin")
	}
	return nil
}

// RunScan runs every stage: credential probing, authentication, page guessing,
// crawling from the target and every guessed page, then form fuzzing. Stages
// without input are skipped.
func RunScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	r, err := startRun(ctx, "scan")
	if err != nil || r == nil {
		return err
	}
	log := r.logger.GetLogger()

	if r.checkProbeConfig() == nil {
		if _, err := r.session.ProbeCredentials(ctx, r.lists.usernames, r.lists.passwords, "", ""); err != nil {
			if ctx.Err() != nil {
				return r.finish(err)
			}
			log.WithError(err).Warn("Credential probing stopped")
		}
	}

	if err := r.authenticate(ctx); err != nil {
		return r.finish(err)
	}

	var found []web.CanonicalURL
	if len(r.lists.paths) > 0 {
		found, err = r.session.GuessPages(ctx, "", nil)
		if err != nil {
			if ctx.Err() != nil {
				return r.finish(err)
			}
			log.WithError(err).Warn("Page guessing stopped on server error")
		}
	}

	stats, err := r.session.Crawl(ctx)
	for _, u := range found {
		if err != nil {
			break
		}
		var s web.CrawlStats
		s, err = r.session.CrawlFrom(ctx, u.String())
		stats.Merge(s)
	}
	if err != nil {
		report := r.newReport()
		report.Crawl = &stats
		report.SetGuessed(found)
		return r.finish(err)
	}

	var results []web.FuzzResult
	if len(r.lists.vectors) > 0 {
		results, err = r.session.FuzzForms(ctx)
	}

	report := r.newReport()
	report.Crawl = &stats
	report.SetGuessed(found)
	report.Fuzz = results
	return r.finish(err)
}
