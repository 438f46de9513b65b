/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: crawl.go
Description: crawl, guess and fuzz commands.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/akaylee-recon/pkg/reporting"
	"github.com/kleascm/akaylee-recon/pkg/web"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func (r *run) newReport() *reporting.Report {
	r.report = reporting.NewReport("Akaylee Recon: "+r.command, Version, r.session)
	return r.report
}

// RunCrawl authenticates if configured and crawls the target
func RunCrawl(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	r, err := startRun(ctx, "crawl")
	if err != nil || r == nil {
		return err
	}

	if err = r.authenticate(ctx); err != nil {
		return r.finish(err)
	}
	stats, err := r.session.Crawl(ctx)
	r.newReport().Crawl = &stats
	return r.finish(err)
}

// RunGuess probes the path wordlist against the target
func RunGuess(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	r, err := startRun(ctx, "guess")
	if err != nil || r == nil {
		return err
	}
	if len(r.lists.paths) == 0 {
		return r.finish(fmt.Errorf("no candidate paths: pass --paths or --builtin"))
	}

	if err = r.authenticate(ctx); err != nil {
		return r.finish(err)
	}
	found, err := r.session.GuessPages(ctx, "", nil)
	var stats *web.CrawlStats
	if err == nil && viper.GetBool("guess.crawl_found") {
		stats = &web.CrawlStats{}
		for _, u := range found {
			var s web.CrawlStats
			s, err = r.session.CrawlFrom(ctx, u.String())
			stats.Merge(s)
			if err != nil {
				break
			}
		}
	}

	report := r.newReport()
	report.SetGuessed(found)
	report.Crawl = stats
	return r.finish(err)
}

// RunFuzz crawls to discover forms and fuzzes each of them
func RunFuzz(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	r, err := startRun(ctx, "fuzz")
	if err != nil || r == nil {
		return err
	}
	if len(r.lists.vectors) == 0 {
		return r.finish(fmt.Errorf("no fuzz vectors: pass --vectors or --builtin"))
	}

	if err = r.authenticate(ctx); err != nil {
		return r.finish(err)
	}
	stats, err := r.session.Crawl(ctx)
	if err != nil {
		r.newReport().Crawl = &stats
		return r.finish(err)
	}
	results, err := r.session.FuzzForms(ctx)

	report := r.newReport()
	report.Crawl = &stats
	report.Fuzz = results
	return r.finish(err)
}
