/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: crawler.go
Description: Same-origin traversal of the link graph. Iterative frontier expansion with an atomic
claim on the ledger's visited set before each dispatch, so every in-scope URL is fetched at most
once even when several fetches run in parallel.
*/

package web

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// CrawlerConfig bounds a traversal. Zero values mean unlimited / single worker.
// Links whose canonical form contains any Exclude substring are never claimed.
type CrawlerConfig struct {
	Workers  int
	MaxPages int
	MaxDepth int
	Exclude  []string
}

// CrawlStats summarizes one Crawl call
type CrawlStats struct {
	Fetched int `json:"fetched"`
	Failed  int `json:"failed"`
	Depth   int `json:"depth"`
}

// Merge adds o's counts into s and keeps the greater depth
func (s *CrawlStats) Merge(o CrawlStats) {
	s.Fetched += o.Fetched
	s.Failed += o.Failed
	if o.Depth > s.Depth {
		s.Depth = o.Depth
	}
}

// Crawler drives traversal from a start URL
type Crawler struct {
	fetcher *PageFetcher
	ledger  *DiscoveryLedger
	config  CrawlerConfig
	logger  logrus.FieldLogger

	mu    sync.Mutex
	stats CrawlStats
}

type frontierEntry struct {
	raw   string
	depth int
}

// NewCrawler creates a crawler over fetcher and ledger
func NewCrawler(fetcher *PageFetcher, ledger *DiscoveryLedger, config CrawlerConfig, logger logrus.FieldLogger) *Crawler {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Crawler{
		fetcher: fetcher,
		ledger:  ledger,
		config:  config,
		logger:  logger,
	}
}

// Crawl fetches startURL and every same-origin page reachable from it through
// anchors. Linked URLs already in the visited set are never fetched again. The
// seed itself is the exception: it is always fetched and expanded, even when an
// earlier pass such as Authenticate or GuessPages already visited it, so a
// second crawl from the same URL fetches the seed once more. Fetch failures
// skip that node only. The returned error is non-nil only when the start URL is
// malformed or ctx is cancelled.
func (c *Crawler) Crawl(ctx context.Context, startURL string) (CrawlStats, error) {
	root, err := ParseCanonical(startURL)
	if err != nil {
		return CrawlStats{}, err
	}

	c.mu.Lock()
	c.stats = CrawlStats{}
	c.mu.Unlock()

	if c.ledger.HasVisited(root) {
		c.logger.WithField("url", root.String()).Debug("Crawl seed already visited, fetching again")
	}
	c.ledger.Claim(root)
	frontier := []frontierEntry{{raw: startURL, depth: 0}}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return c.snapshotStats(), err
		}
		next, err := c.expand(ctx, root, frontier)
		if err != nil {
			return c.snapshotStats(), err
		}
		frontier = next
	}

	if err := ctx.Err(); err != nil {
		return c.snapshotStats(), err
	}
	return c.snapshotStats(), nil
}

// expand fetches one frontier level and returns the newly claimed links
func (c *Crawler) expand(ctx context.Context, scope CanonicalURL, frontier []frontierEntry) ([]frontierEntry, error) {
	var (
		nextMu sync.Mutex
		next   []frontierEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)

	for _, entry := range frontier {
		entry := entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			links, err := c.visit(gctx, scope, entry)
			if err != nil {
				return err
			}
			nextMu.Lock()
			next = append(next, links...)
			nextMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

// visit fetches one node and claims its unvisited in-scope children. Only
// context cancellation is returned as an error.
func (c *Crawler) visit(ctx context.Context, scope CanonicalURL, entry frontierEntry) ([]frontierEntry, error) {
	page, err := c.fetcher.Fetch(ctx, entry.raw)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.mu.Lock()
		c.stats.Failed++
		c.mu.Unlock()
		c.logger.WithFields(logrus.Fields{"url": entry.raw, "error": err}).Warn("Skipping page")
		return nil, nil
	}

	c.mu.Lock()
	c.stats.Fetched++
	if entry.depth > c.stats.Depth {
		c.stats.Depth = entry.depth
	}
	c.mu.Unlock()

	final, err := ParseCanonical(page.URL())
	if err != nil || !SameOrigin(final, scope) {
		c.logger.WithFields(logrus.Fields{"url": entry.raw, "final": page.URL()}).Warn("Redirected out of scope, not expanding")
		return nil, nil
	}
	if c.config.MaxDepth > 0 && entry.depth >= c.config.MaxDepth {
		return nil, nil
	}

	var links []frontierEntry
	for _, href := range page.Anchors() {
		link, ok := ResolveLink(page.URL(), href)
		if !ok || !SameOrigin(link.Canonical, scope) || c.excluded(link.Canonical) {
			continue
		}
		if !c.claim(link.Canonical) {
			continue
		}
		links = append(links, frontierEntry{raw: link.Target, depth: entry.depth + 1})
	}
	return links, nil
}

// claim marks u visited unless it already is or MaxPages is reached
func (c *Crawler) claim(u CanonicalURL) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config.MaxPages > 0 && c.ledger.VisitedCount() >= c.config.MaxPages {
		return false
	}
	return c.ledger.Claim(u)
}

func (c *Crawler) excluded(u CanonicalURL) bool {
	s := u.String()
	for _, pattern := range c.config.Exclude {
		if pattern != "" && strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}

func (c *Crawler) snapshotStats() CrawlStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
