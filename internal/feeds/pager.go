// Package feeds builds the ad-platform listing feeds from the live MLS inventory.
package feeds

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/zaqqye/realty_backend/internal/property"
	"github.com/zaqqye/realty_backend/internal/repliers"
)

// Lister is the slice of the MLS client the pager needs.
type Lister interface {
	SearchListings(ctx context.Context, params url.Values) (*repliers.ListingsPage, error)
}

type Pager struct {
	Source      Lister
	Options     property.Options
	PageSize    int
	MaxPages    int
	Concurrency int
}

func NewPager(src Lister, opts property.Options, maxPages int) *Pager {
	return &Pager{Source: src, Options: opts, PageSize: 100, MaxPages: maxPages, Concurrency: 4}
}

// All fetches page 1, then the remaining pages (up to MaxPages) concurrently, and returns the
// normalized listings in page order with duplicate MLS numbers removed.
func (p *Pager) All(ctx context.Context, base url.Values) ([]property.Property, error) {
	first, err := p.Source.SearchListings(ctx, p.pageParams(base, 1))
	if err != nil {
		return nil, fmt.Errorf("feeds: page 1: %w", err)
	}
	pages := first.NumPages
	if p.MaxPages > 0 && pages > p.MaxPages {
		pages = p.MaxPages
	}
	if pages < 1 {
		pages = 1
	}

	results := make([][]property.Property, pages)
	results[0] = property.NormalizeAll(first.Listings, p.Options)

	g, gctx := errgroup.WithContext(ctx)
	if p.Concurrency > 0 {
		g.SetLimit(p.Concurrency)
	}
	for n := 2; n <= pages; n++ {
		n := n
		g.Go(func() error {
			page, err := p.Source.SearchListings(gctx, p.pageParams(base, n))
			if err != nil {
				return fmt.Errorf("feeds: page %d: %w", n, err)
			}
			results[n-1] = property.NormalizeAll(page.Listings, p.Options)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var out []property.Property
	for _, page := range results {
		for _, prop := range page {
			if _, dup := seen[prop.MLSNumber]; dup {
				continue
			}
			seen[prop.MLSNumber] = struct{}{}
			out = append(out, prop)
		}
	}
	return out, nil
}

func (p *Pager) pageParams(base url.Values, n int) url.Values {
	q := url.Values{}
	for k, v := range base {
		q[k] = append([]string(nil), v...)
	}
	if q.Get("status") == "" {
		q.Set("status", "Active")
	}
	size := p.PageSize
	if size <= 0 {
		size = 100
	}
	q.Set("pageNum", strconv.Itoa(n))
	q.Set("resultsPerPage", strconv.Itoa(size))
	return q
}
