// Package iopangaea implements bms.Lister for ABCD datasets pushed to
// PANGAEA. Datasets are found with a scrolled Elasticsearch query.
package iopangaea

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/gnames/gnabcd/internal/iobms"
	"github.com/gnames/gnabcd/pkg/bms"
	"github.com/gnames/gnabcd/pkg/config"
)

// ScrollTimeout keeps the search context alive between pages.
const ScrollTimeout = "1m"

// query selects public ABCD datasets of the GFBio push workflow.
var query = map[string]any{
	"query": map[string]any{
		"bool": map[string]any{
			"filter": []any{
				map[string]any{
					"term": map[string]any{"internal-source": "gfbio-abcd-push"},
				},
				map[string]any{
					"match_phrase": map[string]any{"type": "ABCD_Dataset"},
				},
				map[string]any{
					"term": map[string]any{"accessRestricted": false},
				},
			},
		},
	},
}

type searchResult struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []hit `json:"hits"`
	} `json:"hits"`
}

type hit struct {
	ID     string `json:"_id"`
	Source struct {
		CitationPublisher string `json:"citation_publisher"`
		Datalink          string `json:"datalink"`
	} `json:"_source"`
}

type scrollRequest struct {
	Scroll   string `json:"scroll"`
	ScrollID string `json:"scroll_id"`
}

type lister struct {
	searchURL string
	scrollURL string
	client    *iobms.Client
}

// New creates a Lister of PANGAEA datasets.
func New(cfg config.PangaeaConfig, client *iobms.Client) bms.Lister {
	return &lister{
		searchURL: cfg.SearchURL,
		scrollURL: cfg.ScrollURL,
		client:    client,
	}
}

// List returns one archive per PANGAEA dataset. The dataset ID is the
// search document ID, and the archive location is its datalink.
func (l *lister) List(ctx context.Context) ([]bms.Archive, error) {
	hits, err := l.search(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]bms.Archive, 0, len(hits))
	for _, v := range hits {
		if v.ID == "" || v.Source.Datalink == "" {
			slog.Warn("PANGAEA dataset has no archive, skipping", "id", v.ID)
			continue
		}
		if err = ctx.Err(); err != nil {
			return nil, SourceUnavailableError(l.searchURL, err)
		}
		res = append(res, bms.Archive{
			DatasetID:     v.ID,
			SourceURL:     v.Source.Datalink,
			VersionMarker: l.version(ctx, v.Source.Datalink),
			Provider:      v.Source.CitationPublisher,
		})
	}

	slog.Info("Got PANGAEA listing", "hits", len(hits), "archives", len(res))
	return res, nil
}

// search collects hits of all pages. Scrolling stops at an empty page.
func (l *lister) search(ctx context.Context) ([]hit, error) {
	if l.searchURL == "" || l.scrollURL == "" {
		return nil, NoURLError()
	}
	u, err := url.Parse(l.searchURL)
	if err != nil {
		return nil, SourceUnavailableError(l.searchURL, err)
	}
	q := u.Query()
	q.Set("scroll", ScrollTimeout)
	u.RawQuery = q.Encode()

	var page searchResult
	if err = l.client.PostJSON(ctx, u.String(), query, &page); err != nil {
		return nil, SourceUnavailableError(l.searchURL, err)
	}

	var res []hit
	for len(page.Hits.Hits) > 0 {
		res = append(res, page.Hits.Hits...)
		slog.Info("Retrieved PANGAEA page",
			"items", len(page.Hits.Hits), "total", len(res))
		if page.ScrollID == "" {
			break
		}

		req := scrollRequest{Scroll: ScrollTimeout, ScrollID: page.ScrollID}
		page = searchResult{}
		if err = l.client.PostJSON(ctx, l.scrollURL, req, &page); err != nil {
			return nil, SourceUnavailableError(l.scrollURL, err)
		}
	}
	return res, nil
}

// version uses ETag or Last-Modified of the archive. Without them the
// archive URL is the version.
func (l *lister) version(ctx context.Context, link string) string {
	h, err := l.client.Head(ctx, link)
	if err != nil {
		slog.Warn("Cannot check archive version, using its URL",
			"url", link, "error", err)
		return link
	}
	if v := h.Get("ETag"); v != "" {
		return v
	}
	if v := h.Get("Last-Modified"); v != "" {
		return v
	}
	return link
}
