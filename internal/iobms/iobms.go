// Package iobms implements bms.Lister for the biodiversity metadata
// service (BMS) HTTP API.
package iobms

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gnames/gnabcd/pkg/bms"
	"github.com/gnames/gnabcd/pkg/config"
)

// dataset is one element of the BMS listing.
type dataset struct {
	ProviderDatacenter string       `json:"provider_datacenter"`
	ProviderURL        string       `json:"provider_url"`
	DSA                string       `json:"dsa"`
	Dataset            string       `json:"dataset"`
	XMLArchives        []xmlArchive `json:"xml_archives"`
}

type xmlArchive struct {
	ID         string `json:"id"`
	XMLArchive string `json:"xml_archive"`
	Latest     bool   `json:"latest"`
}

// provider is a data center registered in BMS. Providers are
// identified by their url.
type provider struct {
	ID         string `json:"id"`
	Shortname  string `json:"shortname"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	BiocaseURL string `json:"biocase_url"`
}

type lister struct {
	listingURL     string
	providersURL   string
	landingPageURL string
	client         *Client
}

// New creates a Lister from BMS settings.
func New(cfg config.BMSConfig) bms.Lister {
	return &lister{
		listingURL:     cfg.ListingURL,
		providersURL:   cfg.ProvidersURL,
		landingPageURL: cfg.LandingPageURL,
		client:         NewClient(cfg.Timeout, cfg.RequestsPerSecond),
	}
}

// List returns the latest archive of every listed dataset.
func (l *lister) List(ctx context.Context) ([]bms.Archive, error) {
	if l.listingURL == "" {
		return nil, NoListingURLError()
	}

	var datasets []dataset
	err := l.client.GetJSON(ctx, l.listingURL, &datasets)
	if err != nil {
		return nil, SourceUnavailableError(l.listingURL, err)
	}

	providers := l.providers(ctx)

	res := make([]bms.Archive, 0, len(datasets))
	for _, v := range datasets {
		xa, ok := latest(v.XMLArchives)
		if !ok {
			slog.Warn("Dataset has no archives, skipping",
				"dataset", v.Dataset, "dsa", v.DSA)
			continue
		}

		id := v.DSA
		if id == "" {
			id = xa.XMLArchive
		}

		p, hasProvider := providers[v.ProviderURL]
		name := v.ProviderDatacenter
		if hasProvider && p.Name != "" {
			name = p.Name
		}

		res = append(res, bms.Archive{
			DatasetID:     id,
			SourceURL:     xa.XMLArchive,
			VersionMarker: xa.ID,
			Provider:      name,
			DatasetName:   v.Dataset,
			LandingPage:   l.landingPage(p, hasProvider, v),
		})
	}

	slog.Info("Got archives listing",
		"datasets", len(datasets), "archives", len(res))
	return res, nil
}

// providers returns BMS providers by their url. An unavailable providers
// endpoint is logged and gives an empty map.
func (l *lister) providers(ctx context.Context) map[string]provider {
	res := make(map[string]provider)
	if l.providersURL == "" {
		return res
	}

	var ps []provider
	err := l.client.GetJSON(ctx, l.providersURL, &ps)
	if err != nil {
		slog.Warn("Cannot get providers, using datacenter names",
			"url", l.providersURL, "error", err)
		return res
	}
	for _, v := range ps {
		res[v.URL] = v
	}
	return res
}

// landingPage generates the landing page URL of a dataset.
func (l *lister) landingPage(p provider, ok bool, d dataset) string {
	if l.landingPageURL == "" || d.DSA == "" {
		return ""
	}
	u, err := url.Parse(l.landingPageURL)
	if err != nil {
		slog.Warn("Bad landing page URL", "url", l.landingPageURL)
		return ""
	}
	id := d.ProviderURL
	if ok {
		id = p.ID
	}
	q := u.Query()
	q.Set("provider", id)
	q.Set("dsa", d.DSA)
	u.RawQuery = q.Encode()
	return u.String()
}

// latest picks the archive flagged as latest, or the last one listed.
func latest(xas []xmlArchive) (xmlArchive, bool) {
	var res xmlArchive
	for _, v := range xas {
		if strings.TrimSpace(v.XMLArchive) == "" {
			continue
		}
		if v.Latest {
			return v, true
		}
		res = v
	}
	return res, res.XMLArchive != ""
}
