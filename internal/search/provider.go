// Package search fans a query out to the registered search providers and
// merges their candidate identifiers.
package search

import (
	"context"
	"strings"

	"github.com/leadscout/leadscout/internal/model"
)

// Provider is a single external search service returning candidate
// identifiers for a query. Implementations map provider errors to an error
// return; the orchestrator is the boundary where those are swallowed.
type Provider interface {
	Name() string
	Search(ctx context.Context, query model.Query) ([]string, error)
}

const (
	profilePathMarker = "linkedin.com/in/"
	companyPathMarker = "linkedin.com/company/"
)

// siteFilter returns the site: operator suffix appended to provider queries.
func siteFilter(kind model.Kind) string {
	if kind == model.KindCompany {
		return " site:linkedin.com/company"
	}
	return " site:linkedin.com/in"
}

// extractCandidates filters raw result links down to candidate identifiers
// for the query's kind. Profile candidates are the full profile URL;
// company candidates are the company slug, which the enrichment backend
// looks up directly.
func extractCandidates(kind model.Kind, links []string) []string {
	var out []string
	for _, link := range links {
		switch kind {
		case model.KindCompany:
			if idx := strings.Index(link, companyPathMarker); idx >= 0 {
				slug := strings.Trim(link[idx+len(companyPathMarker):], "/")
				if cut := strings.IndexAny(slug, "/?"); cut >= 0 {
					slug = slug[:cut]
				}
				if slug != "" {
					out = append(out, slug)
				}
			}
		default:
			if strings.Contains(link, profilePathMarker) {
				out = append(out, link)
			}
		}
	}
	return out
}
