package search

import (
	"context"

	"github.com/leadscout/leadscout/internal/model"
	"github.com/leadscout/leadscout/pkg/customsearch"
)

// CustomSearchProvider searches via the Google Custom Search JSON API.
type CustomSearchProvider struct {
	client customsearch.Client
}

// NewCustomSearchProvider wraps a customsearch client as a Provider.
func NewCustomSearchProvider(client customsearch.Client) *CustomSearchProvider {
	return &CustomSearchProvider{client: client}
}

func (p *CustomSearchProvider) Name() string { return "customsearch" }

func (p *CustomSearchProvider) Search(ctx context.Context, query model.Query) ([]string, error) {
	resp, err := p.client.Search(ctx, query.Text+siteFilter(query.Kind))
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		links = append(links, item.Link)
	}
	return extractCandidates(query.Kind, links), nil
}
