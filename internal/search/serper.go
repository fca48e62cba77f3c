package search

import (
	"context"

	"github.com/leadscout/leadscout/internal/model"
	"github.com/leadscout/leadscout/pkg/serper"
)

// SerperProvider searches via the Serper.dev SERP API.
type SerperProvider struct {
	client serper.Client
}

// NewSerperProvider wraps a serper client as a Provider.
func NewSerperProvider(client serper.Client) *SerperProvider {
	return &SerperProvider{client: client}
}

func (p *SerperProvider) Name() string { return "serper" }

func (p *SerperProvider) Search(ctx context.Context, query model.Query) ([]string, error) {
	resp, err := p.client.Search(ctx, query.Text+siteFilter(query.Kind))
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(resp.Organic))
	for _, r := range resp.Organic {
		links = append(links, r.Link)
	}
	return extractCandidates(query.Kind, links), nil
}
