// Package enrich resolves candidate identifiers into full records via the
// profile-data backend, isolating each candidate's failure.
package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/leadscout/leadscout/internal/model"
	"github.com/leadscout/leadscout/pkg/profiledata"
)

// Enricher maps one candidate identifier to exactly one outcome.
type Enricher interface {
	Enrich(ctx context.Context, kind model.Kind, candidate string) model.Outcome
}

// Client enriches candidates through a profiledata backend. Backend
// failures, rate limits, and malformed payloads become item-level error
// outcomes rather than Go errors: every candidate yields one outcome.
type Client struct {
	backend profiledata.Client
	timeout time.Duration
	now     func() time.Time
}

// ClientOption configures the enrichment client.
type ClientOption func(*Client)

// WithCallTimeout bounds each enrichment round-trip.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// withClock overrides the provenance clock in tests.
func withClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates an enrichment client over the given backend.
func NewClient(backend profiledata.Client, opts ...ClientOption) *Client {
	c := &Client{
		backend: backend,
		timeout: 30 * time.Second,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Enrich(ctx context.Context, kind model.Kind, candidate string) model.Outcome {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var record *model.Record
	var err error
	if kind == model.KindCompany {
		record, err = c.enrichCompany(cctx, candidate)
	} else {
		record, err = c.enrichProfile(cctx, candidate)
	}
	if err != nil {
		return model.Outcome{Candidate: candidate, Err: classify(err)}
	}
	return model.Outcome{Candidate: candidate, Record: record}
}

func (c *Client) enrichProfile(ctx context.Context, linkedinURL string) (*model.Record, error) {
	data, err := c.backend.GetProfile(ctx, linkedinURL)
	if err != nil {
		return nil, err
	}
	if data.FirstName == "" || data.LastName == "" {
		return nil, &model.ItemError{Message: "profile payload missing first_name/last_name"}
	}

	profile := &model.Profile{
		FirstName:   data.FirstName,
		LastName:    data.LastName,
		Location:    data.Location,
		LinkedInURL: data.LinkedInURL,
		ImageURL:    data.ProfileImageURL,
		InsertedAt:  c.now().UTC(),
	}
	if profile.LinkedInURL == "" {
		profile.LinkedInURL = linkedinURL
	}
	// First experience entry is the current position.
	if len(data.Experiences) > 0 {
		current := data.Experiences[0]
		profile.Position = current.Title
		profile.CompanyName = current.Company
		profile.CompanyLogoURL = current.CompanyLogoURL
		profile.CompanyLinkedInURL = current.CompanyLinkedInURL
	}

	return &model.Record{Profile: profile}, nil
}

func (c *Client) enrichCompany(ctx context.Context, companyID string) (*model.Record, error) {
	data, err := c.backend.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if data.CompanyName == "" {
		return nil, &model.ItemError{Message: "company payload missing company_name"}
	}

	company := &model.Company{
		Name:             data.CompanyName,
		LinkedInURL:      data.LinkedInURL,
		LogoURL:          data.LogoURL,
		Address:          data.HQAddress,
		Description:      data.Description,
		ShortDescription: data.Tagline,
		Phone:            data.Phone,
		FoundedYear:      data.YearFounded,
		EmployeeCount:    data.EmployeeCount,
		InsertedAt:       c.now().UTC(),
	}
	if company.LinkedInURL == "" {
		company.LinkedInURL = "https://www.linkedin.com/company/" + companyID
	}

	return &model.Record{Company: company}, nil
}

// classify converts a backend error into an item error, preserving the
// upstream status code when the backend reported one.
func classify(err error) *model.ItemError {
	var itemErr *model.ItemError
	if errors.As(err, &itemErr) {
		return itemErr
	}

	var apiErr *profiledata.APIError
	if errors.As(err, &apiErr) {
		return &model.ItemError{Message: apiErr.Message, StatusCode: apiErr.StatusCode}
	}

	return &model.ItemError{Message: err.Error()}
}
