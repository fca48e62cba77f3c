// Package profiledata provides a client for the fresh-linkedin-profile-data
// RapidAPI backend used to enrich profile and company candidates.
package profiledata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://fresh-linkedin-profile-data.p.rapidapi.com"
	defaultHost    = "fresh-linkedin-profile-data.p.rapidapi.com"
)

// APIError is a caller-visible backend failure carrying the upstream status
// code. A 429 signals upstream rate limiting and is never retried here.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("profiledata: %s (status %d)", e.Message, e.StatusCode)
}

// Client fetches enriched records for one candidate at a time.
type Client interface {
	GetProfile(ctx context.Context, linkedinURL string) (*ProfileData, error)
	GetCompany(ctx context.Context, companyID string) (*CompanyData, error)
}

// ProfileData is the profile field set returned by the backend.
type ProfileData struct {
	FirstName       string       `json:"first_name"`
	LastName        string       `json:"last_name"`
	Location        string       `json:"location"`
	LinkedInURL     string       `json:"linkedin_url"`
	ProfileImageURL string       `json:"profile_image_url"`
	Experiences     []Experience `json:"experiences"`
}

// Experience is one position entry; the first entry is the current position.
type Experience struct {
	Title              string `json:"title"`
	Company            string `json:"company"`
	CompanyLinkedInURL string `json:"company_linkedin_url"`
	CompanyLogoURL     string `json:"company_logo_url"`
}

// CompanyData is the company field set returned by the backend.
type CompanyData struct {
	CompanyName   string `json:"company_name"`
	LinkedInURL   string `json:"linkedin_url"`
	LogoURL       string `json:"company_logo_url"`
	HQAddress     string `json:"hq_address"`
	Description   string `json:"description"`
	Tagline       string `json:"tagline"`
	Phone         string `json:"phone"`
	YearFounded   int    `json:"year_founded"`
	EmployeeCount int    `json:"employee_count"`
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound request rate. Zero disables the limiter.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	host    string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a profile-data API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		host:    defaultHost,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// get performs one rate-limited GET and unwraps the response envelope.
// Returns *APIError on 429 so the caller can classify the failure.
func (c *httpClient) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "profiledata: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "profiledata: create request")
	}

	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "profiledata: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "profiledata: read response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		var env envelope
		_ = json.Unmarshal(respBody, &env)
		msg := env.Message
		if msg == "" {
			msg = "rate limited"
		}
		return nil, &APIError{Message: msg, StatusCode: resp.StatusCode}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("profiledata: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, eris.Wrap(err, "profiledata: unmarshal envelope")
	}
	if len(env.Data) == 0 {
		return nil, eris.New("profiledata: response missing data field")
	}

	return env.Data, nil
}

func (c *httpClient) GetProfile(ctx context.Context, linkedinURL string) (*ProfileData, error) {
	params := url.Values{}
	params.Set("linkedin_url", linkedinURL)
	for _, section := range []string{
		"skills", "certifications", "publications", "honors",
		"volunteers", "projects", "patents", "courses", "organizations",
	} {
		params.Set("include_"+section, "false")
	}

	data, err := c.get(ctx, "/get-linkedin-profile", params)
	if err != nil {
		return nil, err
	}

	var profile ProfileData
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, eris.Wrap(err, "profiledata: unmarshal profile")
	}
	return &profile, nil
}

func (c *httpClient) GetCompany(ctx context.Context, companyID string) (*CompanyData, error) {
	params := url.Values{}
	params.Set("linkedin_url", "https://www.linkedin.com/company/"+companyID)

	data, err := c.get(ctx, "/get-company-by-linkedinurl", params)
	if err != nil {
		return nil, err
	}

	var company CompanyData
	if err := json.Unmarshal(data, &company); err != nil {
		return nil, eris.Wrap(err, "profiledata: unmarshal company")
	}
	return &company, nil
}
