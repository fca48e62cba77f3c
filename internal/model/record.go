// Package model defines the core domain types shared across the
// search, enrichment, store, and pipeline packages.
package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
)

// Kind discriminates what a query resolves to.
type Kind string

const (
	KindProfile Kind = "profile"
	KindCompany Kind = "company"
)

// ParseKind validates a kind string from an external surface (CLI flag,
// query parameter).
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindProfile:
		return KindProfile, nil
	case KindCompany:
		return KindCompany, nil
	}
	return "", eris.Errorf("model: unknown kind %q (want profile or company)", s)
}

var queryFolder = cases.Fold()

// Query is a normalized search query plus its result kind. The normalized
// text is used verbatim as a cache key component, so two queries differing
// only in case or surrounding whitespace share one history entry.
type Query struct {
	Text string `json:"query"`
	Kind Kind   `json:"kind"`
}

// NewQuery normalizes the raw query text (trim, case fold, collapse inner
// whitespace) and pairs it with a kind.
func NewQuery(text string, kind Kind) Query {
	folded := queryFolder.String(strings.TrimSpace(text))
	return Query{
		Text: strings.Join(strings.Fields(folded), " "),
		Kind: kind,
	}
}

// HistoryKey is the history-cache key for this query.
func (q Query) HistoryKey() string {
	return q.Text + "_" + string(q.Kind)
}

// Profile is an enriched professional profile.
type Profile struct {
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Location           string     `json:"location"`
	LinkedInURL        string     `json:"linkedin_url"`
	ImageURL           string     `json:"image_url"`
	Position           string     `json:"position"`
	CompanyName        string     `json:"company_name"`
	CompanyLogoURL     string     `json:"company_logo_url"`
	CompanyLinkedInURL string     `json:"company_linkedin_url"`
	InsertedAt         time.Time  `json:"inserted_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// Company is an enriched company record.
type Company struct {
	Name             string     `json:"name"`
	LinkedInURL      string     `json:"linkedin_url"`
	LogoURL          string     `json:"logo_url"`
	Address          string     `json:"address,omitempty"`
	Description      string     `json:"description,omitempty"`
	ShortDescription string     `json:"short_description,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	FoundedYear      int        `json:"founded_year,omitempty"`
	EmployeeCount    int        `json:"employee_count,omitempty"`
	InsertedAt       time.Time  `json:"inserted_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// Record is an enriched result, polymorphic over kind. Exactly one of
// Profile or Company is set.
type Record struct {
	Profile *Profile `json:"profile,omitempty"`
	Company *Company `json:"company,omitempty"`
}

// Kind reports which variant the record carries.
func (r Record) Kind() Kind {
	if r.Company != nil {
		return KindCompany
	}
	return KindProfile
}

// ItemError is a per-candidate enrichment failure.
type ItemError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (e *ItemError) Error() string {
	return e.Message
}

// Outcome maps one candidate identifier to either an enriched record or an
// item-level error. Every candidate produces exactly one outcome.
type Outcome struct {
	Candidate string     `json:"candidate"`
	Record    *Record    `json:"record,omitempty"`
	Err       *ItemError `json:"error,omitempty"`
}

// OK reports whether the outcome carries a record.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Record != nil
}

// Records extracts the successful records from a slice of outcomes,
// preserving order.
func Records(outcomes []Outcome) []Record {
	var records []Record
	for _, o := range outcomes {
		if o.OK() {
			records = append(records, *o.Record)
		}
	}
	return records
}

// EncodeRecords serializes records for a history-cache entry.
func EncodeRecords(records []Record) ([]byte, error) {
	data, err := json.Marshal(records)
	return data, eris.Wrap(err, "model: encode records")
}

// DecodeRecords parses a history-cache payload back into records.
func DecodeRecords(payload []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, eris.Wrap(err, "model: decode records")
	}
	return records, nil
}
