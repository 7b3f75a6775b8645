package model

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Jurisdiction represents the jurisdiction a case was decided in.
// Whitelisted jurisdictions are fully open access and bypass the quota.
type Jurisdiction struct {
	ID          int
	Name        string
	NameLong    string
	Whitelisted bool
}

// Reporter represents a case reporter series (e.g. "Ill. 2d").
type Reporter struct {
	ID            int
	ShortName     string
	ShortNameSlug string
	FullName      string
	StartYear     sql.NullInt64
}

// Volume represents one bound volume of a reporter series.
type Volume struct {
	ID               int
	Barcode          string
	VolumeNumber     string
	VolumeNumberSlug string
	ReporterID       int
	PDFPath          sql.NullString
}

// Citation is one citation attached to a case. NormalizedCite is the
// lowercased form with all non-alphanumeric characters removed, used for
// exact citation lookup.
type Citation struct {
	ID             int
	CaseID         int64
	Cite           string
	NormalizedCite string
	Type           string
}

// Rule is a single redaction or elision rule: a regular expression pattern
// and its replacement value.
type Rule struct {
	Pattern string `json:"pattern"`
	Value   string `json:"value"`
}

// RuleList is an ordered list of rules. Order matters: rules are applied
// sequentially at render time and their position becomes the id embedded in
// the output markup, so the list is stored as a JSON array rather than an
// object.
type RuleList []Rule

// Scan implements sql.Scanner for a jsonb column.
func (r *RuleList) Scan(src interface{}) error {
	if src == nil {
		*r = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RuleList", src)
	}
	return json.Unmarshal(data, r)
}

// Value implements driver.Valuer for a jsonb column.
func (r RuleList) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Case represents a single published case.
type Case struct {
	ID                  int64
	Name                string
	NameAbbreviation    string
	Body                string // rendered casebody HTML
	FirstPage           string
	LastPage            sql.NullString
	DecisionDate        sql.NullString
	CourtName           sql.NullString
	NoIndex             bool
	RobotsTxtUntil      sql.NullTime
	CustomFooterMessage sql.NullString
	Redactions          RuleList
	Elisions            RuleList
	WordCount           int
	Checksum            string
	CreatedAt           time.Time

	Volume       Volume
	Reporter     Reporter
	Jurisdiction Jurisdiction
	Citations    []Citation
}

// IndexRedacted reports whether the case carries redaction rules. Redacted
// cases are never served as PDFs, since the PDF shows the original page
// images.
func (c *Case) IndexRedacted() bool {
	return len(c.Redactions) > 0
}

// FrontendPath returns the canonical citation path for the case, including
// the case id suffix so the URL is unambiguous.
func (c *Case) FrontendPath() string {
	return fmt.Sprintf("/%s/%s/%s/%d/",
		c.Reporter.ShortNameSlug, c.Volume.VolumeNumberSlug, c.FirstPage, c.ID)
}

// PDFPath returns the canonical PDF path for the case.
func (c *Case) PDFPath() string {
	return fmt.Sprintf("/cases/%d/pdf/%s.pdf", c.ID, c.Reporter.ShortNameSlug)
}
