package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/opencaselaw/cite/internal/model"
)

// CaseStore handles database operations for cases and their related
// reporter, volume, jurisdiction and citation records.
type CaseStore struct {
	db *sql.DB
}

// NewCaseStore creates a new CaseStore
func NewCaseStore(db *sql.DB) *CaseStore {
	return &CaseStore{db: db}
}

const caseColumns = `
	c.id, c.name, c.name_abbreviation, c.body, c.first_page, c.last_page,
	c.decision_date, c.court_name, c.no_index, c.robots_txt_until,
	c.custom_footer_message, c.redactions, c.elisions, c.word_count,
	c.checksum, c.created_at,
	v.id, v.barcode, v.volume_number, v.volume_number_slug, v.reporter_id, v.pdf_path,
	r.id, r.short_name, r.short_name_slug, r.full_name, r.start_year,
	j.id, j.name, j.name_long, j.whitelisted
`

const caseJoins = `
	FROM cases c
	JOIN volumes v ON v.id = c.volume_id
	JOIN reporters r ON r.id = v.reporter_id
	JOIN jurisdictions j ON j.id = c.jurisdiction_id
`

func scanCase(row interface{ Scan(...interface{}) error }) (*model.Case, error) {
	var kase model.Case
	err := row.Scan(
		&kase.ID,
		&kase.Name,
		&kase.NameAbbreviation,
		&kase.Body,
		&kase.FirstPage,
		&kase.LastPage,
		&kase.DecisionDate,
		&kase.CourtName,
		&kase.NoIndex,
		&kase.RobotsTxtUntil,
		&kase.CustomFooterMessage,
		&kase.Redactions,
		&kase.Elisions,
		&kase.WordCount,
		&kase.Checksum,
		&kase.CreatedAt,
		&kase.Volume.ID,
		&kase.Volume.Barcode,
		&kase.Volume.VolumeNumber,
		&kase.Volume.VolumeNumberSlug,
		&kase.Volume.ReporterID,
		&kase.Volume.PDFPath,
		&kase.Reporter.ID,
		&kase.Reporter.ShortName,
		&kase.Reporter.ShortNameSlug,
		&kase.Reporter.FullName,
		&kase.Reporter.StartYear,
		&kase.Jurisdiction.ID,
		&kase.Jurisdiction.Name,
		&kase.Jurisdiction.NameLong,
		&kase.Jurisdiction.Whitelisted,
	)
	if err != nil {
		return nil, err
	}
	return &kase, nil
}

// GetByID retrieves a single case with its volume, reporter, jurisdiction
// and citations. Returns nil if the case does not exist.
func (s *CaseStore) GetByID(ctx context.Context, id int64) (*model.Case, error) {
	query := `SELECT ` + caseColumns + caseJoins + ` WHERE c.id = $1`

	kase, err := scanCase(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case %d: %w", id, err)
	}

	if err := s.loadCitations(ctx, kase); err != nil {
		return nil, err
	}
	return kase, nil
}

// GetByNormalizedCite retrieves all cases carrying the given normalized
// citation. Zero or multiple results mean the citation did not resolve
// uniquely; the caller decides how to present that.
func (s *CaseStore) GetByNormalizedCite(ctx context.Context, cite string) ([]model.Case, error) {
	query := `
		SELECT DISTINCT ` + caseColumns + caseJoins + `
		JOIN citations ct ON ct.case_id = c.id
		WHERE ct.normalized_cite = $1
		ORDER BY c.id
	`

	rows, err := s.db.QueryContext(ctx, query, cite)
	if err != nil {
		return nil, fmt.Errorf("failed to look up citation %q: %w", cite, err)
	}
	defer rows.Close()

	var cases []model.Case
	for rows.Next() {
		kase, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, *kase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range cases {
		if err := s.loadCitations(ctx, &cases[i]); err != nil {
			return nil, err
		}
	}
	return cases, nil
}

func (s *CaseStore) loadCitations(ctx context.Context, kase *model.Case) error {
	query := `
		SELECT id, case_id, cite, normalized_cite, type
		FROM citations
		WHERE case_id = $1
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, kase.ID)
	if err != nil {
		return fmt.Errorf("failed to get citations for case %d: %w", kase.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cite model.Citation
		if err := rows.Scan(&cite.ID, &cite.CaseID, &cite.Cite, &cite.NormalizedCite, &cite.Type); err != nil {
			return fmt.Errorf("failed to scan citation: %w", err)
		}
		kase.Citations = append(kase.Citations, cite)
	}
	return rows.Err()
}

// GetReporterBySlug retrieves a reporter by its short-name slug. Returns nil
// if no reporter matches.
func (s *CaseStore) GetReporterBySlug(ctx context.Context, slug string) (*model.Reporter, error) {
	query := `
		SELECT id, short_name, short_name_slug, full_name, start_year
		FROM reporters
		WHERE short_name_slug = $1
		ORDER BY full_name
		LIMIT 1
	`

	var r model.Reporter
	err := s.db.QueryRowContext(ctx, query, slug).Scan(
		&r.ID,
		&r.ShortName,
		&r.ShortNameSlug,
		&r.FullName,
		&r.StartYear,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reporter %q: %w", slug, err)
	}
	return &r, nil
}

// GetVolumesForSeries retrieves all volumes of the reporters with the given
// slug, ordered by volume number.
func (s *CaseStore) GetVolumesForSeries(ctx context.Context, slug string) ([]model.Volume, error) {
	query := `
		SELECT v.id, v.barcode, v.volume_number, v.volume_number_slug, v.reporter_id, v.pdf_path
		FROM volumes v
		JOIN reporters r ON r.id = v.reporter_id
		WHERE r.short_name_slug = $1 AND v.volume_number <> ''
		ORDER BY v.volume_number
	`

	rows, err := s.db.QueryContext(ctx, query, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get volumes for series %q: %w", slug, err)
	}
	defer rows.Close()

	var volumes []model.Volume
	for rows.Next() {
		var v model.Volume
		err := rows.Scan(&v.ID, &v.Barcode, &v.VolumeNumber, &v.VolumeNumberSlug, &v.ReporterID, &v.PDFPath)
		if err != nil {
			return nil, fmt.Errorf("failed to scan volume: %w", err)
		}
		volumes = append(volumes, v)
	}
	return volumes, rows.Err()
}

// GetCasesForVolume retrieves the cases of a volume identified by series and
// volume slugs, ordered by first page. Bodies are excluded for performance.
func (s *CaseStore) GetCasesForVolume(ctx context.Context, seriesSlug, volumeSlug string) ([]model.Case, error) {
	query := `
		SELECT c.id, c.name, c.name_abbreviation, c.first_page, c.decision_date,
		       v.id, v.volume_number, v.volume_number_slug,
		       r.id, r.short_name, r.short_name_slug
		FROM cases c
		JOIN volumes v ON v.id = c.volume_id
		JOIN reporters r ON r.id = v.reporter_id
		WHERE r.short_name_slug = $1 AND v.volume_number_slug = $2
		ORDER BY c.first_page, c.id
	`

	rows, err := s.db.QueryContext(ctx, query, seriesSlug, volumeSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to get cases for volume %s/%s: %w", seriesSlug, volumeSlug, err)
	}
	defer rows.Close()

	var cases []model.Case
	for rows.Next() {
		var kase model.Case
		err := rows.Scan(
			&kase.ID,
			&kase.Name,
			&kase.NameAbbreviation,
			&kase.FirstPage,
			&kase.DecisionDate,
			&kase.Volume.ID,
			&kase.Volume.VolumeNumber,
			&kase.Volume.VolumeNumberSlug,
			&kase.Reporter.ID,
			&kase.Reporter.ShortName,
			&kase.Reporter.ShortNameSlug,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, kase)
	}
	return cases, rows.Err()
}

// GetJurisdictions retrieves all jurisdictions that have reporters, each
// with its reporters ordered by short name.
func (s *CaseStore) GetJurisdictions(ctx context.Context) ([]model.Jurisdiction, map[int][]model.Reporter, error) {
	query := `
		SELECT j.id, j.name, j.name_long, j.whitelisted,
		       r.id, r.short_name, r.short_name_slug, r.full_name, r.start_year
		FROM jurisdictions j
		JOIN reporter_jurisdictions rj ON rj.jurisdiction_id = j.id
		JOIN reporters r ON r.id = rj.reporter_id
		WHERE r.start_year IS NOT NULL
		ORDER BY j.name_long, r.short_name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get jurisdictions: %w", err)
	}
	defer rows.Close()

	var jurisdictions []model.Jurisdiction
	reporters := make(map[int][]model.Reporter)
	seen := make(map[int]bool)
	for rows.Next() {
		var j model.Jurisdiction
		var r model.Reporter
		err := rows.Scan(
			&j.ID, &j.Name, &j.NameLong, &j.Whitelisted,
			&r.ID, &r.ShortName, &r.ShortNameSlug, &r.FullName, &r.StartYear,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan jurisdiction: %w", err)
		}
		if !seen[j.ID] {
			seen[j.ID] = true
			jurisdictions = append(jurisdictions, j)
		}
		reporters[j.ID] = append(reporters[j.ID], r)
	}
	return jurisdictions, reporters, rows.Err()
}

// GetRobotsExcluded retrieves cases whose robots exclusion window is still
// open, for rendering robots.txt disallow lines.
func (s *CaseStore) GetRobotsExcluded(ctx context.Context, now time.Time) ([]model.Case, error) {
	query := `
		SELECT c.id, c.first_page,
		       v.volume_number_slug,
		       r.short_name_slug
		FROM cases c
		JOIN volumes v ON v.id = c.volume_id
		JOIN reporters r ON r.id = v.reporter_id
		WHERE c.robots_txt_until >= $1
		ORDER BY c.id
	`

	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get robots-excluded cases: %w", err)
	}
	defer rows.Close()

	var cases []model.Case
	for rows.Next() {
		var kase model.Case
		err := rows.Scan(&kase.ID, &kase.FirstPage, &kase.Volume.VolumeNumberSlug, &kase.Reporter.ShortNameSlug)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, kase)
	}
	return cases, rows.Err()
}

// CountCases returns the total number of cases
func (s *CaseStore) CountCases(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cases").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cases: %w", err)
	}
	return count, nil
}

// CountReporters returns the total number of reporter series
func (s *CaseStore) CountReporters(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reporters").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reporters: %w", err)
	}
	return count, nil
}
