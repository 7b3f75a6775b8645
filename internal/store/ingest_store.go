package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opencaselaw/cite/internal/model"
)

// IngestStore handles the write side of the database, used by the import
// command to load case fixtures.
type IngestStore struct {
	db *sql.DB
}

// NewIngestStore creates a new IngestStore
func NewIngestStore(db *sql.DB) *IngestStore {
	return &IngestStore{db: db}
}

// UpsertJurisdiction inserts or updates a jurisdiction by name.
func (s *IngestStore) UpsertJurisdiction(ctx context.Context, j *model.Jurisdiction) error {
	query := `
		INSERT INTO jurisdictions (name, name_long, whitelisted)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			name_long = EXCLUDED.name_long,
			whitelisted = EXCLUDED.whitelisted
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query, j.Name, j.NameLong, j.Whitelisted).Scan(&j.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert jurisdiction %q: %w", j.Name, err)
	}
	return nil
}

// UpsertReporter inserts or updates a reporter by its short-name slug.
func (s *IngestStore) UpsertReporter(ctx context.Context, r *model.Reporter) error {
	query := `
		INSERT INTO reporters (short_name, short_name_slug, full_name, start_year)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (short_name_slug) DO UPDATE SET
			short_name = EXCLUDED.short_name,
			full_name = EXCLUDED.full_name,
			start_year = EXCLUDED.start_year
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query, r.ShortName, r.ShortNameSlug, r.FullName, r.StartYear).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert reporter %q: %w", r.ShortNameSlug, err)
	}
	return nil
}

// LinkReporterJurisdiction records the many-to-many link between a reporter
// and a jurisdiction.
func (s *IngestStore) LinkReporterJurisdiction(ctx context.Context, reporterID, jurisdictionID int) error {
	query := `
		INSERT INTO reporter_jurisdictions (reporter_id, jurisdiction_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, reporterID, jurisdictionID); err != nil {
		return fmt.Errorf("failed to link reporter %d to jurisdiction %d: %w", reporterID, jurisdictionID, err)
	}
	return nil
}

// UpsertVolume inserts or updates a volume by barcode.
func (s *IngestStore) UpsertVolume(ctx context.Context, v *model.Volume) error {
	query := `
		INSERT INTO volumes (barcode, volume_number, volume_number_slug, reporter_id, pdf_path)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (barcode) DO UPDATE SET
			volume_number = EXCLUDED.volume_number,
			volume_number_slug = EXCLUDED.volume_number_slug,
			reporter_id = EXCLUDED.reporter_id,
			pdf_path = EXCLUDED.pdf_path
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		v.Barcode, v.VolumeNumber, v.VolumeNumberSlug, v.ReporterID, v.PDFPath,
	).Scan(&v.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert volume %q: %w", v.Barcode, err)
	}
	return nil
}

// UpsertCase inserts or updates a case and replaces its citations in a
// single transaction. The checksum lets re-imports of unchanged fixtures
// skip the citation rewrite.
func (s *IngestStore) UpsertCase(ctx context.Context, kase *model.Case, jurisdictionID int) (changed bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingChecksum sql.NullString
	tx.QueryRowContext(ctx, `SELECT checksum FROM cases WHERE id = $1`, kase.ID).Scan(&existingChecksum)
	changed = !existingChecksum.Valid || existingChecksum.String != kase.Checksum

	query := `
		INSERT INTO cases (id, name, name_abbreviation, body, first_page, last_page,
		                   decision_date, court_name, no_index, robots_txt_until,
		                   custom_footer_message, redactions, elisions, word_count,
		                   checksum, volume_id, jurisdiction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			name_abbreviation = EXCLUDED.name_abbreviation,
			body = EXCLUDED.body,
			first_page = EXCLUDED.first_page,
			last_page = EXCLUDED.last_page,
			decision_date = EXCLUDED.decision_date,
			court_name = EXCLUDED.court_name,
			no_index = EXCLUDED.no_index,
			robots_txt_until = EXCLUDED.robots_txt_until,
			custom_footer_message = EXCLUDED.custom_footer_message,
			redactions = EXCLUDED.redactions,
			elisions = EXCLUDED.elisions,
			word_count = EXCLUDED.word_count,
			checksum = EXCLUDED.checksum,
			volume_id = EXCLUDED.volume_id,
			jurisdiction_id = EXCLUDED.jurisdiction_id
	`

	_, err = tx.ExecContext(ctx, query,
		kase.ID,
		kase.Name,
		kase.NameAbbreviation,
		kase.Body,
		kase.FirstPage,
		kase.LastPage,
		kase.DecisionDate,
		kase.CourtName,
		kase.NoIndex,
		kase.RobotsTxtUntil,
		kase.CustomFooterMessage,
		kase.Redactions,
		kase.Elisions,
		kase.WordCount,
		kase.Checksum,
		kase.Volume.ID,
		jurisdictionID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert case %d: %w", kase.ID, err)
	}

	if changed {
		if _, err := tx.ExecContext(ctx, `DELETE FROM citations WHERE case_id = $1`, kase.ID); err != nil {
			return false, fmt.Errorf("failed to clear citations for case %d: %w", kase.ID, err)
		}
		for _, cite := range kase.Citations {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO citations (case_id, cite, normalized_cite, type) VALUES ($1, $2, $3, $4)`,
				kase.ID, cite.Cite, cite.NormalizedCite, cite.Type,
			)
			if err != nil {
				return false, fmt.Errorf("failed to insert citation for case %d: %w", kase.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return changed, nil
}
