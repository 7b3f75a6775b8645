package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/opencaselaw/cite/internal/model"
	"github.com/opencaselaw/cite/internal/store"
)

// ImportStats tracks the results of an import run
type ImportStats struct {
	Processed int
	Imported  int
	Unchanged int
	Failed    int
	Duration  time.Duration
}

// caseJSON is the fixture file format: one reporter/volume context with its
// cases. Redactions and elisions are ordered arrays; list position becomes
// the rule id embedded in rendered markup.
type caseJSON struct {
	Jurisdiction struct {
		Name        string `json:"name"`
		NameLong    string `json:"name_long"`
		Whitelisted bool   `json:"whitelisted"`
	} `json:"jurisdiction"`
	Reporter struct {
		ShortName string `json:"short_name"`
		FullName  string `json:"full_name"`
		StartYear int64  `json:"start_year"`
	} `json:"reporter"`
	Volume struct {
		Barcode      string `json:"barcode"`
		VolumeNumber string `json:"volume_number"`
		PDFPath      string `json:"pdf_path"`
	} `json:"volume"`
	Cases []struct {
		ID                  int64            `json:"id"`
		Name                string           `json:"name"`
		NameAbbreviation    string           `json:"name_abbreviation"`
		Body                string           `json:"body"`
		FirstPage           string           `json:"first_page"`
		LastPage            string           `json:"last_page"`
		DecisionDate        string           `json:"decision_date"`
		CourtName           string           `json:"court_name"`
		NoIndex             bool             `json:"no_index"`
		RobotsTxtUntil      string           `json:"robots_txt_until"`
		CustomFooterMessage string           `json:"custom_footer_message"`
		Redactions          []model.Rule     `json:"redactions"`
		Elisions            []model.Rule     `json:"elisions"`
		Citations           []model.Citation `json:"citations"`
	} `json:"cases"`
}

// Importer loads case fixture files into the database
type Importer struct {
	store *store.IngestStore
}

// NewImporter creates a new Importer
func NewImporter(ingestStore *store.IngestStore) *Importer {
	return &Importer{store: ingestStore}
}

// ImportDir imports every .json fixture under dir.
func (imp *Importer) ImportDir(ctx context.Context, dir string) (*ImportStats, error) {
	start := time.Now()
	stats := &ImportStats{}

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return stats, fmt.Errorf("failed to list fixtures in %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return stats, fmt.Errorf("no fixture files found in %s", dir)
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if err := imp.ImportFile(ctx, path, stats); err != nil {
			log.Printf("Failed to import %s: %v", path, err)
			stats.Failed++
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// ImportFile imports a single fixture file.
func (imp *Importer) ImportFile(ctx context.Context, path string, stats *ImportStats) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture caseJSON
	if err := json.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("failed to parse fixture: %w", err)
	}

	jurisdiction := model.Jurisdiction{
		Name:        fixture.Jurisdiction.Name,
		NameLong:    fixture.Jurisdiction.NameLong,
		Whitelisted: fixture.Jurisdiction.Whitelisted,
	}
	if err := imp.store.UpsertJurisdiction(ctx, &jurisdiction); err != nil {
		return err
	}

	reporter := model.Reporter{
		ShortName:     fixture.Reporter.ShortName,
		ShortNameSlug: Slugify(fixture.Reporter.ShortName),
		FullName:      fixture.Reporter.FullName,
	}
	if fixture.Reporter.StartYear != 0 {
		reporter.StartYear = sql.NullInt64{Int64: fixture.Reporter.StartYear, Valid: true}
	}
	if err := imp.store.UpsertReporter(ctx, &reporter); err != nil {
		return err
	}
	if err := imp.store.LinkReporterJurisdiction(ctx, reporter.ID, jurisdiction.ID); err != nil {
		return err
	}

	volume := model.Volume{
		Barcode:          fixture.Volume.Barcode,
		VolumeNumber:     fixture.Volume.VolumeNumber,
		VolumeNumberSlug: Slugify(fixture.Volume.VolumeNumber),
		ReporterID:       reporter.ID,
	}
	if fixture.Volume.PDFPath != "" {
		volume.PDFPath = sql.NullString{String: fixture.Volume.PDFPath, Valid: true}
	}
	if err := imp.store.UpsertVolume(ctx, &volume); err != nil {
		return err
	}

	for _, c := range fixture.Cases {
		stats.Processed++

		metrics := MeasureBody(c.Body)
		kase := model.Case{
			ID:               c.ID,
			Name:             c.Name,
			NameAbbreviation: c.NameAbbreviation,
			Body:             c.Body,
			FirstPage:        c.FirstPage,
			NoIndex:          c.NoIndex,
			Redactions:       c.Redactions,
			Elisions:         c.Elisions,
			WordCount:        metrics.WordCount,
			Checksum:         metrics.Checksum,
			Volume:           volume,
		}
		if c.LastPage != "" {
			kase.LastPage = sql.NullString{String: c.LastPage, Valid: true}
		}
		if c.DecisionDate != "" {
			kase.DecisionDate = sql.NullString{String: c.DecisionDate, Valid: true}
		}
		if c.CourtName != "" {
			kase.CourtName = sql.NullString{String: c.CourtName, Valid: true}
		}
		if c.CustomFooterMessage != "" {
			kase.CustomFooterMessage = sql.NullString{String: c.CustomFooterMessage, Valid: true}
		}
		if c.RobotsTxtUntil != "" {
			until, err := time.Parse("2006-01-02", c.RobotsTxtUntil)
			if err != nil {
				return fmt.Errorf("case %d: invalid robots_txt_until: %w", c.ID, err)
			}
			kase.RobotsTxtUntil = sql.NullTime{Time: until, Valid: true}
		}

		kase.Citations = c.Citations
		for i := range kase.Citations {
			kase.Citations[i].CaseID = c.ID
			if kase.Citations[i].NormalizedCite == "" {
				kase.Citations[i].NormalizedCite = NormalizeCite(kase.Citations[i].Cite)
			}
		}

		changed, err := imp.store.UpsertCase(ctx, &kase, jurisdiction.ID)
		if err != nil {
			return err
		}
		if changed {
			stats.Imported++
		} else {
			stats.Unchanged++
		}
	}

	return nil
}

// PrintSummary prints the import statistics
func (imp *Importer) PrintSummary(stats *ImportStats) {
	log.Println("")
	log.Println("=== Import Summary ===")
	log.Printf("Cases processed:  %d", stats.Processed)
	log.Printf("Cases imported:   %d", stats.Imported)
	log.Printf("Cases unchanged:  %d", stats.Unchanged)
	log.Printf("Failures:         %d", stats.Failed)
	log.Printf("Duration:         %s", stats.Duration.Round(time.Millisecond))
}
