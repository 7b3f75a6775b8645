package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/opencaselaw/cite/internal/service"
	"github.com/opencaselaw/cite/internal/store"
	"github.com/opencaselaw/cite/internal/templates"
)

// HomeHandler lists all jurisdictions with their reporter series.
func HomeHandler(caseStore *store.CaseStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		jurisdictions, reporters, err := caseStore.GetJurisdictions(ctx)
		if err != nil {
			log.Printf("Error loading jurisdictions: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading home page")
		}

		totalCases, err := caseStore.CountCases(ctx)
		if err != nil {
			log.Printf("Error counting cases: %v", err)
		}

		totalReporters, err := caseStore.CountReporters(ctx)
		if err != nil {
			log.Printf("Error counting reporters: %v", err)
		}

		var entries []templates.JurisdictionReporters
		for _, j := range jurisdictions {
			entries = append(entries, templates.JurisdictionReporters{
				Jurisdiction: j,
				Reporters:    reporters[j.ID],
			})
		}

		page := templates.Home(entries, totalCases, totalReporters)
		return adaptor.HTTPHandler(templ.Handler(page))(c)
	}
}

// SeriesHandler lists the volumes of a reporter series.
func SeriesHandler(caseStore *store.CaseStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		slug := c.Params("series")
		if canonical := service.Slugify(slug); canonical != slug {
			return c.Redirect("/"+canonical+"/", fiber.StatusFound)
		}

		reporter, err := caseStore.GetReporterBySlug(ctx, slug)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading series")
		}
		if reporter == nil {
			return c.Status(fiber.StatusNotFound).SendString("Series not found")
		}

		volumes, err := caseStore.GetVolumesForSeries(ctx, slug)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading volumes")
		}

		page := templates.Series(reporter, volumes)
		return adaptor.HTTPHandler(templ.Handler(page))(c)
	}
}

// VolumeHandler lists the cases of a volume.
func VolumeHandler(caseStore *store.CaseStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		seriesSlug := c.Params("series")
		volumeSlug := c.Params("volume")
		canonicalSeries := service.Slugify(seriesSlug)
		canonicalVolume := service.Slugify(volumeSlug)
		if canonicalSeries != seriesSlug || canonicalVolume != volumeSlug {
			return c.Redirect(fmt.Sprintf("/%s/%s/", canonicalSeries, canonicalVolume), fiber.StatusFound)
		}

		cases, err := caseStore.GetCasesForVolume(ctx, seriesSlug, volumeSlug)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading volume")
		}
		if len(cases) == 0 {
			return c.Status(fiber.StatusNotFound).SendString("Volume not found")
		}

		page := templates.Volume(seriesSlug, volumeSlug, cases)
		return adaptor.HTTPHandler(templ.Handler(page))(c)
	}
}

// RobotsHandler renders robots.txt with disallow lines for cases whose
// exclusion window is still open.
func RobotsHandler(caseStore *store.CaseStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		cases, err := caseStore.GetRobotsExcluded(ctx, time.Now())
		if err != nil {
			log.Printf("Error loading robots exclusions: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("")
		}

		var b strings.Builder
		b.WriteString("User-agent: *\n")
		for i := range cases {
			b.WriteString("Disallow: ")
			b.WriteString(cases[i].FrontendPath())
			b.WriteByte('\n')
		}

		c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
		return c.SendString(b.String())
	}
}
