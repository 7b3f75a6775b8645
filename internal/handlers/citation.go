package handlers

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/opencaselaw/cite/internal/quota"
	"github.com/opencaselaw/cite/internal/service"
	"github.com/opencaselaw/cite/internal/templates"
)

// Cookie names. The session cookie carries the opaque quota session key;
// the consent cookie records that the reader passed the not-a-bot check.
const (
	SessionCookie = "case_session"
	ConsentCookie = "not_a_bot"
)

func buildRequest(c *fiber.Ctx) service.Request {
	return service.Request{
		Path: c.OriginalURL(),
		// Identity is established upstream; the auth proxy forwards the
		// signed-in user, if any.
		Authenticated: c.Get("X-Authenticated-User") != "",
		SessionKey:    c.Cookies(SessionCookie),
		ConsentCookie: c.Cookies(ConsentCookie) == "yes",
		UserAgent:     c.Get(fiber.HeaderUserAgent),
		Now:           time.Now(),
	}
}

func setSessionCookie(c *fiber.Ctx, key string) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    key,
		Path:     "/",
		MaxAge:   int(quota.SessionTTL.Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// CitationHandler serves /:series/:volume/:page/ and the case-id variant.
func CitationHandler(svc *service.CaseAccess, geo service.Geolocator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		req := buildRequest(c)
		req.SeriesSlug = c.Params("series")
		req.VolumeSlug = c.Params("volume")
		req.Page = c.Params("page")
		if idStr := c.Params("caseID"); idStr != "" {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return c.Status(fiber.StatusNotFound).SendString("Case not found")
			}
			req.CaseID = id
		}

		out, err := svc.Serve(ctx, req)
		if err != nil {
			log.Printf("Error serving citation %s: %v", c.OriginalURL(), err)
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading case")
		}

		if out.NewSessionKey != "" {
			setSessionCookie(c, out.NewSessionKey)
		}

		switch out.Kind {
		case service.KindRedirect:
			return c.Redirect(out.Location, fiber.StatusFound)
		case service.KindNotFound:
			return c.Status(fiber.StatusNotFound).SendString("Case not found")
		case service.KindCitationFailed:
			page := templates.CitationFailed(out.CitationFailed)
			return adaptor.HTTPHandler(templ.Handler(page))(c)
		default:
			logReaderLocation(c, geo, out.Page)
			page := templates.CasePage(out.Page)
			return adaptor.HTTPHandler(templ.Handler(page))(c)
		}
	}
}

// PDFHandler serves /cases/:caseID/pdf/:name. All quota and access rules of
// the case pipeline apply before any bytes are returned.
func PDFHandler(svc *service.CaseAccess) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(c.Params("caseID"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Case not found")
		}

		req := buildRequest(c)
		req.CaseID = id
		req.PDF = true
		req.Path = c.Path()

		out, err := svc.Serve(ctx, req)
		if err != nil {
			log.Printf("Error serving pdf for case %d: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading case")
		}

		if out.NewSessionKey != "" {
			setSessionCookie(c, out.NewSessionKey)
		}

		switch out.Kind {
		case service.KindRedirect:
			return c.Redirect(out.Location, fiber.StatusFound)
		case service.KindPDF:
			c.Set(fiber.HeaderContentType, "application/pdf")
			return c.Send(out.PDFBytes)
		default:
			return c.Status(fiber.StatusNotFound).SendString("PDF not available")
		}
	}
}

// logReaderLocation logs an aggregate "someone from X read a case from Y"
// line when geolocation is enabled. The forwarded-for header is trusted
// here: inaccurate self-reports only skew a log line.
func logReaderLocation(c *fiber.Ctx, geo service.Geolocator, page *service.CasePage) {
	if geo == nil || page == nil {
		return
	}
	forwarded := c.Get(fiber.HeaderXForwardedFor)
	if forwarded == "" {
		return
	}
	parts := strings.Split(forwarded, ",")
	ip := strings.TrimSpace(parts[len(parts)-1])

	location, err := geo.Locate(ip)
	if err != nil {
		log.Printf("Unable to geolocate %s: %v", ip, err)
		return
	}
	court := ""
	if page.Case.CourtName.Valid {
		court = page.Case.CourtName.String
	}
	log.Printf("Someone from %s read a case from %s.", location, court)
}
