package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/opencaselaw/cite/internal/access"
	"github.com/opencaselaw/cite/internal/quota"
	"github.com/opencaselaw/cite/internal/templates"
)

// consentCookieMaxAge is effectively forever; passing the check once is
// enough.
const consentCookieMaxAge = 60 * 60 * 24 * 365 * 100

// safeNext returns the post-consent redirect target. Only site-relative
// paths are allowed; anything else falls back to the root to keep the
// endpoint from being used as an open redirect.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return "/"
	}
	// "//host" and "/\host" are scheme-relative in browsers.
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func nextParam(c *fiber.Ctx) string {
	if next := c.FormValue("next"); next != "" {
		return next
	}
	return c.Query("next")
}

// SetCookieHandler runs the consent-cookie flow that gates anonymous quota
// sessions.
func SetCookieHandler(quotaStore quota.Store, detector access.CrawlerDetector) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()
		next := safeNext(nextParam(c))

		// Crawlers never get quota sessions; send them on their way.
		if detector.IsCrawler(c.Get(fiber.HeaderUserAgent)) {
			return c.Redirect(next, fiber.StatusFound)
		}

		// Already set up: session exists and consent cookie present.
		sessionKey := c.Cookies(SessionCookie)
		if sessionKey != "" && c.Cookies(ConsentCookie) == "yes" {
			if exists, err := quotaStore.Exists(ctx, sessionKey); err == nil && exists {
				return c.Redirect(next, fiber.StatusFound)
			}
		}

		// Reader confirmed they are not a bot.
		if c.Method() == fiber.MethodPost && c.FormValue("not_a_bot") == "yes" {
			c.Cookie(&fiber.Cookie{
				Name:     ConsentCookie,
				Value:    "yes",
				Path:     "/",
				MaxAge:   consentCookieMaxAge,
				Expires:  time.Now().Add(consentCookieMaxAge * time.Second),
				SameSite: fiber.CookieSameSiteLaxMode,
			})
			return c.Redirect(next, fiber.StatusFound)
		}

		// JS check failed; ask for a manual click.
		noJS := c.Query("no_js") != ""
		page := templates.SetCookie(next, noJS)
		return adaptor.HTTPHandler(templ.Handler(page))(c)
	}
}
