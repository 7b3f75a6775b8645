package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencaselaw/cite/internal/access"
	"github.com/opencaselaw/cite/internal/model"
	"github.com/opencaselaw/cite/internal/quota"
	"github.com/opencaselaw/cite/internal/service"
)

type stubLookup struct {
	cases  map[int64]*model.Case
	byCite map[string][]model.Case
}

func (s *stubLookup) GetByID(_ context.Context, id int64) (*model.Case, error) {
	return s.cases[id], nil
}

func (s *stubLookup) GetByNormalizedCite(_ context.Context, cite string) ([]model.Case, error) {
	return s.byCite[cite], nil
}

func (s *stubLookup) GetReporterBySlug(context.Context, string) (*model.Reporter, error) {
	return nil, nil
}

type stubPDFs struct{}

func (stubPDFs) Get(context.Context, *model.Case) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

func whitelistedCase() *model.Case {
	return &model.Case{
		ID:               100,
		Name:             "Smith v. Jones",
		NameAbbreviation: "Smith v. Jones",
		Body:             "<p>Opinion text.</p>",
		FirstPage:        "1",
		Volume:           model.Volume{VolumeNumber: "1", VolumeNumberSlug: "1"},
		Reporter:         model.Reporter{ShortName: "Ill. 2d", ShortNameSlug: "ill-2d"},
		Jurisdiction:     model.Jurisdiction{Name: "ill", Whitelisted: true},
	}
}

func newApp(lookup service.CaseLookup, quotaStore quota.Store) *fiber.App {
	return newGeoApp(lookup, quotaStore, nil)
}

func newGeoApp(lookup service.CaseLookup, quotaStore quota.Store, geo service.Geolocator) *fiber.App {
	svc := service.NewCaseAccess(lookup, quotaStore, access.UserAgentDetector{}, stubPDFs{}, service.Config{
		DailyAllowance: 2,
		PDFEnabled:     true,
	})

	app := fiber.New()
	app.Get("/set-cookie/", SetCookieHandler(quotaStore, access.UserAgentDetector{}))
	app.Post("/set-cookie/", SetCookieHandler(quotaStore, access.UserAgentDetector{}))
	app.Get("/:series/:volume/:page/", CitationHandler(svc, geo))
	app.Get("/:series/:volume/:page/:caseID/", CitationHandler(svc, geo))
	return app
}

func TestCitationCanonicalRedirect(t *testing.T) {
	app := newApp(&stubLookup{}, quota.NewMemoryStore())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/Illinois-2D/1/1/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/illinois-2d/1/1/", resp.Header.Get("Location"))
}

func TestCitationWhitelistedCase(t *testing.T) {
	kase := whitelistedCase()
	lookup := &stubLookup{byCite: map[string][]model.Case{"1ill2d1": {*kase}}}
	app := newApp(lookup, quota.NewMemoryStore())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ill-2d/1/1/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Smith v. Jones")
	assert.Contains(t, string(body), "Opinion text.")
}

func TestCitationAnonymousRedirectsToConsent(t *testing.T) {
	kase := whitelistedCase()
	kase.Jurisdiction.Whitelisted = false
	lookup := &stubLookup{byCite: map[string][]model.Case{"1ill2d1": {*kase}}}
	app := newApp(lookup, quota.NewMemoryStore())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ill-2d/1/1/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/set-cookie/", location.Path)
	assert.Equal(t, "/ill-2d/1/1/", location.Query().Get("next"))

	cookies := resp.Cookies()
	var sessionCookie *http.Cookie
	for _, cookie := range cookies {
		if cookie.Name == SessionCookie {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie, "a quota session cookie is set")
	assert.NotEmpty(t, sessionCookie.Value)
}

func TestCitationNotFoundPage(t *testing.T) {
	lookup := &stubLookup{}
	app := newApp(lookup, quota.NewMemoryStore())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ill-2d/9/999/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "citation failed renders a page, not an error")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "9 Ill 2d 999")
}

func TestSetCookiePostSetsConsent(t *testing.T) {
	app := newApp(&stubLookup{}, quota.NewMemoryStore())

	form := url.Values{"not_a_bot": {"yes"}, "next": {"/ill-2d/1/1/"}}
	req := httptest.NewRequest(http.MethodPost, "/set-cookie/?"+form.Encode(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/ill-2d/1/1/", resp.Header.Get("Location"))

	found := false
	for _, cookie := range resp.Cookies() {
		if cookie.Name == ConsentCookie && cookie.Value == "yes" {
			found = true
		}
	}
	assert.True(t, found, "consent cookie is set on POST")
}

func TestSetCookieRendersConsentPage(t *testing.T) {
	app := newApp(&stubLookup{}, quota.NewMemoryStore())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/set-cookie/?next=/ill-2d/1/1/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "consent-form")
}

func TestSetCookieCrawlerBypasses(t *testing.T) {
	app := newApp(&stubLookup{}, quota.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/set-cookie/?next=/ill-2d/1/1/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1)")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/ill-2d/1/1/", resp.Header.Get("Location"))
}

type stubGeolocator struct {
	ips []string
}

func (g *stubGeolocator) Locate(ip string) (string, error) {
	g.ips = append(g.ips, ip)
	return "Springfield, United States", nil
}

func TestCitationLogsReaderLocation(t *testing.T) {
	kase := whitelistedCase()
	kase.CourtName = sql.NullString{String: "Illinois Supreme Court", Valid: true}
	lookup := &stubLookup{byCite: map[string][]model.Case{"1ill2d1": {*kase}}}
	geo := &stubGeolocator{}
	app := newGeoApp(lookup, quota.NewMemoryStore(), geo)

	var logged bytes.Buffer
	log.SetOutput(&logged)
	defer log.SetOutput(os.Stderr)

	req := httptest.NewRequest(http.MethodGet, "/ill-2d/1/1/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.4")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The rightmost forwarded address is the one the proxy appended.
	assert.Equal(t, []string{"198.51.100.4"}, geo.ips)
	assert.Contains(t, logged.String(),
		"Someone from Springfield, United States read a case from Illinois Supreme Court.")
}

func TestCitationSkipsGeolocationWithoutForwardedFor(t *testing.T) {
	kase := whitelistedCase()
	lookup := &stubLookup{byCite: map[string][]model.Case{"1ill2d1": {*kase}}}
	geo := &stubGeolocator{}
	app := newGeoApp(lookup, quota.NewMemoryStore(), geo)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ill-2d/1/1/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, geo.ips)
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/ill-2d/1/1/", "/ill-2d/1/1/"},
		{"", "/"},
		{"https://evil.com", "/"},
		{"//evil.com", "/"},
		{"/\\evil.com", "/"},
		{"relative/path", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeNext(tt.in), "safeNext(%q)", tt.in)
	}
}
