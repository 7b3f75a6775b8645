package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/opencaselaw/cite/internal/access"
	"github.com/opencaselaw/cite/internal/model"
	"github.com/opencaselaw/cite/internal/quota"
	"github.com/opencaselaw/cite/internal/redact"
)

// Casebody status values carried to the template. A non-ok status renders a
// sign-in prompt instead of the case text.
const (
	StatusOK           = "ok"
	StatusAuthRequired = "error_auth_required"
)

// CaseLookup is the case index collaborator.
type CaseLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Case, error)
	GetByNormalizedCite(ctx context.Context, cite string) ([]model.Case, error)
	GetReporterBySlug(ctx context.Context, slug string) (*model.Reporter, error)
}

// ErrPDFUnavailable is returned by a PDFSource when the volume scan cannot
// be read.
var ErrPDFUnavailable = errors.New("pdf unavailable")

// PDFSource supplies the scanned volume PDF for a case.
type PDFSource interface {
	Get(ctx context.Context, kase *model.Case) ([]byte, error)
}

// Config carries the environment-level knobs of the access pipeline.
type Config struct {
	DailyAllowance int
	PDFEnabled     bool
}

// Request is one incoming case request, already parsed out of the transport
// layer.
type Request struct {
	SeriesSlug string
	VolumeSlug string
	Page       string
	CaseID     int64 // 0 when the URL carries no case id

	// Path is the originally requested path with query, used for canonical
	// comparison and as the post-consent redirect target.
	Path string

	Authenticated bool
	SessionKey    string // quota session cookie value, "" if absent
	ConsentCookie bool   // not_a_bot cookie present
	UserAgent     string

	PDF bool // request for the PDF variant

	Now time.Time
}

// Kind discriminates Outcome variants.
type Kind int

const (
	KindCase Kind = iota
	KindRedirect
	KindNotFound
	KindCitationFailed
	KindPDF
)

// MetaTag is an indexing directive emitted into the page head.
type MetaTag struct {
	Name    string
	Content string
}

// CasePage is the assembled payload handed to the renderer.
type CasePage struct {
	Case                  *model.Case
	Status                string
	Body                  string
	Name                  string
	PlainName             string
	PlainNameAbbreviation string
	CanRenderPDF          bool
	MetaTags              []MetaTag
	QuotaRemaining        int // meaningful only after a granted quota check
	QuotaApplied          bool
}

// CitationFailedPage lists whatever candidates a non-unique citation lookup
// found.
type CitationFailedPage struct {
	Cases      []model.Case
	FullCite   string
	Series     string
	SeriesSlug string
	VolumeSlug string
	Page       string
}

// Outcome is the result of serving one request.
type Outcome struct {
	Kind           Kind
	Page           *CasePage
	CitationFailed *CitationFailedPage
	Location       string // redirect target for KindRedirect
	PDFBytes       []byte
	// NewSessionKey is non-empty when a fresh quota session was created and
	// the transport must set the session cookie.
	NewSessionKey string
}

// CaseAccess orchestrates citation resolution, access-tier dispatch, quota
// accounting and redaction.
type CaseAccess struct {
	lookup  CaseLookup
	quota   quota.Store
	crawler access.CrawlerDetector
	engine  *redact.Engine
	pdfs    PDFSource
	cfg     Config
}

// NewCaseAccess creates the service.
func NewCaseAccess(lookup CaseLookup, quotaStore quota.Store, crawler access.CrawlerDetector, pdfs PDFSource, cfg Config) *CaseAccess {
	return &CaseAccess{
		lookup:  lookup,
		quota:   quotaStore,
		crawler: crawler,
		engine:  redact.NewEngine(),
		pdfs:    pdfs,
		cfg:     cfg,
	}
}

// Serve handles one case request end to end.
func (s *CaseAccess) Serve(ctx context.Context, req Request) (*Outcome, error) {
	// Canonical slug check happens before any lookup. PDF URLs carry the
	// case id only; their canonical check needs the case and happens below.
	if !req.PDF {
		seriesSlug := Slugify(req.SeriesSlug)
		volumeSlug := Slugify(req.VolumeSlug)
		if seriesSlug != req.SeriesSlug || volumeSlug != req.VolumeSlug {
			location := fmt.Sprintf("/%s/%s/%s/", seriesSlug, volumeSlug, req.Page)
			if req.CaseID != 0 {
				location = fmt.Sprintf("%s%d/", location, req.CaseID)
			}
			return &Outcome{Kind: KindRedirect, Location: location}, nil
		}
	}

	kase, outcome, err := s.resolveCase(ctx, req)
	if err != nil || outcome != nil {
		return outcome, err
	}

	if req.PDF {
		if canonical := kase.PDFPath(); req.Path != canonical {
			return &Outcome{Kind: KindRedirect, Location: canonical}, nil
		}
	}

	page, outcome, err := s.applyAccessPolicy(ctx, req, kase)
	if err != nil || outcome != nil {
		return outcome, err
	}

	res, err := s.engine.Apply(kase.ID, page.Body, kase.Name, kase.NameAbbreviation,
		kase.CustomFooterMessage.String, kase.Redactions, kase.Elisions)
	if err != nil {
		return nil, err
	}
	page.Body = res.Body
	page.Name = res.Name
	page.PlainName = res.PlainName
	page.PlainNameAbbreviation = res.PlainNameAbbreviation

	page.CanRenderPDF = s.cfg.PDFEnabled &&
		kase.Volume.PDFPath.Valid && kase.Volume.PDFPath.String != "" &&
		!kase.IndexRedacted()

	if req.PDF {
		// The PDF shows the original page images, so it is only served
		// once the body pipeline confirms this reader may see the case.
		if page.Status != StatusOK {
			return &Outcome{Kind: KindRedirect, Location: kase.FrontendPath()}, nil
		}
		if !page.CanRenderPDF {
			return &Outcome{Kind: KindNotFound}, nil
		}
		bytes, err := s.pdfs.Get(ctx, kase)
		if errors.Is(err, ErrPDFUnavailable) {
			return &Outcome{Kind: KindNotFound}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load pdf for case %d: %w", kase.ID, err)
		}
		return &Outcome{Kind: KindPDF, PDFBytes: bytes}, nil
	}

	if !kase.Jurisdiction.Whitelisted {
		// Cached copies of quota-limited cases must not be served from
		// search results.
		page.MetaTags = append(page.MetaTags, MetaTag{Name: "googlebot", Content: "noarchive"})
	}
	if kase.NoIndex {
		page.MetaTags = append(page.MetaTags, MetaTag{Name: "robots", Content: "noindex"})
	}

	return &Outcome{Kind: KindCase, Page: page}, nil
}

// resolveCase finds the case by id or citation. A non-nil Outcome means the
// resolution itself produced the response (not found or citation-failed).
func (s *CaseAccess) resolveCase(ctx context.Context, req Request) (*model.Case, *Outcome, error) {
	if req.CaseID != 0 {
		kase, err := s.lookup.GetByID(ctx, req.CaseID)
		if err != nil {
			return nil, nil, err
		}
		if kase == nil {
			return nil, &Outcome{Kind: KindNotFound}, nil
		}
		return kase, nil, nil
	}

	fullCite := FullCite(req.SeriesSlug, req.VolumeSlug, req.Page)
	cases, err := s.lookup.GetByNormalizedCite(ctx, NormalizeCite(fullCite))
	if err != nil {
		return nil, nil, err
	}
	if len(cases) == 1 {
		return &cases[0], nil, nil
	}

	// Zero or multiple matches: render the citation-failed page with
	// whatever candidates exist. Not an error.
	series := req.SeriesSlug
	if reporter, err := s.lookup.GetReporterBySlug(ctx, Slugify(req.SeriesSlug)); err == nil && reporter != nil {
		series = reporter.ShortName
	}
	return nil, &Outcome{
		Kind: KindCitationFailed,
		CitationFailed: &CitationFailedPage{
			Cases:      cases,
			FullCite:   fullCite,
			Series:     series,
			SeriesSlug: req.SeriesSlug,
			VolumeSlug: req.VolumeSlug,
			Page:       req.Page,
		},
	}, nil
}

// applyAccessPolicy resolves the access tier and produces the page shell
// with the privilege-appropriate body. A non-nil Outcome short-circuits
// (consent-cookie redirect).
func (s *CaseAccess) applyAccessPolicy(ctx context.Context, req Request, kase *model.Case) (*CasePage, *Outcome, error) {
	whitelisted := kase.Jurisdiction.Whitelisted

	sessionReady := false
	if !whitelisted && !req.Authenticated && req.ConsentCookie && req.SessionKey != "" {
		exists, err := s.quota.Exists(ctx, req.SessionKey)
		if err != nil {
			// A quota-store outage degrades the reader to the cookie flow
			// rather than failing the page.
			log.Printf("quota store unavailable for session check: %v", err)
		}
		sessionReady = exists
	}

	tier := access.Resolve(whitelisted, req.Authenticated, sessionReady, s.crawler.IsCrawler(req.UserAgent))

	page := &CasePage{Case: kase, Status: StatusOK, Body: kase.Body}

	switch tier {
	case access.TierFull, access.TierCrawler:
		return page, nil, nil

	case access.TierQuotaCheck:
		granted, remaining, err := s.quota.CheckAndDecrement(ctx, req.SessionKey, req.Now, s.cfg.DailyAllowance)
		if err != nil {
			return nil, nil, fmt.Errorf("quota check failed: %w", err)
		}
		if granted {
			page.QuotaApplied = true
			page.QuotaRemaining = remaining
			return page, nil, nil
		}
		// Quota exhausted: fall back to the credential-checked
		// serialization. For an anonymous reader on a non-whitelisted
		// case that means a restricted body.
		page.Status = StatusAuthRequired
		page.Body = ""
		return page, nil, nil

	default: // access.TierDeniedNeedsCookie
		key := req.SessionKey
		newKey := ""
		if key == "" {
			key = uuid.NewString()
			newKey = key
		}
		if err := s.quota.Init(ctx, key, s.cfg.DailyAllowance, req.Now); err != nil {
			return nil, nil, fmt.Errorf("failed to init quota session: %w", err)
		}
		location := "/set-cookie/?" + url.Values{"next": {req.Path}}.Encode()
		return nil, &Outcome{Kind: KindRedirect, Location: location, NewSessionKey: newKey}, nil
	}
}
