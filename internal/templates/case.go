package templates

import (
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/opencaselaw/cite/internal/service"
)

// CasePage renders a single case. The body and name carry pre-built
// redaction and elision markup and are written unescaped; citation and
// court metadata are escaped.
func CasePage(page *service.CasePage) templ.Component {
	kase := page.Case
	return layout(page.PlainName, page.MetaTags, func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<article class=\"case\">\n<h1 class=\"case-name\">%s</h1>\n", page.Name); err != nil {
			return err
		}

		if _, err := io.WriteString(w, "<p class=\"case-cites\">"); err != nil {
			return err
		}
		for i, cite := range kase.Citations {
			if i > 0 {
				if _, err := io.WriteString(w, ", "); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, esc(cite.Cite)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</p>\n"); err != nil {
			return err
		}

		if kase.CourtName.Valid {
			if _, err := fmt.Fprintf(w, "<p class=\"case-court\">%s</p>\n", esc(kase.CourtName.String)); err != nil {
				return err
			}
		}
		if kase.DecisionDate.Valid {
			if _, err := fmt.Fprintf(w, "<p class=\"case-date\">%s</p>\n", esc(kase.DecisionDate.String)); err != nil {
				return err
			}
		}

		if page.CanRenderPDF {
			if _, err := fmt.Fprintf(w, "<p class=\"case-pdf\"><a href=\"%s\">View PDF</a></p>\n", kase.PDFPath()); err != nil {
				return err
			}
		}

		if page.Status != service.StatusOK {
			if _, err := io.WriteString(w, `<div class="case-restricted">
<p>You have reached your daily limit of free case views.
<a href="/user/login/">Sign in</a> to keep reading, or come back tomorrow.</p>
</div>
`); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, "<section class=\"casebody\">\n%s\n</section>\n", page.Body); err != nil {
			return err
		}

		if page.QuotaApplied {
			if _, err := fmt.Fprintf(w, "<p class=\"quota-notice\">Free cases remaining today: %d</p>\n", page.QuotaRemaining); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</article>\n")
		return err
	})
}

// CitationFailed renders the page for a citation that resolved to zero or
// multiple cases.
func CitationFailed(page *service.CitationFailedPage) templ.Component {
	return layout("Citation not found", nil, func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<h1>Citation \"%s\"</h1>\n", esc(page.FullCite)); err != nil {
			return err
		}
		if len(page.Cases) == 0 {
			if _, err := fmt.Fprintf(w, "<p>We don't have any cases cited as %s in %s.</p>\n",
				esc(page.FullCite), esc(page.Series)); err != nil {
				return err
			}
			return nil
		}

		if _, err := io.WriteString(w, "<p>Multiple cases match this citation:</p>\n<ul>\n"); err != nil {
			return err
		}
		for i := range page.Cases {
			kase := &page.Cases[i]
			if _, err := fmt.Fprintf(w, "<li><a href=\"%s\">%s</a></li>\n",
				kase.FrontendPath(), esc(kase.Name)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</ul>\n")
		return err
	})
}
