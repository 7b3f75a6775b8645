package templates

import (
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/opencaselaw/cite/internal/model"
)

// JurisdictionReporters pairs a jurisdiction with its reporter series for
// the home page.
type JurisdictionReporters struct {
	Jurisdiction model.Jurisdiction
	Reporters    []model.Reporter
}

// Home lists every jurisdiction with its reporter series.
func Home(jurisdictions []JurisdictionReporters, totalCases, totalReporters int) templ.Component {
	return layout("Case citations", nil, func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<h1>Browse %d cases across %d reporter series</h1>\n",
			totalCases, totalReporters); err != nil {
			return err
		}
		for _, entry := range jurisdictions {
			if _, err := fmt.Fprintf(w, "<h2>%s</h2>\n<ul>\n", esc(entry.Jurisdiction.NameLong)); err != nil {
				return err
			}
			for _, reporter := range entry.Reporters {
				if _, err := fmt.Fprintf(w, "<li><a href=\"/%s/\">%s</a> (%s)</li>\n",
					reporter.ShortNameSlug, esc(reporter.ShortName), esc(reporter.FullName)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, "</ul>\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

// Series lists the volumes of one reporter series.
func Series(reporter *model.Reporter, volumes []model.Volume) templ.Component {
	return layout(reporter.ShortName, nil, func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<h1>%s</h1>\n<p>%s</p>\n<ul>\n",
			esc(reporter.ShortName), esc(reporter.FullName)); err != nil {
			return err
		}
		for _, volume := range volumes {
			if _, err := fmt.Fprintf(w, "<li><a href=\"/%s/%s/\">Volume %s</a></li>\n",
				reporter.ShortNameSlug, volume.VolumeNumberSlug, esc(volume.VolumeNumber)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</ul>\n")
		return err
	})
}

// Volume lists the cases of one volume, ordered by first page.
func Volume(seriesSlug, volumeSlug string, cases []model.Case) templ.Component {
	title := fmt.Sprintf("Volume %s", volumeSlug)
	return layout(title, nil, func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<h1>%s</h1>\n<ul>\n", esc(title)); err != nil {
			return err
		}
		for i := range cases {
			kase := &cases[i]
			if _, err := fmt.Fprintf(w, "<li><a href=\"%s\">%s</a>, %s %s %s</li>\n",
				kase.FrontendPath(), esc(kase.NameAbbreviation),
				esc(kase.Volume.VolumeNumber), esc(kase.Reporter.ShortName), esc(kase.FirstPage)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</ul>\n")
		return err
	})
}

// SetCookie renders the consent page. With js enabled the form submits
// itself; without it the reader clicks the button.
func SetCookie(next string, noJS bool) templ.Component {
	return layout("One more step", nil, func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>Welcome</h1>
<p>To keep this archive available to everyone we limit the number of
full cases anonymous readers can view each day. Click below to continue.</p>
<form id="consent-form" method="post" action="/set-cookie/">
<input type="hidden" name="next" value="%s">
<input type="hidden" name="not_a_bot" value="yes">
<button type="submit">Continue to case</button>
</form>
`, esc(next)); err != nil {
			return err
		}
		if !noJS {
			_, err := io.WriteString(w, "<script>document.getElementById('consent-form').submit();</script>\n")
			return err
		}
		return nil
	})
}
