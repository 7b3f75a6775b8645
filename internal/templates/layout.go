// Package templates holds the site's templ components. Pages are small
// server-rendered documents; components are hand-written ComponentFuncs
// sharing one layout.
package templates

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/opencaselaw/cite/internal/service"
)

func esc(s string) string { return html.EscapeString(s) }

// layout wraps a page body with the shared document shell.
func layout(title string, metaTags []service.MetaTag, body func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
`, esc(title)); err != nil {
			return err
		}
		for _, tag := range metaTags {
			if _, err := fmt.Fprintf(w, "<meta name=\"%s\" content=\"%s\">\n", esc(tag.Name), esc(tag.Content)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "<link rel=\"stylesheet\" href=\"/static/cite.css\">\n</head>\n<body>\n<main>\n"); err != nil {
			return err
		}
		if err := body(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main>\n</body>\n</html>\n")
		return err
	})
}
