// Package redact applies a case's redaction and elision rules to its body
// and name before rendering.
//
// Rules are applied sequentially in list order: redactions first, then
// elisions, each rule replacing every occurrence in the current text. Later
// rules therefore operate on the output of earlier ones, and a replacement
// value that happens to match a later pattern will be re-matched. That
// order-sensitivity is the contract, not an accident; rule authors control
// interactions through rule order.
package redact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/opencaselaw/cite/internal/model"
)

// InvalidPatternError reports an uncompilable redaction or elision pattern
// on a case record. This must fail the render: silently skipping a rule
// would expose text the rule was meant to hide.
type InvalidPatternError struct {
	CaseID  int64
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("case %d: invalid pattern %q: %v", e.CaseID, e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// Result holds the transformed case text.
type Result struct {
	// Body is the case body with redaction markers, elision placeholders
	// and any footer appended.
	Body string
	// Name is the display name with redaction and elision markup.
	Name string
	// PlainName is the indexable name: redactions bracketed, elisions
	// replaced by a literal ellipsis, no markup.
	PlainName string
	// PlainNameAbbreviation is the indexable abbreviation, same rules as
	// PlainName.
	PlainNameAbbreviation string
	// Redacted and Elided report whether any rule of each kind existed.
	Redacted bool
	Elided   bool
}

const elisionSpan = "<span class='elision-help-text' style='display: none'>hide</span>" +
	"<span class='elided-text' data-elision-reason='%s' role='button' tabindex='0' " +
	"data-hidden-text='%s' data-elision-id='%d'>...</span>"

// Engine applies redaction and elision rules.
type Engine struct{}

// NewEngine creates a redaction engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Apply transforms the case text. caseID is only used to attribute pattern
// errors. Replacement values are inserted literally; they are not regexp
// templates.
func (e *Engine) Apply(caseID int64, body, name, nameAbbrev, customFooter string, redactions, elisions model.RuleList) (*Result, error) {
	res := &Result{
		Body:                  body,
		Name:                  name,
		PlainName:             name,
		PlainNameAbbreviation: nameAbbrev,
		Redacted:              len(redactions) > 0,
		Elided:                len(elisions) > 0,
	}

	for i, rule := range redactions {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, &InvalidPatternError{CaseID: caseID, Pattern: rule.Pattern, Err: err}
		}

		marker := fmt.Sprintf("<span class='redacted-text' data-redaction-id='%d'>%s</span>", i, rule.Value)
		res.Body = re.ReplaceAllLiteralString(res.Body, marker)

		bracketed := fmt.Sprintf("[ %s ]", rule.Value)
		res.Name = re.ReplaceAllLiteralString(res.Name, bracketed)
		res.PlainNameAbbreviation = re.ReplaceAllLiteralString(res.PlainNameAbbreviation, bracketed)
	}
	// The redacted name is also the indexable name.
	res.PlainName = res.Name

	for i, rule := range elisions {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, &InvalidPatternError{CaseID: caseID, Pattern: rule.Pattern, Err: err}
		}

		placeholder := fmt.Sprintf(elisionSpan, rule.Value, rule.Pattern, i)
		res.Body = re.ReplaceAllLiteralString(res.Body, placeholder)
		res.Name = re.ReplaceAllLiteralString(res.Name, placeholder)

		res.PlainName = re.ReplaceAllLiteralString(res.PlainName, "...")
		res.PlainNameAbbreviation = re.ReplaceAllLiteralString(res.PlainNameAbbreviation, "...")
	}

	if footer := e.footer(customFooter, res.Redacted, res.Elided); footer != "" {
		res.Body += fmt.Sprintf("<hr/><footer class='custom-case-footer'>%s</footer>", footer)
	}

	return res, nil
}

// footer returns the footer text with line breaks converted to <br/> tags.
// When the case has no explicit footer but rules exist, a generated notice
// takes its place.
func (e *Engine) footer(custom string, redacted, elided bool) string {
	message := custom
	if message == "" {
		if redacted {
			message += "Some text has been redacted by request of participating parties. \n"
		}
		if elided {
			message += "Some text has been elided by request of participating parties. \n"
		}
	}
	if message == "" {
		return ""
	}
	return strings.ReplaceAll(message, "\n", "<br/>")
}
