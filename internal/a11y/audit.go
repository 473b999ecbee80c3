// Package a11y audits rendered widget markup for basic accessibility
// problems: form controls without a label or placeholder, buttons without
// an accessible name and duplicate ids.
package a11y

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/conneroisu/formify/internal/logging"
)

// Severity of a violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule identifiers.
const (
	RuleControlLabel       = "control-label"
	RuleControlPlaceholder = "control-placeholder"
	RuleButtonName         = "button-name"
	RuleDuplicateID        = "duplicate-id"
)

// Rule describes one check.
type Rule struct {
	ID       string
	WCAG     string
	Severity Severity
	Summary  string
}

// Rules lists every check in the order they run.
var Rules = []Rule{
	{RuleControlLabel, "3.3.2", SeverityError, "Form controls need an associated label"},
	{RuleControlPlaceholder, "3.3.2", SeverityWarning, "Form controls should show a placeholder"},
	{RuleButtonName, "4.1.2", SeverityError, "Buttons need an accessible name"},
	{RuleDuplicateID, "4.1.1", SeverityError, "Element ids must be unique"},
}

// Violation is one failed check on one element.
type Violation struct {
	Rule     string   `json:"rule"`
	WCAG     string   `json:"wcag"`
	Severity Severity `json:"severity"`
	Selector string   `json:"selector"`
	Message  string   `json:"message"`
}

// Report is the result of one audit.
type Report struct {
	Violations []Violation   `json:"violations"`
	Passed     []string      `json:"passed"`
	Duration   time.Duration `json:"duration"`
}

// HasErrors reports whether any error-severity violation was found.
func (r *Report) HasErrors() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Format renders the report for terminal output.
func (r *Report) Format() string {
	var b strings.Builder
	if len(r.Violations) == 0 {
		fmt.Fprintf(&b, "No accessibility issues found (%d rules passed)\n", len(r.Passed))
		return b.String()
	}
	fmt.Fprintf(&b, "%d accessibility issue(s):\n", len(r.Violations))
	for _, v := range r.Violations {
		fmt.Fprintf(&b, "  [%s] %s (WCAG %s) %s: %s\n", v.Severity, v.Rule, v.WCAG, v.Selector, v.Message)
	}
	return b.String()
}

// Auditor runs the rules over HTML.
type Auditor struct {
	logger logging.Logger
}

// NewAuditor creates an auditor; a nil logger discards output.
func NewAuditor(logger logging.Logger) *Auditor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Auditor{logger: logger.WithComponent("a11y")}
}

// Audit parses markup and checks it against Rules.
func (a *Auditor) Audit(ctx context.Context, markup string) (*Report, error) {
	start := time.Now()

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	elements := collect(doc)

	report := &Report{Violations: []Violation{}}
	for _, rule := range Rules {
		found := check(rule, elements)
		if len(found) == 0 {
			report.Passed = append(report.Passed, rule.ID)
			continue
		}
		report.Violations = append(report.Violations, found...)
	}
	report.Duration = time.Since(start)

	a.logger.Debug(ctx, "Accessibility audit completed",
		"violations", len(report.Violations),
		"passed_rules", len(report.Passed),
		"duration", report.Duration)
	return report, nil
}

func collect(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func check(rule Rule, elements []*html.Node) []Violation {
	violation := func(n *html.Node, msg string) Violation {
		return Violation{Rule: rule.ID, WCAG: rule.WCAG, Severity: rule.Severity, Selector: selector(n), Message: msg}
	}

	var out []Violation
	switch rule.ID {
	case RuleControlLabel:
		for _, n := range elements {
			if isControl(n) && !hasLabel(n, elements) {
				out = append(out, violation(n, "no <label>, aria-label or aria-labelledby"))
			}
		}
	case RuleControlPlaceholder:
		for _, n := range elements {
			if isControl(n) && strings.TrimSpace(attr(n, "placeholder")) == "" {
				out = append(out, violation(n, "missing placeholder"))
			}
		}
	case RuleButtonName:
		for _, n := range elements {
			if n.Data == "button" && !hasAccessibleName(n) {
				out = append(out, violation(n, "button has no text or aria-label"))
			}
		}
	case RuleDuplicateID:
		seen := make(map[string]int)
		for _, n := range elements {
			if id := attr(n, "id"); id != "" {
				seen[id]++
			}
		}
		var dups []string
		for id, count := range seen {
			if count > 1 {
				dups = append(dups, id)
			}
		}
		sort.Strings(dups)
		for _, id := range dups {
			out = append(out, Violation{
				Rule: rule.ID, WCAG: rule.WCAG, Severity: rule.Severity,
				Selector: "#" + id,
				Message:  fmt.Sprintf("id used %d times", seen[id]),
			})
		}
	}
	return out
}

func isControl(n *html.Node) bool {
	switch n.Data {
	case "textarea", "select":
		return true
	case "input":
		switch attr(n, "type") {
		case "hidden", "submit", "button", "reset", "image":
			return false
		}
		return true
	}
	return false
}

func hasLabel(n *html.Node, elements []*html.Node) bool {
	if hasAttr(n, "aria-label") || hasAttr(n, "aria-labelledby") {
		return true
	}
	if id := attr(n, "id"); id != "" {
		for _, el := range elements {
			if el.Data == "label" && attr(el, "for") == id {
				return true
			}
		}
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "label" {
			return true
		}
	}
	return false
}

func hasAccessibleName(n *html.Node) bool {
	if strings.TrimSpace(attr(n, "aria-label")) != "" || hasAttr(n, "aria-labelledby") {
		return true
	}
	return strings.TrimSpace(textContent(n)) != ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func selector(n *html.Node) string {
	if id := attr(n, "id"); id != "" {
		return n.Data + "#" + id
	}
	if name := attr(n, "name"); name != "" {
		return fmt.Sprintf("%s[name=%q]", n.Data, name)
	}
	if class := strings.Fields(attr(n, "class")); len(class) > 0 {
		return n.Data + "." + class[0]
	}
	return n.Data
}
