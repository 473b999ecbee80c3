// Package fields defines the closed catalogue of contact-form fields, the
// ordered field sets a widget is configured with and the ordered value maps
// that are submitted as JSON.
package fields

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/formify/internal/errors"
)

// Field names one input of the widget.
type Field string

const (
	Name    Field = "name"
	Email   Field = "email"
	Twitter Field = "twitter"
	Website Field = "website"
	Message Field = "message"
)

var catalogue = []Field{Name, Email, Twitter, Website, Message}

// labels is filled once: a cases.Caser is stateful and must not be shared
// between goroutines.
var labels = func() map[Field]string {
	caser := cases.Title(language.English)
	m := make(map[Field]string, len(catalogue))
	for _, f := range catalogue {
		m[f] = caser.String(string(f))
	}
	return m
}()

// All returns every known field in catalogue order.
func All() []Field {
	out := make([]Field, len(catalogue))
	copy(out, catalogue)
	return out
}

// Valid reports whether f is part of the catalogue.
func (f Field) Valid() bool {
	for _, known := range catalogue {
		if f == known {
			return true
		}
	}
	return false
}

func (f Field) String() string { return string(f) }

// Label is the capitalised field name used as placeholder and aria label.
func (f Field) Label() string {
	if label, ok := labels[f]; ok {
		return label
	}
	return cases.Title(language.English).String(string(f))
}

// Multiline reports whether the field is rendered as a textarea.
func (f Field) Multiline() bool { return f == Message }

// InputType is the HTML input type for single-line fields.
func (f Field) InputType() string {
	if f == Email {
		return "email"
	}
	return "text"
}

// Parse resolves a field name. Surrounding space and case are ignored.
// Unknown names produce an ERR_UNKNOWN_FIELD error carrying the closest
// known name, if one is near enough.
func Parse(name string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(name)))
	if f.Valid() {
		return f, nil
	}
	suggestion, _ := Suggest(name)
	return "", errors.ErrUnknownField(name, string(suggestion))
}

// Suggest returns the catalogue field closest to name by edit distance.
// The second result is false when nothing is within two edits.
func Suggest(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	best, bestDist := Field(""), 3
	for _, f := range catalogue {
		if d := levenshtein.ComputeDistance(name, string(f)); d < bestDist {
			best, bestDist = f, d
		}
	}
	return best, best != ""
}
