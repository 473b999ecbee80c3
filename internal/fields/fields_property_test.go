//go:build property
// +build property

package fields

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestFieldSetProperties checks field-set and value invariants over random
// permutations of the catalogue.
func TestFieldSetProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	permutation := gen.SliceOfN(5, gen.IntRange(0, len(catalogue)-1)).
		Map(func(indexes []int) []string {
			seen := map[int]bool{}
			out := make([]string, 0, len(indexes))
			for _, i := range indexes {
				if !seen[i] {
					seen[i] = true
					out = append(out, string(catalogue[i]))
				}
			}
			return out
		})

	// Property: marshalled keys appear in configured order
	properties.Property("json keys follow field order", prop.ForAll(
		func(names []string) bool {
			set, err := NewSet(names...)
			if err != nil {
				return false
			}
			data, err := json.Marshal(NewValues(set))
			if err != nil {
				return false
			}
			last := -1
			for _, n := range names {
				idx := strings.Index(string(data), `"`+n+`"`)
				if idx <= last {
					return false
				}
				last = idx
			}
			return true
		},
		permutation,
	))

	// Property: a fresh value map reports every field as empty
	properties.Property("new values are all empty", prop.ForAll(
		func(names []string) bool {
			set := MustSet(names...)
			return len(NewValues(set).Empty()) == set.Len()
		},
		permutation,
	))

	// Property: filling every field leaves nothing empty, reset restores all
	properties.Property("fill then reset", prop.ForAll(
		func(names []string, value string) bool {
			if value == "" {
				return true
			}
			v := NewValues(MustSet(names...))
			for _, f := range v.Fields() {
				if err := v.Set(f, value); err != nil {
					return false
				}
			}
			if len(v.Empty()) != 0 {
				return false
			}
			v.Reset()
			return len(v.Empty()) == len(names)
		},
		permutation,
		gen.AlphaString(),
	))

	// Property: duplicated names are always rejected
	properties.Property("duplicates rejected", prop.ForAll(
		func(names []string) bool {
			_, err := NewSet(append(names, names[0])...)
			return err != nil
		},
		permutation,
	))

	properties.TestingRun(t)
}
