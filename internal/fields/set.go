package fields

import (
	"bytes"
	"encoding/json"

	"github.com/conneroisu/formify/internal/errors"
)

// Set is an ordered, duplicate-free list of fields. The zero value is empty.
type Set struct {
	fields []Field
}

// NewSet builds a Set from field names, keeping their order.
func NewSet(names ...string) (Set, error) {
	if len(names) == 0 {
		return Set{}, errors.NewValidationError(errors.ErrCodeNoFields, "at least one field is required")
	}

	seen := make(map[Field]bool, len(names))
	out := make([]Field, 0, len(names))
	for _, name := range names {
		f, err := Parse(name)
		if err != nil {
			return Set{}, err
		}
		if seen[f] {
			return Set{}, errors.ErrDuplicateField(string(f))
		}
		seen[f] = true
		out = append(out, f)
	}
	return Set{fields: out}, nil
}

// MustSet is NewSet for static field lists; it panics on error.
func MustSet(names ...string) Set {
	s, err := NewSet(names...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns a copy of the fields in order.
func (s Set) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of fields.
func (s Set) Len() int { return len(s.fields) }

// Has reports whether f is part of the set.
func (s Set) Has(f Field) bool {
	for _, have := range s.fields {
		if have == f {
			return true
		}
	}
	return false
}

// Strings returns the field names in order.
func (s Set) Strings() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = string(f)
	}
	return out
}

// Values holds one string per field of a Set, in the Set's order.
type Values struct {
	order []Field
	vals  map[Field]string
}

// NewValues returns empty values for every field of set.
func NewValues(set Set) Values {
	v := Values{
		order: set.Fields(),
		vals:  make(map[Field]string, set.Len()),
	}
	for _, f := range v.order {
		v.vals[f] = ""
	}
	return v
}

// Get returns the value of f and whether f belongs to these values.
func (v Values) Get(f Field) (string, bool) {
	val, ok := v.vals[f]
	return val, ok
}

// Set assigns a value. Fields outside the set are rejected.
func (v Values) Set(f Field, value string) error {
	if _, ok := v.vals[f]; !ok {
		return errors.ErrUnknownField(string(f), "")
	}
	v.vals[f] = value
	return nil
}

// Empty returns the fields whose value is the empty string, in order.
func (v Values) Empty() []Field {
	var out []Field
	for _, f := range v.order {
		if v.vals[f] == "" {
			out = append(out, f)
		}
	}
	return out
}

// Reset clears every value.
func (v Values) Reset() {
	for f := range v.vals {
		v.vals[f] = ""
	}
}

// Clone returns an independent copy.
func (v Values) Clone() Values {
	c := Values{
		order: make([]Field, len(v.order)),
		vals:  make(map[Field]string, len(v.vals)),
	}
	copy(c.order, v.order)
	for f, val := range v.vals {
		c.vals[f] = val
	}
	return c
}

// Fields returns the field order.
func (v Values) Fields() []Field {
	out := make([]Field, len(v.order))
	copy(out, v.order)
	return out
}

// Map returns the values keyed by field name.
func (v Values) Map() map[string]string {
	out := make(map[string]string, len(v.vals))
	for f, val := range v.vals {
		out[string(f)] = val
	}
	return out
}

// MarshalJSON encodes the values as a JSON object whose keys follow the
// field order.
func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range v.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(f))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v.vals[f])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
