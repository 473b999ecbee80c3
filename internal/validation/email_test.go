package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmail(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"jane@example.com", true},
		{"j.doe+tag@mail.example.co.uk", true},
		{"a@b.c", true},
		{"", false},
		{"jane", false},
		{"jane@example", false},
		{"jane.example.com", false},
		{"@example.com", false},
		{"jane@.com", false},
		{"a@b@c.d", true},
		{"jane doe@example.com", false},
		{"jane@example.com ", false},
		{"a\u00a0b@c.d", false},
		{"jane@example\u3000.com", false},
		{"jane@example.com\ufeff", false},
		{"a\vb@c.d", false},
		{"a\u2028b@c.d", false},
		{"jürgen@bücher.de", true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsEmail(tt.addr))
		})
	}
}
