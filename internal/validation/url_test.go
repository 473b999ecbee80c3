package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		expectErr bool
	}{
		{
			name:      "valid http URL",
			url:       "http://localhost:8080",
			expectErr: false,
		},
		{
			name:      "valid https URL with path",
			url:       "https://example.com/api/contact",
			expectErr: false,
		},
		{
			name:      "form service URL with query params",
			url:       "https://forms.example.com/f/abc?redirect=0&format=json",
			expectErr: false,
		},
		{
			name:      "javascript scheme",
			url:       "javascript:alert('xss')",
			expectErr: true,
		},
		{
			name:      "file scheme",
			url:       "file:///etc/passwd",
			expectErr: true,
		},
		{
			name:      "relative URL",
			url:       "/api/contact",
			expectErr: true,
		},
		{
			name:      "missing host",
			url:       "http://",
			expectErr: true,
		},
		{
			name:      "contains spaces",
			url:       "http://example.com/a b",
			expectErr: true,
		},
		{
			name:      "contains markup",
			url:       "http://example.com/<script>",
			expectErr: true,
		},
		{
			name:      "newline injection",
			url:       "http://example.com/\r\nX-Evil: 1",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOrigin(t *testing.T) {
	assert.NoError(t, ValidateOrigin("http://localhost:8080"))
	assert.NoError(t, ValidateOrigin("https://example.com/"))
	assert.Error(t, ValidateOrigin("https://example.com/path"))
	assert.Error(t, ValidateOrigin("https://example.com?x=1"))
	assert.Error(t, ValidateOrigin("localhost:8080"))
}
