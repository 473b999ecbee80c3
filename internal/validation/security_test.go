package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{".formify.yml", false},
		{"configs/dev.yml", false},
		{"", true},
		{"../../etc/passwd", true},
		{"conf;rm -rf.yml", true},
		{"$(whoami).yml", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHost(t *testing.T) {
	assert.NoError(t, ValidateHost("localhost"))
	assert.NoError(t, ValidateHost("0.0.0.0"))
	assert.NoError(t, ValidateHost(""))
	assert.Error(t, ValidateHost("local host"))
	assert.Error(t, ValidateHost("host;ls"))
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		host    string
		want    bool
	}{
		{"no origin header", "", nil, "localhost:8080", true},
		{"same host", "http://localhost:8080", nil, "localhost:8080", true},
		{"other host without allow list", "http://evil.com", nil, "localhost:8080", false},
		{"listed", "https://example.com", []string{"https://example.com/"}, "localhost:8080", true},
		{"not listed", "https://evil.com", []string{"https://example.com"}, "localhost:8080", false},
		{"wildcard", "https://anything.io", []string{"*"}, "localhost:8080", true},
		{"bad scheme", "file://localhost:8080", nil, "localhost:8080", false},
		{"garbage", "::::", nil, "localhost:8080", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OriginAllowed(tt.origin, tt.allowed, tt.host))
		})
	}
}
