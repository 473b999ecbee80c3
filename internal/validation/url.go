package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL validates an absolute http(s) URL such as the submission
// endpoint or a URL handed to the browser opener.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Only allow http/https schemes to prevent protocol handlers
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %q (only http/https allowed)", parsed.Scheme)
	}

	dangerous := []string{"`", "<", ">", "\"", "\\", "\n", "\r"}
	for _, char := range dangerous {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("URL contains dangerous character: %q", char)
		}
	}

	if strings.Contains(rawURL, " ") {
		return fmt.Errorf("URL contains spaces")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	return nil
}

// ValidateOrigin checks that an allowed-origin entry is a bare scheme://host[:port].
func ValidateOrigin(origin string) error {
	if err := ValidateURL(origin); err != nil {
		return err
	}
	parsed, _ := url.Parse(origin)
	if (parsed.Path != "" && parsed.Path != "/") || parsed.RawQuery != "" || parsed.Fragment != "" {
		return fmt.Errorf("origin %q must not carry a path, query or fragment", origin)
	}
	return nil
}
