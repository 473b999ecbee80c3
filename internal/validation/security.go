package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

var shellChars = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}

// ValidatePath rejects traversal and shell metacharacters in a file path
// such as the config file written by init.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal detected: %s", path)
	}

	for _, char := range shellChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidateHost checks a bind host for whitespace and shell metacharacters.
func ValidateHost(host string) error {
	if strings.ContainsAny(host, " \t\r\n") {
		return fmt.Errorf("host contains whitespace")
	}
	for _, char := range shellChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("host contains dangerous character: %s", char)
		}
	}
	return nil
}

// OriginAllowed reports whether a browser Origin header may talk to the
// server. With no allowed origins configured only same-host requests pass.
func OriginAllowed(origin string, allowed []string, requestHost string) bool {
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	if len(allowed) == 0 {
		return strings.EqualFold(parsed.Host, requestHost)
	}

	normalized := parsed.Scheme + "://" + parsed.Host
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(strings.TrimSuffix(a, "/"), normalized) {
			return true
		}
	}
	return false
}
