package server

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/conneroisu/formify/internal/validation"
)

// OpenBrowser opens url in the default browser.
func OpenBrowser(url string) error {
	// the url ends up on a command line
	if err := validation.ValidateURL(url); err != nil {
		return fmt.Errorf("refusing to open %q: %w", url, err)
	}

	switch runtime.GOOS {
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}
