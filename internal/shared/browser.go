package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// goos is a seam for exercising the per-platform branches in tests.
var goos = func() string { return runtime.GOOS }

// OpenBrowser hands the URL to the platform's default browser and returns
// without waiting for it. The identity login flow uses this to send the user
// to the provider's consent page while the callback server listens locally.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch os := goos(); os {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("no browser launcher for platform %q", os)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	return nil
}
