// Package browser opens URLs in the user's web browser.
package browser

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Browser launches a URL in a web browser.
type Browser interface {
	Browse(url string) error
}

// New returns the platform browser launcher. A non-empty override names a
// command to run instead of the platform default.
func New(override string) Browser {
	return &execBrowser{override: override}
}

type execBrowser struct {
	override string
}

func (b *execBrowser) Browse(url string) error {
	var cmd *exec.Cmd
	switch {
	case b.override != "":
		cmd = exec.Command(b.override, url)
	case runtime.GOOS == "darwin":
		cmd = exec.Command("open", url)
	case runtime.GOOS == "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// Stub records browsed URLs instead of launching anything. For tests.
type Stub struct {
	URLs []string
	Err  error
}

func (s *Stub) Browse(url string) error {
	if s.Err != nil {
		return s.Err
	}
	s.URLs = append(s.URLs, url)
	return nil
}
