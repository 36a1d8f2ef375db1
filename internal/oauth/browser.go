package oauth

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/skratchdot/open-golang/open"
)

// BrowserLauncher opens a URL for the user. Launch failures are never fatal
// to an authorization attempt; the URL is always reported to the caller too.
type BrowserLauncher interface {
	Open(rawURL string) error
}

// BrowserLauncherFunc adapts a function to BrowserLauncher.
type BrowserLauncherFunc func(rawURL string) error

// Open calls f(rawURL).
func (f BrowserLauncherFunc) Open(rawURL string) error {
	return f(rawURL)
}

// DefaultBrowserLauncher opens URLs with the platform's default browser.
var DefaultBrowserLauncher BrowserLauncher = BrowserLauncherFunc(OpenBrowser)

// openURL and startCommand are replaced in tests so no browser is opened.
var (
	openURL      = open.Start
	startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }
)

// OpenBrowser opens the specified URL in the default web browser.
// Only http and https URLs are accepted. On Windows a failed open-golang
// launch is retried through url.dll.
func OpenBrowser(rawURL string) error {
	if err := validateBrowserURL(rawURL); err != nil {
		return err
	}

	err := openURL(rawURL)
	if err == nil {
		return nil
	}

	if fallback := fallbackCommand(runtime.GOOS, rawURL); fallback != nil {
		if startErr := startCommand(fallback); startErr == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to open browser: %w", err)
}

func validateBrowserURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme %q: only http and https are allowed", u.Scheme)
	}
	return nil
}

// fallbackCommand returns a launcher that open-golang does not already try
// on goos, or nil. open-golang runs xdg-open on Linux and open on macOS.
func fallbackCommand(goos, rawURL string) *exec.Cmd {
	if goos == "windows" {
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	}
	return nil
}
