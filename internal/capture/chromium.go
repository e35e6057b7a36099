package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	appLog "dayview/internal/log"
)

const (
	defaultTimeout = 30 * time.Second
	// readySelector is set by the /day page once the grid is in the DOM.
	readySelector = `[data-ready="true"]`
)

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// BaseURL is the server root, e.g. "http://127.0.0.1:8080".
	BaseURL string
	// Date selects the day to render. Zero means today on the server.
	Date time.Time

	// OutputPath is where the PNG screenshot will be written.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels; they should
	// match the configured day view.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. Zero means 30s.
	Timeout time.Duration

	// Username and Password are sent as HTTP Basic Auth on every request
	// when Username is set.
	Username string
	Password string
}

// AuthorizationHeader returns the Basic Auth header value, or "" when no
// credentials are configured.
func (opts Options) AuthorizationHeader() string {
	if opts.Username == "" {
		return ""
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(opts.Username+":"+opts.Password))
}

func (opts Options) tasks(target string, png *[]byte) chromedp.Tasks {
	tasks := chromedp.Tasks{chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height))}
	if auth := opts.AuthorizationHeader(); auth != "" {
		tasks = append(tasks,
			network.Enable(),
			network.SetExtraHTTPHeaders(network.Headers{"Authorization": auth}),
		)
	}
	return append(tasks,
		chromedp.Navigate(target),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(png, 100),
	)
}

// DayURL returns the /day page URL for opts.
func (opts Options) DayURL() (string, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return "", fmt.Errorf("capture: base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("capture: base url %q must be absolute", opts.BaseURL)
	}
	u = u.JoinPath("day")
	if !opts.Date.IsZero() {
		q := u.Query()
		q.Set("date", opts.Date.Format(time.DateOnly))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (opts *Options) validate() error {
	if opts.OutputPath == "" {
		return errors.New("capture: OutputPath is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("capture: viewport %dx%d must be positive", opts.Width, opts.Height)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return nil
}

// CaptureDayPNG loads the /day page in headless Chromium, waits until the
// page marks itself ready, and writes a PNG screenshot to OutputPath.
// The file is replaced atomically.
func CaptureDayPNG(parentCtx context.Context, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	target, err := opts.DayURL()
	if err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	if err := chromedp.Run(ctx, opts.tasks(target, &png)); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := writeFileAtomic(opts.OutputPath, png); err != nil {
		return fmt.Errorf("capture: write png: %w", err)
	}
	appLog.Info("day preview captured", "url", target, "path", opts.OutputPath, "bytes", len(png))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".preview-*.png")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
