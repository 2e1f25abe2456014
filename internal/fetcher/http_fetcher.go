package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

var (
	// ErrNotImage is returned when the server answers with a non-image Content-Type
	ErrNotImage = errors.New("url is not an image")
	// ErrUnsupportedScheme is returned for anything but http and https
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// HTTPFetcher checks that cover art URLs resolve to an image Discord can load
type HTTPFetcher struct {
	logger *zap.Logger
	client *retryablehttp.Client
}

// NewHTTPFetcher creates a verifier with a short retry budget
func NewHTTPFetcher(logger *zap.Logger) *HTTPFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 1 * time.Second
	client.HTTPClient.Timeout = 10 * time.Second // Essential to prevent blocking the daemon
	client.Logger = leveledLogger{logger.Sugar()}

	return &HTTPFetcher{
		logger: logger,
		client: client,
	}
}

// Verify issues a HEAD request for rawURL, retrying with GET when the server
// refuses HEAD, and succeeds only on a 200 with an image/* Content-Type.
func (f *HTTPFetcher) Verify(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	resp, err := f.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented ||
		resp.StatusCode == http.StatusForbidden {
		f.logger.Debug("HEAD refused, retrying with GET",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode))
		if resp, err = f.do(ctx, http.MethodGet, rawURL); err != nil {
			return err
		}
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%w: %s", ErrNotImage, contentType)
	}

	f.logger.Debug("Cover verified", zap.String("url", rawURL), zap.String("contentType", contentType))
	return nil
}

// do sends one request and discards the body; only status and headers matter
func (f *HTTPFetcher) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "synecord/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	return resp, nil
}

// leveledLogger routes retryablehttp's key/value logs into zap
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
