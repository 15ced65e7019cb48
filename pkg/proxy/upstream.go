package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

const defaultContentType = "application/octet-stream"

// UpstreamStatusError is returned when the upstream answered the
// fetch with a non-success status code
type UpstreamStatusError struct {
	StatusCode int
}

func (u UpstreamStatusError) Error() string {
	return fmt.Sprintf("HTTP status signaled failure: %d", u.StatusCode)
}

// probeContentType issues a HEAD request to learn the content type of
// the target. The status of the response is not evaluated, only
// transport failures are returned.
func (h *Handler) probeContentType(ctx context.Context, target string) (string, error) {
	resp, err := h.do(ctx, http.MethodHead, target)
	if err != nil {
		return "", errors.Wrap(err, "probing content type")
	}
	h.closeBody(resp)

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		return ct, nil
	}

	return defaultContentType, nil
}

// fetch retrieves the full body of the target
func (h *Handler) fetch(ctx context.Context, target string) ([]byte, error) {
	resp, err := h.do(ctx, http.MethodGet, target)
	if err != nil {
		return nil, errors.Wrap(err, "fetching source file")
	}
	defer h.closeBody(resp)

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		return nil, UpstreamStatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading source file")
	}

	return data, nil
}

func (h *Handler) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}

	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "executing request")
	}

	return resp, nil
}

func (h *Handler) closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		h.logger.WithError(err).Error("closing response body (leaked fd)")
	}
}
