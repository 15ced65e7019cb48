// Package proxy implements the caching proxy handler: the target URL
// is probed for its content type, served from the cache storage if
// present and otherwise fetched, stored and served.
package proxy

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Luzifer/mediacache/pkg/cachepath"
	"github.com/Luzifer/mediacache/pkg/metrics"
	"github.com/Luzifer/mediacache/pkg/storage"
	"github.com/Luzifer/mediacache/pkg/tracker"
)

const (
	cacheControl = "public, max-age=31536000"
	targetParam  = "url"
)

type (
	// Handler serves GET requests carrying the target in the url
	// query parameter
	Handler struct {
		client    *http.Client
		logger    logrus.FieldLogger
		store     storage.Storage
		tracker   tracker.Tracker
		userAgent string
	}

	// Option configures a Handler
	Option func(*Handler)
)

// WithHTTPClient sets the client used for upstream requests. Defaults
// to http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Handler) { h.client = c }
}

// WithLogger sets the logger used for request logging
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithUserAgent sets the User-Agent header on upstream requests
func WithUserAgent(ua string) Option {
	return func(h *Handler) { h.userAgent = ua }
}

// New creates a Handler reading and writing entries through store
// and remembering present locations in t
func New(store storage.Storage, t tracker.Tracker, opts ...Option) *Handler {
	h := &Handler{
		client:  http.DefaultClient,
		logger:  logrus.StandardLogger(),
		store:   store,
		tracker: t,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get(targetParam)
	if target == "" {
		metrics.Requests.WithLabelValues(metrics.ResultBadRequest).Inc()
		http.Error(w, "URL parameter required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	logger := h.logger.WithField("url", target)

	contentType, err := h.probeContentType(ctx, target)
	if err != nil {
		metrics.Requests.WithLabelValues(metrics.ResultUpstreamError).Inc()
		logger.WithError(err).Error("Unable to probe upstream")
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}

	cachePath := cachepath.Resolve(target, contentType)
	logger = logger.WithFields(logrus.Fields{
		"content_type": contentType,
		"path":         cachePath,
	})

	data, hit, err := h.loadCached(ctx, logger, cachePath)
	if err != nil {
		metrics.Requests.WithLabelValues(metrics.ResultStorageReadError).Inc()
		logger.WithError(err).Error("Unable to load cached file")
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}

	if hit {
		metrics.Requests.WithLabelValues(metrics.ResultHit).Inc()
		logger.Debug("Serving from cache")
		h.respond(w, contentType, "HIT", data)
		return
	}

	logger.Debug("Fetching from upstream")

	if data, err = h.fetch(ctx, target); err != nil {
		var statusErr UpstreamStatusError
		if errors.As(err, &statusErr) {
			metrics.Requests.WithLabelValues(metrics.ResultUpstreamStatus).Inc()
			logger.WithField("status", statusErr.StatusCode).Warn("Upstream signaled failure")
			http.Error(w, fmt.Sprintf("Failed to fetch: %d", statusErr.StatusCode), statusErr.StatusCode)
			return
		}

		metrics.Requests.WithLabelValues(metrics.ResultUpstreamError).Inc()
		logger.WithError(err).Error("Unable to fetch upstream")
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}

	metrics.Requests.WithLabelValues(metrics.ResultMiss).Inc()
	metrics.UpstreamBytes.Add(float64(len(data)))

	// The requester still gets the content when persisting fails
	if err = h.store.StoreFile(ctx, cachePath, data); err != nil {
		metrics.StorageErrors.WithLabelValues(metrics.OpWrite).Inc()
		logger.WithError(err).Warn("Unable to store file in cache")
	} else {
		h.tracker.Mark(cachePath)
	}

	h.respond(w, contentType, "MISS", data)
}

// loadCached returns the cached data if the location is known to the
// tracker or present in the storage. A location the tracker knows but
// the storage lost is reported as a miss.
func (h *Handler) loadCached(ctx context.Context, logger logrus.FieldLogger, cachePath string) ([]byte, bool, error) {
	if !h.tracker.Has(cachePath) {
		exists, err := h.store.FileExists(ctx, cachePath)
		if err != nil {
			metrics.StorageErrors.WithLabelValues(metrics.OpExists).Inc()
			logger.WithError(err).Warn("Unable to check cache presence, treating as miss")
			return nil, false, nil
		}

		if !exists {
			return nil, false, nil
		}
	}

	data, err := h.store.GetFile(ctx, cachePath)
	switch {
	case err == nil:
		h.tracker.Mark(cachePath)
		return data, true, nil

	case errors.Is(err, storage.ErrNotFound):
		logger.Warn("Cache entry vanished, fetching again")
		return nil, false, nil

	default:
		metrics.StorageErrors.WithLabelValues(metrics.OpRead).Inc()
		return nil, false, errors.Wrap(err, "reading cache entry")
	}
}

func (h *Handler) respond(w http.ResponseWriter, contentType, cacheState string, data []byte) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", cacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Cache", cacheState)
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		h.logger.WithError(err).Debug("Unable to write response")
	}
}
