// Package storage implements the blob storage boundary against an
// S3-compatible object HTTP API. Objects are addressed as
// {endpoint}/object/{bucket}/{path}.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

const defaultTimeout = 30 * time.Second

// Options groups dependencies for Store.
type Options struct {
	Endpoint   string       // Required: storage API base URL
	ServiceKey string       // Optional: bearer token for authorized writes
	HTTPClient *http.Client // Optional: defaults to a 30s-timeout client
	Logger     *slog.Logger // Optional: structured logger
}

// Store talks to the object storage HTTP API.
type Store struct {
	endpoint   string
	serviceKey string
	client     *http.Client
	logger     *slog.Logger
}

var _ core.FileStore = (*Store)(nil)

// NewStore constructs a Store.
func NewStore(opts Options) (*Store, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("storage endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid storage endpoint %q", opts.Endpoint)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "storage")
	}
	return &Store{endpoint: endpoint, serviceKey: opts.ServiceKey, client: client, logger: logger}, nil
}

func (s *Store) objectURL(bucket, path string) string {
	return s.endpoint + "/object/" + bucket + "/" + strings.TrimLeft(path, "/")
}

// Download fetches one object. A missing object maps to NotFound so callers
// can distinguish absent chunks from transport failures.
func (s *Store) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(bucket, path), nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build download request")
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodePersistence, "download %s/%s", bucket, path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFoundf("object %s/%s not found", bucket, path)
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.Persistence(fmt.Sprintf("download %s/%s: status %d", bucket, path, resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodePersistence, "read %s/%s", bucket, path)
	}
	return data, nil
}

// Upload stores one object, overwriting any previous version at the path.
func (s *Store) Upload(ctx context.Context, bucket, path string, data []byte, mimeType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(bucket, path), bytes.NewReader(data))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build upload request")
	}
	s.authorize(req)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodePersistence, "upload %s/%s", bucket, path)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apperrors.Persistence(fmt.Sprintf("upload %s/%s: status %d", bucket, path, resp.StatusCode))
	}
	if s.logger != nil {
		s.logger.DebugContext(ctx, "object uploaded", "bucket", bucket, "path", path, "bytes", len(data))
	}
	return nil
}

func (s *Store) authorize(req *http.Request) {
	if s.serviceKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	}
}
