// Package appwrite - Minimal HTTP client for the backend storage and database APIs.
package appwrite

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/care-symbols/logging"
)

const (
	headerProject = "X-Appwrite-Project"
	headerKey     = "X-Appwrite-Key"

	// DefaultTimeout bounds every request when Config.Timeout is zero.
	DefaultTimeout = 30 * time.Second
)

// Config identifies a backend project.
type Config struct {
	// Endpoint is the API root, e.g. https://cloud.example.com/v1.
	Endpoint string
	// ProjectID is sent in the project header.
	ProjectID string
	// APIKey is sent in the key header.
	APIKey string
	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// Client talks to the backend over plain HTTP.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a backend client.
//
// Arguments:
//   - cfg: The project configuration.
//   - opts: Optional overrides.
//
// Returns:
//   - *Client: The client.
//   - error: An error if the endpoint is missing or malformed.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("appwrite endpoint is required")
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, errors.Wrapf(err, "invalid appwrite endpoint %q", cfg.Endpoint)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)
	return c, nil
}

// Download fetches the raw bytes of a stored file.
//
// Arguments:
//   - ctx: The request context.
//   - bucketID: The storage bucket.
//   - fileID: The file within the bucket.
//
// Returns:
//   - []byte: The file contents.
//   - error: A transport error or an *APIError.
func (c *Client) Download(ctx context.Context, bucketID, fileID string) ([]byte, error) {
	path := "/storage/buckets/" + url.PathEscape(bucketID) + "/files/" + url.PathEscape(fileID) + "/download"

	resp, err := c.do(ctx, path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to download file %s from bucket %s", fileID, bucketID)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file %s", fileID)
	}

	sum := md5.Sum(data)
	c.logger.Debug("downloaded file",
		zap.String("bucket_id", bucketID),
		zap.String("file_id", fileID),
		zap.Int("bytes", len(data)),
		zap.String("md5", hex.EncodeToString(sum[:])[:8]),
	)
	return data, nil
}

// ListDocuments runs a filtered query against a collection.
//
// Arguments:
//   - ctx: The request context.
//   - databaseID: The database.
//   - collectionID: The collection.
//   - queries: Query strings built with Equal, Limit and friends.
//
// Returns:
//   - *DocumentList: The page of matching documents in store order.
//   - error: A transport error, decode error or an *APIError.
func (c *Client) ListDocuments(
	ctx context.Context,
	databaseID, collectionID string,
	queries ...Query,
) (*DocumentList, error) {
	path := "/databases/" + url.PathEscape(databaseID) + "/collections/" + url.PathEscape(collectionID) + "/documents"

	params := url.Values{}
	for _, q := range queries {
		params.Add("queries[]", q.String())
	}

	resp, err := c.do(ctx, path, params)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list documents in %s/%s", databaseID, collectionID)
	}
	defer resp.Body.Close()

	var list DocumentList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, errors.Wrap(err, "failed to decode document list")
	}
	return &list, nil
}

// FindDocumentByTitle returns the first document whose title equals title.
//
// Arguments:
//   - ctx: The request context.
//   - databaseID: The database.
//   - collectionID: The collection.
//   - title: The exact title to match.
//
// Returns:
//   - *Document: The first document returned by the store, or nil when none match.
//   - error: Any query failure.
func (c *Client) FindDocumentByTitle(
	ctx context.Context,
	databaseID, collectionID, title string,
) (*Document, error) {
	list, err := c.ListDocuments(ctx, databaseID, collectionID, Equal("title", title), Limit(1))
	if err != nil {
		return nil, err
	}
	if len(list.Documents) == 0 {
		return nil, nil
	}
	return &list.Documents[0], nil
}

func (c *Client) do(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	target := c.cfg.Endpoint + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set(headerProject, c.cfg.ProjectID)
	req.Header.Set(headerKey, c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newAPIError(resp)
	}
	return resp, nil
}
