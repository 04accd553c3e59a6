package models

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/care-symbols/logging"
)

// CacheFileName is the name of the warm-start copy of a downloaded model.
//
// The name does not depend on which model was requested, so a sandbox holds
// at most one cached artifact.
const CacheFileName = "care_symbols_model.onnx"

// ErrNoSource is returned when no local path exists, nothing is cached and
// no remote identifiers are given.
var ErrNoSource = errors.New("no valid model source: provide a local model path or a remote bucket and file id")

// Origin records where a resolved model came from.
type Origin string

const (
	// OriginLocal is a model bundled on local disk.
	OriginLocal Origin = "local"
	// OriginCache is a model downloaded by an earlier invocation.
	OriginCache Origin = "cache"
	// OriginRemote is a model downloaded by this invocation.
	OriginRemote Origin = "remote"
)

// Source describes the candidate locations of a model artifact.
type Source struct {
	// LocalPath is a bundled model file.
	LocalPath string
	// BucketID and FileID locate the model in remote storage.
	BucketID string
	FileID   string
}

// Remote reports whether both remote identifiers are set.
func (s Source) Remote() bool {
	return s.BucketID != "" && s.FileID != ""
}

// Resolved is a model path ready to be loaded.
type Resolved struct {
	Path   string
	Origin Origin
}

// BlobFetcher downloads a stored file.
type BlobFetcher interface {
	Download(ctx context.Context, bucketID, fileID string) ([]byte, error)
}

// Resolver finds a loadable model artifact.
type Resolver struct {
	cacheDir string
	fetcher  BlobFetcher
	logger   *zap.Logger
}

// NewResolver creates a resolver.
//
// Arguments:
//   - cacheDir: Scratch directory for the warm-start cache. Empty means os.TempDir().
//   - fetcher: Remote storage client. May be nil when only local models are used.
//   - logger: The logger.
//
// Returns:
//   - *Resolver: The resolver.
func NewResolver(cacheDir string, fetcher BlobFetcher, logger *zap.Logger) *Resolver {
	if cacheDir == "" {
		cacheDir = os.TempDir()
	}
	return &Resolver{
		cacheDir: cacheDir,
		fetcher:  fetcher,
		logger:   logging.OrNop(logger),
	}
}

// CachePath returns the warm-start cache location.
func (r *Resolver) CachePath() string {
	return filepath.Join(r.cacheDir, CacheFileName)
}

// Resolve returns the path of a loadable model.
//
// Priority order:
//  1. LocalPath, if it names an existing file.
//  2. The cache file, if an earlier invocation downloaded a model.
//  3. A fresh download of BucketID/FileID, persisted to the cache path.
//
// Arguments:
//   - ctx: Bounds the remote download.
//   - src: The candidate sources.
//
// Returns:
//   - Resolved: The model path and its origin.
//   - error: ErrNoSource, or a download or write failure.
func (r *Resolver) Resolve(ctx context.Context, src Source) (Resolved, error) {
	if src.LocalPath != "" && isFile(src.LocalPath) {
		r.logger.Info("using bundled model", zap.String("path", src.LocalPath))
		return Resolved{Path: src.LocalPath, Origin: OriginLocal}, nil
	}

	cachePath := r.CachePath()
	if isFile(cachePath) {
		r.logger.Info("using cached model", zap.String("path", cachePath))
		return Resolved{Path: cachePath, Origin: OriginCache}, nil
	}

	if !src.Remote() {
		return Resolved{}, ErrNoSource
	}
	if r.fetcher == nil {
		return Resolved{}, errors.New("remote model source configured without a storage client")
	}

	r.logger.Info("model not cached, downloading",
		zap.String("bucket_id", src.BucketID),
		zap.String("file_id", src.FileID),
	)
	data, err := r.fetcher.Download(ctx, src.BucketID, src.FileID)
	if err != nil {
		return Resolved{}, errors.Wrap(err, "failed to download model")
	}
	if len(data) == 0 {
		return Resolved{}, errors.Errorf("downloaded model %s is empty", src.FileID)
	}

	if err := writeAtomic(cachePath, data); err != nil {
		return Resolved{}, errors.Wrapf(err, "failed to cache model at %s", cachePath)
	}
	r.logger.Info("model cached", zap.String("path", cachePath), zap.Int("bytes", len(data)))

	return Resolved{Path: cachePath, Origin: OriginRemote}, nil
}

// writeAtomic writes data to a temp file beside path and renames it into place.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), CacheFileName+".*.tmp")
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
	return os.Rename(tmp.Name(), path)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
