package function

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/care-symbols/appwrite"
	"github.com/nvr-ai/care-symbols/config"
	"github.com/nvr-ai/care-symbols/enrich"
	"github.com/nvr-ai/care-symbols/images"
	"github.com/nvr-ai/care-symbols/inference"
	"github.com/nvr-ai/care-symbols/inference/providers"
	"github.com/nvr-ai/care-symbols/models"
	"github.com/nvr-ai/care-symbols/models/postprocess"
)

// EngineLoader builds an engine from a resolved model file.
type EngineLoader func(ctx context.Context, path string) (inference.Engine, error)

// ONNXLoader returns the default EngineLoader: it initializes ONNX Runtime
// from libPath and opens an inference.Session with default options.
func ONNXLoader(libPath string) EngineLoader {
	return func(_ context.Context, path string) (inference.Engine, error) {
		if err := providers.Initialize(libPath); err != nil {
			return nil, errors.Wrap(inference.ErrModelLoad, err.Error())
		}
		return inference.NewSession(path, providers.DefaultOptions())
	}
}

// Handler runs the classify-and-enrich pipeline. It is safe for concurrent
// use; the loaded model is shared by every invocation.
type Handler struct {
	cfg        *config.Config
	loader     EngineLoader
	labels     []string
	cache      enrich.Cache
	httpClient *http.Client
	logger     *zap.Logger
	runtime    *inference.Runtime

	mu       sync.Mutex
	client   *appwrite.Client
	resolver *models.Resolver
	enricher *enrich.Enricher
}

// Option configures a Handler.
type Option func(*Handler)

// WithEngineLoader replaces the ONNX Runtime loader.
func WithEngineLoader(l EngineLoader) Option {
	return func(h *Handler) { h.loader = l }
}

// WithLabels replaces the class label table.
func WithLabels(labels []string) Option {
	return func(h *Handler) { h.labels = labels }
}

// WithCache puts a metadata cache in front of the document store.
func WithCache(c enrich.Cache) Option {
	return func(h *Handler) { h.cache = c }
}

// WithHTTPClient sets the client used for backend calls.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Handler) { h.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithRuntime shares an existing runtime holder.
func WithRuntime(rt *inference.Runtime) Option {
	return func(h *Handler) {
		if rt != nil {
			h.runtime = rt
		}
	}
}

// New creates a Handler. Configuration is validated on every invocation, so
// New accepts an incomplete cfg.
//
// Arguments:
//   - cfg: The environment configuration.
//   - opts: Optional dependencies.
//
// Returns:
//   - *Handler: The handler.
func New(cfg *config.Config, opts ...Option) *Handler {
	h := &Handler{
		cfg:     cfg,
		labels:  models.CareSymbolClasses,
		logger:  zap.NewNop(),
		runtime: &inference.Runtime{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.loader == nil {
		h.loader = ONNXLoader(cfg.Model.RuntimeLib)
	}
	return h
}

// Runtime returns the model holder shared by invocations.
func (h *Handler) Runtime() *inference.Runtime {
	return h.runtime
}

// Handle runs one invocation. It never panics and always returns a Response.
//
// Arguments:
//   - ctx: The invocation context.
//   - body: The raw request body.
//
// Returns:
//   - Response: The invocation outcome.
func (h *Handler) Handle(ctx context.Context, body []byte) (resp Response) {
	logger := h.logger.With(zap.String("execution_id", uuid.NewString()))

	defer func() {
		if r := recover(); r != nil {
			err := runtimeError(errors.Errorf("internal error: %v", r))
			logger.Error("invocation panicked", zap.Any("panic", r), zap.Stack("stack"))
			resp = failure(err)
		}
	}()

	results, fileID, err := h.run(ctx, body, logger)
	if err != nil {
		// zap.Error adds errorVerbose with the wrapped stack for pkg/errors values.
		logger.Error("invocation failed", zap.String("kind", string(KindOf(err))), zap.Error(err))
		return failure(err)
	}

	logger.Info("invocation succeeded", zap.String("file_id", fileID), zap.Int("results", len(results)))
	return Response{Success: true, FileID: fileID, Results: results}
}

func (h *Handler) run(ctx context.Context, body []byte, logger *zap.Logger) ([]enrich.Result, string, error) {
	p, err := parseRequest(body)
	if err != nil {
		return nil, "", err
	}
	logger = logger.With(zap.String("file_id", p.fileID))
	logger.Info("processing request", zap.Int("top_k", p.topK), zap.Float32("threshold", p.threshold))

	if err := h.cfg.Validate(); err != nil {
		return nil, p.fileID, configurationError(err)
	}

	client, resolver, enricher, err := h.dependencies(logger)
	if err != nil {
		return nil, p.fileID, configurationError(err)
	}

	image, err := client.Download(ctx, h.cfg.Storage.BucketID, p.fileID)
	if err != nil {
		return nil, p.fileID, runtimeError(errors.Wrap(err, "failed to download image"))
	}
	fields := []zap.Field{zap.Int("bytes", len(image))}
	if header, format, err := images.Inspect(image); err == nil {
		fields = append(fields, zap.String("format", string(format)), zap.Int("width", header.Width), zap.Int("height", header.Height))
	}
	logger.Info("image downloaded", fields...)

	engine, err := h.engine(ctx, resolver, logger)
	if err != nil {
		return nil, p.fileID, err
	}

	scores, err := engine.Predict(ctx, image)
	if err != nil {
		return nil, p.fileID, runtimeError(err)
	}

	predictions := postprocess.Select(scores, h.labels, p.threshold, p.topK)
	logger.Info("predictions selected", zap.Int("count", len(predictions)))

	return enricher.Enrich(ctx, predictions), p.fileID, nil
}

// engine returns the loaded model, resolving and loading it on a cold start.
func (h *Handler) engine(ctx context.Context, resolver *models.Resolver, logger *zap.Logger) (inference.Engine, error) {
	engine, loaded, err := h.runtime.Load(ctx, func(ctx context.Context) (inference.Engine, error) {
		resolved, err := resolver.Resolve(ctx, models.Source{
			LocalPath: h.cfg.Model.Path,
			BucketID:  h.cfg.Model.BucketID,
			FileID:    h.cfg.Model.FileID,
		})
		if err != nil {
			if errors.Is(err, models.ErrNoSource) {
				return nil, configurationError(err)
			}
			return nil, runtimeError(errors.Wrap(err, "failed to acquire model"))
		}
		logger.Info("model resolved", zap.String("origin", string(resolved.Origin)), zap.String("path", resolved.Path))

		engine, err := h.loader(ctx, resolved.Path)
		if err != nil {
			return nil, runtimeError(err)
		}
		return engine, nil
	})
	if err != nil {
		return nil, err
	}
	if loaded {
		logger.Info("model loaded")
	}
	return engine, nil
}

// dependencies builds the backend client, model resolver and enricher once
// a valid configuration has been seen.
func (h *Handler) dependencies(logger *zap.Logger) (*appwrite.Client, *models.Resolver, *enrich.Enricher, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.client != nil {
		return h.client, h.resolver, h.enricher, nil
	}

	opts := []appwrite.Option{appwrite.WithLogger(h.logger)}
	if h.httpClient != nil {
		opts = append(opts, appwrite.WithHTTPClient(h.httpClient))
	}
	client, err := appwrite.New(appwrite.Config{
		Endpoint:  h.cfg.Backend.Endpoint,
		ProjectID: h.cfg.Backend.ProjectID,
		APIKey:    h.cfg.Backend.APIKey,
		Timeout:   h.cfg.Backend.Timeout,
	}, opts...)
	if err != nil {
		return nil, nil, nil, err
	}

	enrichOpts := []enrich.Option{
		enrich.WithTimeout(h.cfg.Metadata.LookupTimeout),
		enrich.WithLogger(h.logger),
	}
	if h.cache != nil {
		enrichOpts = append(enrichOpts, enrich.WithCache(h.cache))
	}

	h.client = client
	h.resolver = models.NewResolver(h.cfg.Model.CacheDir, client, h.logger)
	h.enricher = enrich.New(
		enrich.NewDocumentStore(client, h.cfg.Metadata.DatabaseID, h.cfg.Metadata.CollectionID),
		enrichOpts...,
	)
	logger.Debug("backend client ready", zap.String("endpoint", h.cfg.Backend.Endpoint))
	return h.client, h.resolver, h.enricher, nil
}
