// Package enrich - Joins predictions with care-symbol metadata records.
package enrich

import (
	"context"
	"time"

	"github.com/nvr-ai/care-symbols/models/postprocess"
	"go.uber.org/zap"
)

// DefaultLookupTimeout bounds a single metadata lookup.
const DefaultLookupTimeout = 10 * time.Second

// Metadata is the descriptive record of a care symbol.
type Metadata struct {
	Title            string `json:"title"`
	ShortDescription string `json:"shortDescription"`
	Dos              string `json:"dos"`
	Donts            string `json:"donts"`
	Image            string `json:"image"`
	Category         string `json:"category"`
}

// Store finds metadata by exact title. A nil record with a nil error means
// no document matched.
type Store interface {
	FindByTitle(ctx context.Context, title string) (*Metadata, error)
}

// Cache is an optional read-through layer in front of a Store.
type Cache interface {
	Get(ctx context.Context, title string) (*Metadata, bool, error)
	Set(ctx context.Context, title string, md *Metadata) error
}

// Result is one enriched prediction as returned to the caller.
type Result struct {
	Title            string  `json:"title"`
	Confidence       float32 `json:"confidence"`
	ShortDescription string  `json:"shortDescription"`
	Dos              string  `json:"dos"`
	Donts            string  `json:"donts"`
	Image            string  `json:"image"`
	Category         string  `json:"category"`
}

// Enricher attaches metadata to predictions.
type Enricher struct {
	store   Store
	cache   Cache
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithCache puts a cache in front of the store.
func WithCache(c Cache) Option {
	return func(e *Enricher) {
		e.cache = c
	}
}

// WithTimeout sets the per-lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Enricher over store.
func New(store Store, opts ...Option) *Enricher {
	e := &Enricher{
		store:   store,
		timeout: DefaultLookupTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich looks up metadata for every prediction.
//
// The result has the same length and order as predictions. A lookup that
// fails, times out or matches nothing yields a result carrying only the
// label as title and the confidence.
//
// Arguments:
//   - ctx: The request context.
//   - predictions: The selected predictions.
//
// Returns:
//   - []Result: One result per prediction.
func (e *Enricher) Enrich(ctx context.Context, predictions []postprocess.Prediction) []Result {
	results := make([]Result, 0, len(predictions))
	for _, p := range predictions {
		result := Result{Title: p.Label, Confidence: p.Confidence}

		md, err := e.lookup(ctx, p.Label)
		switch {
		case err != nil:
			e.logger.Warn("metadata lookup failed",
				zap.String("label", p.Label),
				zap.Float32("confidence", p.Confidence),
				zap.Error(err),
			)
		case md == nil:
			e.logger.Warn("no metadata found", zap.String("label", p.Label))
		default:
			result.ShortDescription = md.ShortDescription
			result.Dos = md.Dos
			result.Donts = md.Donts
			result.Image = md.Image
			result.Category = md.Category
		}
		results = append(results, result)
	}
	return results
}

func (e *Enricher) lookup(ctx context.Context, title string) (*Metadata, error) {
	if e.cache != nil {
		md, ok, err := e.cache.Get(ctx, title)
		if err != nil {
			e.logger.Debug("metadata cache read failed", zap.String("label", title), zap.Error(err))
		} else if ok {
			return md, nil
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	md, err := e.store.FindByTitle(lookupCtx, title)
	if err != nil || md == nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, title, md); err != nil {
			e.logger.Debug("metadata cache write failed", zap.String("label", title), zap.Error(err))
		}
	}
	return md, nil
}
