package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/roster-graph/internal/cache"
	"github.com/sells-group/roster-graph/internal/model"
	"github.com/sells-group/roster-graph/internal/resilience"
	"github.com/sells-group/roster-graph/pkg/wikipedia"
)

// FactSource looks up biographical facts for a person. Finding nothing is
// not an error.
type FactSource interface {
	Lookup(ctx context.Context, name string) (model.Facts, error)
}

type wikipediaSource struct {
	client wikipedia.Client
}

// NewWikipediaSource adapts a MediaWiki client.
func NewWikipediaSource(client wikipedia.Client) FactSource {
	return &wikipediaSource{client: client}
}

func (s *wikipediaSource) Lookup(ctx context.Context, name string) (model.Facts, error) {
	page, err := s.client.Lookup(ctx, name)
	if err != nil || page == nil {
		return model.Facts{}, err
	}
	return model.Facts{
		Extract:      model.StringPtr(page.Extract),
		ReferenceURL: model.StringPtr(page.URL),
	}, nil
}

// Enricher fills in person facts through the gate and the facts cache.
type Enricher struct {
	source      FactSource
	cache       *cache.Cache
	gate        *resilience.Gate
	concurrency int
}

// NewEnricher creates an Enricher. cache and gate may be nil.
func NewEnricher(source FactSource, c *cache.Cache, gate *resilience.Gate, concurrency int) *Enricher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Enricher{source: source, cache: c, gate: gate, concurrency: concurrency}
}

// Enrich returns a copy of people with facts filled in and the number of
// people for whom anything was found. Lookup failures leave facts unset and
// are not cached.
func (e *Enricher) Enrich(ctx context.Context, people []model.Person) ([]model.Person, int) {
	out := make([]model.Person, len(people))
	copy(out, people)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range out {
		g.Go(func() error {
			out[i].Facts = e.lookup(gctx, out[i].Name)
			return nil
		})
	}
	_ = g.Wait()

	found := 0
	for _, p := range out {
		if p.Facts.Found() {
			found++
		}
	}
	return out, found
}

func (e *Enricher) lookup(ctx context.Context, name string) model.Facts {
	if e.cache != nil {
		if facts, ok := e.cache.GetFacts(ctx, name); ok {
			return facts
		}
	}

	facts, err := resilience.Through(ctx, e.gate, func(ctx context.Context) (model.Facts, error) {
		return e.source.Lookup(ctx, name)
	})
	if err != nil {
		zap.L().Warn("facts: lookup failed, leaving fields unset",
			zap.String("person", name),
			zap.Error(err),
		)
		return model.Facts{}
	}

	if e.cache != nil {
		if err := e.cache.PutFacts(ctx, name, facts); err != nil {
			zap.L().Warn("facts: failed to cache lookup", zap.String("person", name), zap.Error(err))
		}
	}
	return facts
}
