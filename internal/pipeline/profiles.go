package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/roster-graph/internal/cache"
	"github.com/sells-group/roster-graph/internal/classifier"
	"github.com/sells-group/roster-graph/internal/model"
)

// Profiler extracts person profiles from fact extracts through the profile
// cache.
type Profiler struct {
	extractor   classifier.ProfileExtractor
	cache       *cache.Cache
	concurrency int
}

// NewProfiler creates a Profiler. cache may be nil.
func NewProfiler(extractor classifier.ProfileExtractor, c *cache.Cache, concurrency int) *Profiler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Profiler{extractor: extractor, cache: c, concurrency: concurrency}
}

// Profile returns a copy of people with profiles filled in and the number
// of people with any profile field. People without an extract are skipped.
// Extraction failures leave the profile empty and are not cached.
func (p *Profiler) Profile(ctx context.Context, people []model.Person) ([]model.Person, int) {
	out := make([]model.Person, len(people))
	copy(out, people)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range out {
		if out[i].Facts.Extract == nil {
			continue
		}
		g.Go(func() error {
			out[i].Profile = p.extract(gctx, out[i])
			return nil
		})
	}
	_ = g.Wait()

	found := 0
	for _, person := range out {
		if person.Profile.Found() {
			found++
		}
	}
	return out, found
}

func (p *Profiler) extract(ctx context.Context, person model.Person) model.Profile {
	extract := model.Deref(person.Facts.Extract)
	if p.cache != nil {
		if profile, ok := p.cache.GetProfile(ctx, person.Name, extract); ok {
			return profile
		}
	}

	profile, err := p.extractor.ExtractProfile(ctx, classifier.ProfileRequest{
		Name:       person.Name,
		NativeName: person.NativeName,
		Role:       person.Role,
		Extract:    extract,
	})
	if err != nil {
		zap.L().Warn("profile: extraction failed, leaving fields unset",
			zap.String("person", person.Name),
			zap.Error(err),
		)
		return model.Profile{}
	}

	if p.cache != nil {
		if err := p.cache.PutProfile(ctx, person.Name, extract, profile); err != nil {
			zap.L().Warn("profile: failed to cache extraction", zap.String("person", person.Name), zap.Error(err))
		}
	}
	return profile
}
