package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-graph/internal/cache"
	"github.com/sells-group/roster-graph/internal/classifier"
	"github.com/sells-group/roster-graph/internal/config"
	"github.com/sells-group/roster-graph/internal/pipeline"
	"github.com/sells-group/roster-graph/internal/resilience"
	"github.com/sells-group/roster-graph/internal/store"
	anthropicpkg "github.com/sells-group/roster-graph/pkg/anthropic"
	"github.com/sells-group/roster-graph/pkg/openaicompat"
	"github.com/sells-group/roster-graph/pkg/wikipedia"
)

// initStore opens the configured store and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

func initCache(st store.Store) *cache.Cache {
	return cache.New(st, time.Duration(cfg.Cache.MemoryTTLMinutes)*time.Minute)
}

// newCompleter picks the chat backend named by classifier.provider.
func newCompleter(c *config.Config) (classifier.Completer, error) {
	switch c.Classifier.Provider {
	case "anthropic":
		client := anthropicpkg.NewClient(c.Anthropic.Key)
		return classifier.NewAnthropicCompleter(client, c.Anthropic.Model, c.Anthropic.MaxTokens), nil
	case "openai":
		client := openaicompat.NewClient(c.OpenAI.Key, openaicompat.WithBaseURL(c.OpenAI.BaseURL))
		return classifier.NewOpenAICompleter(client, c.OpenAI.Model, c.OpenAI.MaxTokens), nil
	default:
		return nil, eris.Errorf("unsupported classifier provider: %s", c.Classifier.Provider)
	}
}

// initOracle builds the rate-gated, retrying classifier.
func initOracle(c *config.Config) (*classifier.LLM, error) {
	completer, err := newCompleter(c)
	if err != nil {
		return nil, err
	}
	gate := resilience.PerMinute("classifier", c.RateLimit.ClassifierPerMinute, c.RateLimit.MaxInFlight)
	retry := resilience.NewRetryConfig(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs)
	return classifier.NewLLM(completer, gate, retry), nil
}

// initEnricher returns nil when the fact source is disabled.
func initEnricher(c *config.Config, vc *cache.Cache) *pipeline.Enricher {
	if !c.Wikipedia.Enabled {
		return nil
	}
	client := wikipedia.NewClient(
		wikipedia.WithBaseURL(c.Wikipedia.BaseURL),
		wikipedia.WithUserAgent(c.Wikipedia.UserAgent),
		wikipedia.WithMaxAttempts(c.Retry.MaxAttempts),
		wikipedia.WithInitialBackoff(time.Duration(c.Retry.InitialBackoffMs)*time.Millisecond),
	)
	gate := resilience.PerMinute("wikipedia", c.RateLimit.WikipediaPerMinute, c.RateLimit.MaxInFlight)
	return pipeline.NewEnricher(pipeline.NewWikipediaSource(client), vc, gate, c.Pipeline.Concurrency)
}

// initProfiler returns nil when profiles are off or there are no facts to
// draw them from.
func initProfiler(c *config.Config, llm *classifier.LLM, vc *cache.Cache) *pipeline.Profiler {
	if !c.Pipeline.Profiles || !c.Wikipedia.Enabled {
		return nil
	}
	return pipeline.NewProfiler(llm, vc, c.Pipeline.Concurrency)
}
