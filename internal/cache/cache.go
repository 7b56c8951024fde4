// Package cache is the canonicalization cache: durable, fingerprint-keyed
// verdicts from the classifier and the fact source, with an in-memory layer
// in front of the store.
package cache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roster-graph/internal/model"
	"github.com/sells-group/roster-graph/internal/store"
)

// Cache stores verdicts by namespace and fingerprint. A nil store keeps
// verdicts in memory only.
type Cache struct {
	store  store.Store
	memory *gocache.Cache
}

// New creates a cache over st. memoryTTL bounds how long verdicts stay in
// the in-memory layer; zero keeps them for the life of the process.
func New(st store.Store, memoryTTL time.Duration) *Cache {
	ttl := memoryTTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Cache{
		store:  st,
		memory: gocache.New(ttl, 10*time.Minute),
	}
}

type groupsVerdict struct {
	Groups []model.DuplicateGroup `json:"groups"`
}

type parentVerdict struct {
	Parent *string `json:"parent"`
}

type factsVerdict struct {
	Facts model.Facts `json:"facts"`
}

type profileVerdict struct {
	Profile model.Profile `json:"profile"`
}

// GetGroups returns cached duplicate groups for fp.
func (c *Cache) GetGroups(ctx context.Context, fp string) ([]model.DuplicateGroup, bool) {
	var v groupsVerdict
	if !c.get(ctx, store.NamespaceDedup, fp, &v) {
		return nil, false
	}
	return v.Groups, true
}

// PutGroups records duplicate groups for fp.
func (c *Cache) PutGroups(ctx context.Context, fp string, groups []model.DuplicateGroup) error {
	if groups == nil {
		groups = []model.DuplicateGroup{}
	}
	return c.put(ctx, store.NamespaceDedup, fp, groupsVerdict{Groups: groups})
}

// GetParent returns the cached parent proposal for fp. A hit may carry a
// nil parent, meaning the classifier found none.
func (c *Cache) GetParent(ctx context.Context, fp string) (*string, bool) {
	var v parentVerdict
	if !c.get(ctx, store.NamespaceHierarchy, fp, &v) {
		return nil, false
	}
	return v.Parent, true
}

// PutParent records a parent proposal (nil for none) for fp.
func (c *Cache) PutParent(ctx context.Context, fp string, parent *string) error {
	return c.put(ctx, store.NamespaceHierarchy, fp, parentVerdict{Parent: parent})
}

// GetFacts returns cached fact-source results for a person. Negative
// results are cached too.
func (c *Cache) GetFacts(ctx context.Context, name string) (model.Facts, bool) {
	var v factsVerdict
	if !c.get(ctx, store.NamespaceFacts, FactsFingerprint(name), &v) {
		return model.Facts{}, false
	}
	return v.Facts, true
}

// PutFacts records fact-source results for a person.
func (c *Cache) PutFacts(ctx context.Context, name string, facts model.Facts) error {
	return c.put(ctx, store.NamespaceFacts, FactsFingerprint(name), factsVerdict{Facts: facts})
}

// GetProfile returns the cached profile extracted for a person from
// extract. Empty profiles are cached too.
func (c *Cache) GetProfile(ctx context.Context, name, extract string) (model.Profile, bool) {
	var v profileVerdict
	if !c.get(ctx, store.NamespaceProfile, ProfileFingerprint(name, extract), &v) {
		return model.Profile{}, false
	}
	return v.Profile, true
}

// PutProfile records the profile extracted for a person from extract.
func (c *Cache) PutProfile(ctx context.Context, name, extract string, profile model.Profile) error {
	return c.put(ctx, store.NamespaceProfile, ProfileFingerprint(name, extract), profileVerdict{Profile: profile})
}

// Flush drops the in-memory layer. Durable entries are untouched.
func (c *Cache) Flush() {
	c.memory.Flush()
}

func memoryKey(namespace, fp string) string {
	return namespace + "\x00" + fp
}

// get decodes a verdict into dst. Store errors and undecodable payloads are
// misses.
func (c *Cache) get(ctx context.Context, namespace, fp string, dst any) bool {
	key := memoryKey(namespace, fp)
	if raw, ok := c.memory.Get(key); ok {
		if err := json.Unmarshal(raw.([]byte), dst); err == nil {
			return true
		}
		c.memory.Delete(key)
	}
	if c.store == nil {
		return false
	}

	payload, err := c.store.GetVerdict(ctx, namespace, fp)
	if err != nil {
		zap.L().Warn("cache: read failed, treating as miss",
			zap.String("namespace", namespace),
			zap.String("fingerprint", fp),
			zap.Error(err),
		)
		return false
	}
	if payload == nil {
		return false
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		zap.L().Warn("cache: corrupt entry, treating as miss",
			zap.String("namespace", namespace),
			zap.String("fingerprint", fp),
			zap.Error(err),
		)
		return false
	}
	c.memory.SetDefault(key, payload)
	return true
}

func (c *Cache) put(ctx context.Context, namespace, fp string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "cache: marshal %s verdict", namespace)
	}
	c.memory.SetDefault(memoryKey(namespace, fp), payload)
	if c.store == nil {
		return nil
	}
	if err := c.store.PutVerdict(ctx, namespace, fp, payload); err != nil {
		return eris.Wrapf(err, "cache: put %s verdict", namespace)
	}
	return nil
}
