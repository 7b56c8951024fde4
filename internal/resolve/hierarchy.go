package resolve

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/roster-graph/internal/cache"
	"github.com/sells-group/roster-graph/internal/classifier"
	"github.com/sells-group/roster-graph/internal/model"
)

// HierarchyRequest asks for the parent of one canonical organization.
type HierarchyRequest struct {
	Name    string
	Context *string
}

// HierarchyResult is the output of one resolution pass.
type HierarchyResult struct {
	// Parents has an entry for every requested organization; nil means none.
	Parents map[string]*string
	// Edges are the accepted edges in acceptance order.
	Edges    []model.HierarchyEdge
	Rejected []model.HierarchyEdge
	// Failed lists organizations whose classifier call failed.
	Failed []string
	// Discovered lists accepted parents that were not requested, in
	// acceptance order.
	Discovered []string
}

// HierarchyResolver proposes parents through the classifier and accepts
// them one at a time, rejecting any edge that would close a cycle.
type HierarchyResolver struct {
	oracle      classifier.Oracle
	cache       *cache.Cache
	concurrency int

	mu      sync.Mutex
	parents map[string]string
}

// NewHierarchyResolver creates a resolver. cache may be nil; concurrency
// bounds classifier calls in flight from this resolver.
func NewHierarchyResolver(oracle classifier.Oracle, c *cache.Cache, concurrency int) *HierarchyResolver {
	if concurrency < 1 {
		concurrency = 1
	}
	return &HierarchyResolver{
		oracle:      oracle,
		cache:       c,
		concurrency: concurrency,
		parents:     make(map[string]string),
	}
}

type proposal struct {
	parent *string
	failed bool
}

// Resolve looks up a parent for every request. Classifier calls run
// concurrently; proposals are accepted afterwards in request order. canon
// maps raw names to canonical names so proposals naming a variant land on
// the canonical organization.
func (r *HierarchyResolver) Resolve(ctx context.Context, reqs []HierarchyRequest, canon map[string]string) (*HierarchyResult, error) {
	for i, req := range reqs {
		if strings.TrimSpace(req.Name) == "" {
			return nil, eris.Wrapf(ErrInvalidName, "hierarchy: request %d has a blank name", i)
		}
	}

	proposals := make([]proposal, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			proposals[i] = r.propose(gctx, req)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "hierarchy: resolve")
	}

	requested := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		requested[req.Name] = true
	}

	res := &HierarchyResult{Parents: make(map[string]*string, len(reqs))}
	discovered := make(map[string]bool)
	for i, req := range reqs {
		p := proposals[i]
		if p.failed {
			res.Failed = append(res.Failed, req.Name)
		}
		res.Parents[req.Name] = nil
		// A blank proposal, including one read from an older cache entry,
		// means no parent.
		if p.parent == nil || strings.TrimSpace(*p.parent) == "" {
			continue
		}

		parent := strings.TrimSpace(*p.parent)
		if c, ok := canon[parent]; ok {
			parent = c
		}
		edge := model.HierarchyEdge{Child: req.Name, Parent: parent}
		if !r.Accept(req.Name, parent) {
			res.Rejected = append(res.Rejected, edge)
			continue
		}
		res.Parents[req.Name] = model.StringPtr(parent)
		res.Edges = append(res.Edges, edge)
		if !requested[parent] && !discovered[parent] {
			discovered[parent] = true
			res.Discovered = append(res.Discovered, parent)
		}
	}
	return res, nil
}

// propose returns the cached or freshly inferred parent for req. The raw
// proposal is cached before any cycle check.
func (r *HierarchyResolver) propose(ctx context.Context, req HierarchyRequest) proposal {
	fp := cache.HierarchyFingerprint(req.Name, req.Context)
	if r.cache != nil {
		if parent, ok := r.cache.GetParent(ctx, fp); ok {
			return proposal{parent: parent}
		}
	}

	parent, err := r.oracle.InferParent(ctx, req.Name, req.Context)
	if parent != nil && strings.TrimSpace(*parent) == "" {
		parent = nil
	}
	if err != nil {
		zap.L().Warn("hierarchy: classifier failed, recording no parent",
			zap.String("stage", model.StageHierarchyResolved.String()),
			zap.String("org", req.Name),
			zap.Error(err),
		)
		return proposal{failed: true}
	}

	if r.cache != nil {
		if err := r.cache.PutParent(ctx, fp, parent); err != nil {
			zap.L().Warn("hierarchy: failed to cache verdict", zap.String("org", req.Name), zap.Error(err))
		}
	}
	return proposal{parent: parent}
}

// Accept records child -> parent unless it is a self edge, the child
// already has a parent, or the parent's chain already contains the child.
func (r *HierarchyResolver) Accept(child, parent string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if child == parent {
		zap.L().Warn("hierarchy: rejected self parent", zap.String("org", child))
		return false
	}
	if existing, ok := r.parents[child]; ok {
		zap.L().Warn("hierarchy: rejected second parent",
			zap.String("child", child),
			zap.String("parent", parent),
			zap.String("existing", existing),
		)
		return false
	}

	chain := r.chainLocked(parent)
	for _, ancestor := range chain {
		if ancestor == child {
			zap.L().Warn("hierarchy: rejected edge that would create a cycle",
				zap.String("child", child),
				zap.String("parent", parent),
				zap.Strings("chain", chain),
			)
			return false
		}
	}

	r.parents[child] = parent
	return true
}

// Parent returns the accepted parent of org.
func (r *HierarchyResolver) Parent(org string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parents[org]
	return p, ok
}

// Chain returns org followed by its accepted ancestors.
func (r *HierarchyResolver) Chain(org string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chainLocked(org)
}

func (r *HierarchyResolver) chainLocked(org string) []string {
	chain := []string{org}
	seen := map[string]bool{org: true}
	for cur := org; ; {
		next, ok := r.parents[cur]
		if !ok || seen[next] {
			return chain
		}
		seen[next] = true
		chain = append(chain, next)
		cur = next
	}
}
