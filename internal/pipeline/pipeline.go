// Package pipeline runs the entity-resolution stages in order, from raw
// roster names to a validated graph.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roster-graph/internal/cache"
	"github.com/sells-group/roster-graph/internal/classifier"
	"github.com/sells-group/roster-graph/internal/graph"
	"github.com/sells-group/roster-graph/internal/identity"
	"github.com/sells-group/roster-graph/internal/model"
	"github.com/sells-group/roster-graph/internal/resolve"
	"github.com/sells-group/roster-graph/internal/store"
	"github.com/sells-group/roster-graph/internal/taxonomy"
)

// Options tunes a Pipeline.
type Options struct {
	Concurrency int
	Context     resolve.ContextOptions
	// Enricher fills in facts before resolution. Nil skips enrichment.
	Enricher *Enricher
	// Profiler extracts person profiles from the facts. Nil skips it.
	Profiler *Profiler
}

// Pipeline wires the resolution stages together.
type Pipeline struct {
	store     store.Store
	dedup     *resolve.Deduplicator
	oracle    classifier.Oracle
	cache     *cache.Cache
	allocator *identity.Allocator
	taxonomy  *taxonomy.Taxonomy
	opts      Options
}

// New creates a Pipeline. st may be nil, in which case no run record is
// kept and identifiers are not persisted.
func New(st store.Store, oracle classifier.Oracle, c *cache.Cache, tax *taxonomy.Taxonomy, opts Options) *Pipeline {
	if tax == nil {
		tax = taxonomy.Default()
	}
	var ledger identity.Ledger
	if st != nil {
		ledger = st
	}
	return &Pipeline{
		store:     st,
		dedup:     resolve.NewDeduplicator(oracle, c),
		oracle:    oracle,
		cache:     c,
		allocator: identity.NewAllocator(ledger),
		taxonomy:  tax,
		opts:      opts,
	}
}

// Result holds every stage's output for one run.
type Result struct {
	RunID         string
	People        []model.Person
	RawOrgNames   []string
	Dedup         *resolve.DedupResult
	Hierarchy     *resolve.HierarchyResult
	Organizations []model.Organization
	Parties       []model.Party
	Sectors       []model.Sector
	IDs           model.IDTables
	Graph         *model.Graph
	Unresolved    []model.Unresolved
	Report        *model.Report
	Summary       model.RunSummary
}

// Run resolves people into a validated graph. Degraded classifier answers
// never fail a run; invalid input and cancellation do.
func (p *Pipeline) Run(ctx context.Context, people []model.Person) (*Result, error) {
	start := time.Now()
	res := &Result{}

	var run *model.Run
	if p.store != nil {
		var err error
		run, err = p.store.CreateRun(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		res.RunID = run.ID
	}
	log := zap.L().With(zap.String("run_id", res.RunID))
	log.Info("pipeline: starting", zap.Int("people", len(people)))

	tracker := newStageTracker(log)
	err := p.run(ctx, people, res, tracker)

	res.Summary = summarize(res, tracker.stage(), time.Since(start))
	if run != nil {
		run.Stage = tracker.stage().String()
		run.Summary = &res.Summary
		run.Report = res.Report
		run.Status = model.RunStatusComplete
		if err != nil {
			run.Status = model.RunStatusFailed
			run.Error = err.Error()
		}
		// The caller's context may already be cancelled.
		if cerr := p.store.CompleteRun(context.WithoutCancel(ctx), run); cerr != nil {
			log.Warn("pipeline: failed to save run record", zap.Error(cerr))
		}
	}

	if err != nil {
		log.Error("pipeline: failed", zap.String("stage", tracker.stage().String()), zap.Error(err))
		return res, err
	}
	log.Info("pipeline: complete",
		zap.Int("organizations", res.Summary.Organizations),
		zap.Int("merges", res.Summary.Merges),
		zap.Int("violations", res.Summary.Violations),
		zap.Float64("duration_seconds", res.Summary.DurationSeconds),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, people []model.Person, res *Result, tracker *stageTracker) error {
	res.People = people
	if p.opts.Enricher != nil {
		res.People, res.Summary.FactsFound = p.opts.Enricher.Enrich(ctx, people)
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pipeline: enrich")
		}
	}
	if p.opts.Profiler != nil {
		res.People, res.Summary.ProfilesFound = p.opts.Profiler.Profile(ctx, res.People)
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pipeline: profile")
		}
	}

	// Raw names and party affiliations.
	res.People, res.RawOrgNames, res.Parties = p.collect(res.People)
	if err := tracker.complete(model.StageRawNamesCollected); err != nil {
		return err
	}

	dedup, err := p.dedup.Deduplicate(ctx, res.RawOrgNames)
	if err != nil {
		return err
	}
	res.Dedup = dedup
	if err := tracker.complete(model.StageDeduplicated); err != nil {
		return err
	}

	reqs := make([]resolve.HierarchyRequest, 0, len(dedup.Canonical))
	for _, name := range dedup.Canonical {
		reqs = append(reqs, resolve.HierarchyRequest{
			Name:    name,
			Context: resolve.BuildContext(name, res.People, dedup.Mapping, p.opts.Context),
		})
	}
	resolver := resolve.NewHierarchyResolver(p.oracle, p.cache, p.opts.Concurrency)
	hier, err := resolver.Resolve(ctx, reqs, dedup.Mapping)
	if err != nil {
		return err
	}
	res.Hierarchy = hier
	res.Organizations, res.Sectors = p.organizations(dedup, hier)
	if err := tracker.complete(model.StageHierarchyResolved); err != nil {
		return err
	}

	res.IDs = p.allocator.AllocateAll(ctx, identity.Names{
		People:        personNames(res.People),
		Organizations: orgNames(res.Organizations),
		Parties:       partyNames(res.Parties),
		Sectors:       sectorNames(res.Sectors),
	})
	if err := tracker.complete(model.StageIdentifiersAllocated); err != nil {
		return err
	}

	res.Graph, res.Unresolved = graph.Map(graph.MapInput{
		People:        res.People,
		Organizations: res.Organizations,
		Parties:       res.Parties,
		Sectors:       res.Sectors,
		Canon:         dedup.Mapping,
		IDs:           res.IDs,
	})
	for _, u := range res.Unresolved {
		zap.L().Warn("pipeline: unresolved reference", zap.String("detail", u.String()))
	}
	if err := tracker.complete(model.StageRelationshipsMapped); err != nil {
		return err
	}

	res.Report = graph.Validate(res.Graph)
	for _, v := range res.Report.Violations {
		zap.L().Warn("pipeline: integrity violation", zap.String("detail", v.String()))
	}
	return tracker.complete(model.StageValidated)
}

// collect gathers raw organization names and parties in first-observation
// order and records each person's party.
func (p *Pipeline) collect(people []model.Person) ([]model.Person, []string, []model.Party) {
	out := make([]model.Person, len(people))
	copy(out, people)

	var names []string
	var parties []model.Party
	seenParty := make(map[string]bool)
	for i := range out {
		if out[i].RawOrganization != "" {
			names = append(names, out[i].RawOrganization)
		}
		if party, ok := p.taxonomy.PartyFor(out[i].Role); ok {
			out[i].Party = model.StringPtr(party.Name)
			if !seenParty[party.Name] {
				seenParty[party.Name] = true
				parties = append(parties, party)
			}
		}
	}
	return out, names, parties
}

// organizations assembles canonical organizations plus any parents found
// outside the roster, with parents and sectors filled in.
func (p *Pipeline) organizations(dedup *resolve.DedupResult, hier *resolve.HierarchyResult) ([]model.Organization, []model.Sector) {
	orgs := dedup.Organizations()
	for _, name := range hier.Discovered {
		orgs = append(orgs, model.Organization{Name: name})
	}

	var sectors []model.Sector
	seenSector := make(map[string]bool)
	for i := range orgs {
		orgs[i].Parent = hier.Parents[orgs[i].Name]
		sector := p.taxonomy.SectorFor(orgs[i].Name)
		orgs[i].Sector = model.StringPtr(sector.Name)
		if !seenSector[sector.Name] {
			seenSector[sector.Name] = true
			sectors = append(sectors, sector)
		}
	}
	return orgs, sectors
}

func summarize(res *Result, stage model.Stage, elapsed time.Duration) model.RunSummary {
	s := res.Summary
	s.People = len(res.People)
	s.RawOrgNames = len(res.RawOrgNames)
	s.Organizations = len(res.Organizations)
	s.Parties = len(res.Parties)
	s.Sectors = len(res.Sectors)
	s.Unresolved = len(res.Unresolved)
	if res.Dedup != nil {
		s.Merges = res.Dedup.Merges
	}
	if res.Hierarchy != nil {
		s.HierarchyEdges = len(res.Hierarchy.Edges)
		s.RejectedEdges = len(res.Hierarchy.Rejected)
	}
	if res.Report != nil {
		s.Violations = len(res.Report.Violations)
		s.Warnings = len(res.Report.Warnings)
	}
	s.Stage = stage.String()
	s.DurationSeconds = elapsed.Seconds()
	return s
}

func personNames(people []model.Person) []string {
	out := make([]string, 0, len(people))
	for _, p := range people {
		out = append(out, p.Name)
	}
	return out
}

func orgNames(orgs []model.Organization) []string {
	out := make([]string, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, o.Name)
	}
	return out
}

func partyNames(parties []model.Party) []string {
	out := make([]string, 0, len(parties))
	for _, p := range parties {
		out = append(out, p.Name)
	}
	return out
}

func sectorNames(sectors []model.Sector) []string {
	out := make([]string, 0, len(sectors))
	for _, s := range sectors {
		out = append(out, s.Name)
	}
	return out
}
