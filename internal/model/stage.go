package model

import "time"

// Stage is a state of the entity-resolution state machine.
type Stage int

const (
	StageNone Stage = iota
	StageRawNamesCollected
	StageDeduplicated
	StageHierarchyResolved
	StageIdentifiersAllocated
	StageRelationshipsMapped
	StageValidated
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageRawNamesCollected:
		return "raw_names_collected"
	case StageDeduplicated:
		return "deduplicated"
	case StageHierarchyResolved:
		return "hierarchy_resolved"
	case StageIdentifiersAllocated:
		return "identifiers_allocated"
	case StageRelationshipsMapped:
		return "relationships_mapped"
	case StageValidated:
		return "validated"
	default:
		return "unknown"
	}
}

// Next returns the stage that must follow s.
func (s Stage) Next() Stage {
	if s >= StageValidated {
		return StageValidated
	}
	return s + 1
}

// Terminal reports whether s is the final stage.
func (s Stage) Terminal() bool {
	return s == StageValidated
}

// RunStatus represents the outcome of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunSummary is persisted for every pipeline run.
type RunSummary struct {
	People          int     `json:"people"`
	RawOrgNames     int     `json:"raw_org_names"`
	Organizations   int     `json:"organizations"`
	Merges          int     `json:"merges"`
	Parties         int     `json:"parties"`
	Sectors         int     `json:"sectors"`
	HierarchyEdges  int     `json:"hierarchy_edges"`
	RejectedEdges   int     `json:"rejected_edges"`
	FactsFound      int     `json:"facts_found"`
	ProfilesFound   int     `json:"profiles_found"`
	Unresolved      int     `json:"unresolved"`
	Violations      int     `json:"violations"`
	Warnings        int     `json:"warnings"`
	Stage           string  `json:"stage"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Run is one persisted pipeline execution.
type Run struct {
	ID        string      `json:"id"`
	Status    RunStatus   `json:"status"`
	Stage     string      `json:"stage"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Report    *Report     `json:"report,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
