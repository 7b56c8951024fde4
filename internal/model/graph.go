package model

import "fmt"

// PersonNode is a person row in the exported graph.
type PersonNode struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	NativeName     string  `json:"native_name,omitempty"`
	Role           string  `json:"role,omitempty"`
	Extract        *string `json:"extract,omitempty"`
	ReferenceURL   *string `json:"reference_url,omitempty"`
	Profile        Profile `json:"profile"`
	OrganizationID *string `json:"organization_id"`
	PartyID        *string `json:"party_id"`
}

// OrganizationNode is an organization row in the exported graph.
type OrganizationNode struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Variants []string `json:"variants,omitempty"`
	ParentID *string  `json:"parent_id"`
	SectorID *string  `json:"sector_id"`
}

// PartyNode is a party row in the exported graph.
type PartyNode struct {
	ID string `json:"id"`
	Party
}

// SectorNode is a sector row in the exported graph.
type SectorNode struct {
	ID string `json:"id"`
	Sector
}

// Graph is the fully mapped entity graph.
type Graph struct {
	People        []PersonNode       `json:"people"`
	Organizations []OrganizationNode `json:"organizations"`
	Parties       []PartyNode        `json:"parties"`
	Sectors       []SectorNode       `json:"sectors"`
}

// Unresolved records a reference the mapper could not turn into an id.
type Unresolved struct {
	Entity string `json:"entity"`
	Name   string `json:"name"`
	Field  string `json:"field"`
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

func (u Unresolved) String() string {
	return fmt.Sprintf("%s %q %s -> %q: %s", u.Entity, u.Name, u.Field, u.Ref, u.Reason)
}

// ViolationKind classifies integrity violations found by the validator.
type ViolationKind string

const (
	ViolationMissingReference    ViolationKind = "missing_reference"
	ViolationHierarchyCycle      ViolationKind = "hierarchy_cycle"
	ViolationDuplicateIdentifier ViolationKind = "duplicate_identifier"
)

// Violation is a single integrity problem.
type Violation struct {
	Kind     ViolationKind `json:"kind"`
	Entity   EntityKind    `json:"entity"`
	EntityID string        `json:"entity_id"`
	Field    string        `json:"field,omitempty"`
	Ref      string        `json:"ref,omitempty"`
	Detail   string        `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s %s: %s", v.Kind, v.Entity, v.EntityID, v.Detail)
}

// Report is the validator's output.
type Report struct {
	Violations []Violation `json:"violations"`
	Warnings   []string    `json:"warnings"`
}

// Passed is true when no violations were found. Warnings do not fail a report.
func (r *Report) Passed() bool {
	return len(r.Violations) == 0
}

// Count returns the number of violations of the given kind.
func (r *Report) Count(kind ViolationKind) int {
	n := 0
	for _, v := range r.Violations {
		if v.Kind == kind {
			n++
		}
	}
	return n
}
