package model

import (
	"fmt"
	"strings"
)

// EntityKind identifies one of the four identifier-bearing entity types.
type EntityKind string

const (
	KindPerson       EntityKind = "person"
	KindOrganization EntityKind = "organization"
	KindParty        EntityKind = "party"
	KindSector       EntityKind = "sector"
)

// AllKinds lists entity kinds in allocation order.
var AllKinds = []EntityKind{KindPerson, KindOrganization, KindParty, KindSector}

// Prefix returns the identifier prefix for the kind.
func (k EntityKind) Prefix() string {
	switch k {
	case KindPerson:
		return "P"
	case KindOrganization:
		return "O"
	case KindParty:
		return "PTY"
	case KindSector:
		return "SEC"
	default:
		return strings.ToUpper(string(k))
	}
}

// FormatID renders a typed identifier such as "O007".
func (k EntityKind) FormatID(seq int) string {
	return fmt.Sprintf("%s%03d", k.Prefix(), seq)
}

// Facts holds biographical data returned by the fact source. Nil fields mean
// the source had nothing; they are never defaulted to empty strings.
type Facts struct {
	Extract      *string `json:"extract,omitempty"`
	ReferenceURL *string `json:"reference_url,omitempty"`
}

// Found reports whether the fact source returned anything for the person.
func (f Facts) Found() bool {
	return f.Extract != nil || f.ReferenceURL != nil
}

// Profile holds biographical fields extracted from a person's fact extract.
// A nil field means the extract did not state it.
type Profile struct {
	DateOfBirth   *string `json:"date_of_birth,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	Education     *string `json:"education,omitempty"`
	CareerHistory *string `json:"career_history,omitempty"`
	Bio           *string `json:"bio,omitempty"`
}

// Found reports whether any profile field was extracted.
func (p Profile) Found() bool {
	return p.DateOfBirth != nil || p.Gender != nil || p.Education != nil ||
		p.CareerHistory != nil || p.Bio != nil
}

// Person is one roster entry.
type Person struct {
	Name            string  `json:"name"`
	NativeName      string  `json:"native_name,omitempty"`
	Role            string  `json:"role,omitempty"`
	RawOrganization string  `json:"raw_organization,omitempty"`
	Facts           Facts   `json:"facts"`
	Profile         Profile `json:"profile"`
	Party           *string `json:"party,omitempty"`
}

// Organization is a canonical organization after deduplication.
type Organization struct {
	Name     string   `json:"name"`
	Variants []string `json:"variants"`
	Parent   *string  `json:"parent,omitempty"`
	Sector   *string  `json:"sector,omitempty"`
}

// Party is a political party recognized from a person's role.
type Party struct {
	Name         string `json:"name" yaml:"name"`
	Abbreviation string `json:"abbreviation" yaml:"abbreviation"`
	Color        string `json:"color" yaml:"color"`
}

// Sector is an organization classification bucket.
type Sector struct {
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Keywords    []string `json:"-" yaml:"keywords"`
}

// DuplicateGroup is a set of raw names judged to denote one organization.
type DuplicateGroup struct {
	Canonical string   `json:"canonical"`
	Members   []string `json:"members"`
}

// HierarchyEdge is a child -> parent link between canonical organizations.
type HierarchyEdge struct {
	Child  string `json:"child"`
	Parent string `json:"parent"`
}

func (e HierarchyEdge) String() string {
	return e.Child + " -> " + e.Parent
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
