// Package taxonomy holds the rule-based sector classifier and the party
// table used to recognize party affiliations in role titles.
package taxonomy

import (
	_ "embed"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/roster-graph/internal/model"
)

//go:embed default.yaml
var defaultRules []byte

// Taxonomy assigns sectors to organizations and parties to people.
type Taxonomy struct {
	Sectors       []model.Sector `yaml:"sectors"`
	Parties       []model.Party  `yaml:"parties"`
	DefaultSector model.Sector   `yaml:"default_sector"`
}

// partyPattern matches "(R)", "(D-CA)", "(I-VT)".
var partyPattern = regexp.MustCompile(`(?i)\(([RDI])(?:-[A-Z]{2})?\)`)

// Default returns the built-in rules.
func Default() *Taxonomy {
	t, err := Parse(defaultRules)
	if err != nil {
		panic(eris.Wrap(err, "taxonomy: built-in rules"))
	}
	return t
}

// Load reads rules from path. An empty path returns the built-in rules.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: read %s", path)
	}
	return Parse(data)
}

// Parse decodes a rules document with a top-level "taxonomy" key.
func Parse(data []byte) (*Taxonomy, error) {
	var wrapper struct {
		Taxonomy Taxonomy `yaml:"taxonomy"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "taxonomy: parse rules")
	}

	t := &wrapper.Taxonomy
	if t.DefaultSector.Name == "" {
		return nil, eris.New("taxonomy: default_sector.name is required")
	}
	seen := make(map[string]bool)
	for _, p := range t.Parties {
		abbr := strings.ToUpper(p.Abbreviation)
		if seen[abbr] {
			return nil, eris.Errorf("taxonomy: duplicate party abbreviation %q", p.Abbreviation)
		}
		seen[abbr] = true
	}
	return t, nil
}

// SectorFor returns the first sector whose keyword occurs in the
// organization name, or the default sector. Rules are checked in file order.
func (t *Taxonomy) SectorFor(org string) model.Sector {
	lower := strings.ToLower(org)
	for _, s := range t.Sectors {
		for _, kw := range s.Keywords {
			if kw != "" && containsWord(lower, strings.ToLower(kw)) {
				return s
			}
		}
	}
	return t.DefaultSector
}

// PartyFor extracts the party from a role title such as "Senator (R-TX)".
func (t *Taxonomy) PartyFor(role string) (model.Party, bool) {
	m := partyPattern.FindStringSubmatch(role)
	if m == nil {
		return model.Party{}, false
	}
	abbr := strings.ToUpper(m[1])
	for _, p := range t.Parties {
		if strings.EqualFold(p.Abbreviation, abbr) {
			return p, true
		}
	}
	return model.Party{}, false
}

// containsWord reports whether kw occurs in s on word boundaries, so short
// keywords like "cia" do not match inside "judicial".
func containsWord(s, kw string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], kw)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(kw)
		if boundary(s, start-1) && boundary(s, end) {
			return true
		}
		from = start + 1
	}
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
}
