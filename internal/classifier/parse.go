package classifier

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-graph/internal/model"
)

// cleanJSON strips markdown fences and any prose around the outermost JSON
// object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

type dedupResponse struct {
	DuplicateGroups []struct {
		CanonicalName string   `json:"canonicalName"`
		Variants      []string `json:"variants"`
	} `json:"duplicateGroups"`
}

func parseGroups(text string) ([]model.DuplicateGroup, error) {
	var resp dedupResponse
	if err := json.Unmarshal([]byte(cleanJSON(text)), &resp); err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "dedup: %v", err)
	}

	groups := make([]model.DuplicateGroup, 0, len(resp.DuplicateGroups))
	for _, g := range resp.DuplicateGroups {
		members := make([]string, 0, len(g.Variants))
		for _, v := range g.Variants {
			if v = strings.TrimSpace(v); v != "" {
				members = append(members, v)
			}
		}
		groups = append(groups, model.DuplicateGroup{
			Canonical: strings.TrimSpace(g.CanonicalName),
			Members:   members,
		})
	}
	return groups, nil
}

type hierarchyResponse struct {
	HasParent          bool    `json:"hasParent"`
	ParentOrganization *string `json:"parentOrganization"`
	Reasoning          string  `json:"reasoning"`
}

func parseParent(text string) (*string, string, error) {
	var resp hierarchyResponse
	if err := json.Unmarshal([]byte(cleanJSON(text)), &resp); err != nil {
		return nil, "", eris.Wrapf(ErrMalformedResponse, "hierarchy: %v", err)
	}
	if !resp.HasParent || resp.ParentOrganization == nil {
		return nil, resp.Reasoning, nil
	}
	return model.StringPtr(strings.TrimSpace(*resp.ParentOrganization)), resp.Reasoning, nil
}

type profileResponse struct {
	DateOfBirth   string `json:"dateOfBirth"`
	Gender        string `json:"gender"`
	Education     string `json:"education"`
	CareerHistory string `json:"careerHistory"`
	Bio           string `json:"bio"`
}

func parseProfile(text string) (model.Profile, error) {
	var resp profileResponse
	if err := json.Unmarshal([]byte(cleanJSON(text)), &resp); err != nil {
		return model.Profile{}, eris.Wrapf(ErrMalformedResponse, "profile: %v", err)
	}

	var gender *string
	switch g := strings.ToLower(strings.TrimSpace(resp.Gender)); g {
	case "male", "female":
		gender = &g
	}
	return model.Profile{
		DateOfBirth:   model.StringPtr(strings.TrimSpace(resp.DateOfBirth)),
		Gender:        gender,
		Education:     model.StringPtr(strings.TrimSpace(resp.Education)),
		CareerHistory: model.StringPtr(strings.TrimSpace(resp.CareerHistory)),
		Bio:           model.StringPtr(strings.TrimSpace(resp.Bio)),
	}, nil
}
