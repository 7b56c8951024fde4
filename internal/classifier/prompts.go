package classifier

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert on government and institutional organizations. You answer with a single JSON object and nothing else."

func dedupPrompt(names []string) string {
	var list strings.Builder
	for i, n := range names {
		fmt.Fprintf(&list, "%d. %s\n", i+1, n)
	}

	return fmt.Sprintf(`Analyze the following list of organization names and identify which ones refer to the same organization.

Organization Names:
%s
Task: Identify groups of names that refer to the same organization. Common patterns:
- Full name vs abbreviation (e.g., "Central Intelligence Agency" vs "CIA")
- With/without country prefix (e.g., "Department of State" vs "U.S. Department of State")
- Variations in punctuation/spacing (e.g., "U.S. Senate" vs "US Senate")
- Different but equivalent names (e.g., "White House" vs "Executive Residence")

Respond with ONLY a JSON object in this exact format:
{
  "duplicateGroups": [
    {
      "canonicalName": "Official full name to use",
      "variants": ["variant1", "variant2", "variant3"]
    }
  ]
}

IMPORTANT:
- Only group names if they DEFINITELY refer to the same organization
- Choose the most official/formal name as the canonical name
- Include the canonical name in the variants list
- Variants must be copied exactly from the list above
- If no duplicates found, return empty duplicateGroups array
- Be conservative - when in doubt, do NOT merge
- U.S. Department of X and Department of X are the same (prefer "U.S. Department of X")
- Abbreviations and full names of the same org should be merged (prefer full name)
`, list.String())
}

// NoContext renders the context line used when no excerpts mention the
// organization.
func NoContext(name string) string {
	return fmt.Sprintf("Organization mentioned: %s (no additional context available)", name)
}

func hierarchyPrompt(name string, orgContext *string) string {
	ctx := NoContext(name)
	if orgContext != nil && strings.TrimSpace(*orgContext) != "" {
		ctx = *orgContext
	}

	return fmt.Sprintf(`Analyze the following organization and determine if it has a parent organization.

Organization: %s

Context from Wikipedia:
%s

Respond with ONLY a JSON object in this exact format:
{
  "hasParent": true or false,
  "parentOrganization": "Official name of parent organization" or null,
  "reasoning": "Brief explanation of the relationship"
}

Guidelines for determining parent organizations:
1. U.S. Federal Government is the top-level parent for all federal agencies, departments, and branches
2. Executive departments (State, Defense, Treasury, etc.) report to U.S. Federal Government
3. Independent agencies (CIA, FBI, EPA, etc.) typically report to U.S. Federal Government
4. Congressional bodies (Senate, House) are part of U.S. Congress, which is part of U.S. Federal Government
5. White House is part of Executive Office of the President, which is part of U.S. Federal Government
6. Committees (Senate Judiciary Committee) are part of their parent body (U.S. Senate)
7. Private companies, think tanks, NGOs, and media organizations typically have NO parent

IMPORTANT:
- Only return a parent if there is a clear hierarchical reporting relationship
- Use official English names for organizations
- Return null if the organization is top-level or independent
- Do not create artificial hierarchies - if uncertain, return null
- White House, U.S. Senate, U.S. House of Representatives are independent enough to not need parents
- Focus on governmental administrative hierarchies, not just "related to" relationships`, name, ctx)
}

// maxProfileExtract bounds how much of the extract is sent.
const maxProfileExtract = 4000

func profilePrompt(req ProfileRequest) string {
	extract := strings.TrimSpace(req.Extract)
	if r := []rune(extract); len(r) > maxProfileExtract {
		extract = string(r[:maxProfileExtract])
	}
	native := req.NativeName
	if native == "" {
		native = "unknown"
	}
	role := req.Role
	if role == "" {
		role = "unknown"
	}

	return fmt.Sprintf(`Extract biographical information about the following person using ONLY the Wikipedia text provided.

Person: %s
Chinese Name: %s
Current Role: %s

Wikipedia text:
%s

Respond with ONLY a JSON object in this exact format:
{
  "dateOfBirth": "YYYY-MM-DD, or YYYY-MM or YYYY if that is all the text gives, or empty string",
  "gender": "male, female, or empty string",
  "education": "1-2 sentences on degrees and institutions, or empty string",
  "careerHistory": "3-5 sentences on major positions and achievements, or empty string",
  "bio": "200-500 word professional biography, or empty string"
}

IMPORTANT:
- Use ONLY facts stated in the text above
- Do NOT infer or guess; leave a field empty when the text does not state it
- Infer gender only from explicit pronouns or gendered titles in the text
- Write the bio in neutral third person and only if the text supports at least a paragraph`,
		req.Name, native, role, extract)
}
