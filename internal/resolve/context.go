package resolve

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/roster-graph/internal/model"
)

// ContextOptions bounds the excerpt text handed to the classifier.
type ContextOptions struct {
	MaxExcerpts int
	MaxChars    int
}

// DefaultContextOptions takes three excerpts of 500 characters.
func DefaultContextOptions() ContextOptions {
	return ContextOptions{MaxExcerpts: 3, MaxChars: 500}
}

// BuildContext collects excerpts from people whose fact extract mentions org
// or who belong to it, in roster order. It returns nil when none qualify.
func BuildContext(org string, people []model.Person, canon map[string]string, opts ContextOptions) *string {
	if opts.MaxExcerpts <= 0 {
		opts.MaxExcerpts = DefaultContextOptions().MaxExcerpts
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultContextOptions().MaxChars
	}

	lowerOrg := strings.ToLower(org)
	var parts []string
	for _, p := range people {
		if p.Facts.Extract == nil || *p.Facts.Extract == "" {
			continue
		}
		extract := *p.Facts.Extract
		member := p.RawOrganization != "" && canon[p.RawOrganization] == org
		if !member && !strings.Contains(strings.ToLower(extract), lowerOrg) {
			continue
		}
		parts = append(parts, fmt.Sprintf("From %s's Wikipedia: %s...", p.Name, truncate(extract, opts.MaxChars)))
		if len(parts) >= opts.MaxExcerpts {
			break
		}
	}
	if len(parts) == 0 {
		return nil
	}
	ctx := strings.Join(parts, "\n\n")
	return &ctx
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
