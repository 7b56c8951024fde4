// Package classifier is the semantic classifier: an oracle that groups
// organization names denoting the same entity and proposes parent
// organizations. It also extracts person profiles from fact extracts. The
// LLM implementation is the only one shipped.
package classifier

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-graph/internal/model"
)

// ErrMalformedResponse is returned when the model's reply cannot be parsed.
// Consumers treat it like any other classifier failure.
var ErrMalformedResponse = eris.New("classifier: malformed response")

// Oracle answers the two semantic questions entity resolution cannot settle
// by string comparison.
type Oracle interface {
	// GroupDuplicates returns groups of names from the input that denote the
	// same organization. Names judged distinct are simply absent.
	GroupDuplicates(ctx context.Context, names []string) ([]model.DuplicateGroup, error)
	// InferParent proposes the direct parent of name, or nil for none.
	InferParent(ctx context.Context, name string, orgContext *string) (*string, error)
}

// ProfileRequest is the person and fact extract a profile is drawn from.
type ProfileRequest struct {
	Name       string
	NativeName string
	Role       string
	Extract    string
}

// ProfileExtractor pulls biographical fields out of a person's fact
// extract. Fields the extract does not state come back nil.
type ProfileExtractor interface {
	ExtractProfile(ctx context.Context, req ProfileRequest) (model.Profile, error)
}
