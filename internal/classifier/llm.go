package classifier

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roster-graph/internal/model"
	"github.com/sells-group/roster-graph/internal/resilience"
)

// LLM implements Oracle and ProfileExtractor by prompting a chat model. Every attempt passes
// through the shared gate; transient failures are retried.
type LLM struct {
	completer Completer
	gate      *resilience.Gate
	retry     resilience.RetryConfig
}

// NewLLM creates an LLM oracle. gate may be nil.
func NewLLM(completer Completer, gate *resilience.Gate, retry resilience.RetryConfig) *LLM {
	return &LLM{completer: completer, gate: gate, retry: retry}
}

func (l *LLM) complete(ctx context.Context, op, prompt string) (string, error) {
	cfg := l.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.LogRetries(l.completer.Name(), op)
	}
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		return resilience.Through(ctx, l.gate, func(ctx context.Context) (string, error) {
			return l.completer.Complete(ctx, systemPrompt, prompt)
		})
	})
}

// GroupDuplicates asks the model which names denote the same organization.
func (l *LLM) GroupDuplicates(ctx context.Context, names []string) ([]model.DuplicateGroup, error) {
	if len(names) < 2 {
		return nil, nil
	}

	text, err := l.complete(ctx, "group_duplicates", dedupPrompt(names))
	if err != nil {
		return nil, eris.Wrapf(err, "classifier: group duplicates of %d names", len(names))
	}

	groups, err := parseGroups(text)
	if err != nil {
		zap.L().Debug("classifier: unparseable dedup reply", zap.String("reply", text))
		return nil, err
	}
	return groups, nil
}

// InferParent asks the model for the direct parent of name.
func (l *LLM) InferParent(ctx context.Context, name string, orgContext *string) (*string, error) {
	if strings.TrimSpace(name) == "" {
		return nil, eris.New("classifier: empty organization name")
	}

	text, err := l.complete(ctx, "infer_parent", hierarchyPrompt(name, orgContext))
	if err != nil {
		return nil, eris.Wrapf(err, "classifier: infer parent of %q", name)
	}

	parent, reasoning, err := parseParent(text)
	if err != nil {
		zap.L().Debug("classifier: unparseable hierarchy reply", zap.String("org", name), zap.String("reply", text))
		return nil, err
	}
	zap.L().Debug("classifier: parent proposal",
		zap.String("org", name),
		zap.String("parent", model.Deref(parent)),
		zap.String("reasoning", reasoning),
	)
	return parent, nil
}

// ExtractProfile asks the model for the profile fields stated in the
// extract. An empty extract returns an empty profile without a call.
func (l *LLM) ExtractProfile(ctx context.Context, req ProfileRequest) (model.Profile, error) {
	if strings.TrimSpace(req.Name) == "" {
		return model.Profile{}, eris.New("classifier: empty person name")
	}
	if strings.TrimSpace(req.Extract) == "" {
		return model.Profile{}, nil
	}

	text, err := l.complete(ctx, "extract_profile", profilePrompt(req))
	if err != nil {
		return model.Profile{}, eris.Wrapf(err, "classifier: extract profile of %q", req.Name)
	}

	profile, err := parseProfile(text)
	if err != nil {
		zap.L().Debug("classifier: unparseable profile reply", zap.String("person", req.Name), zap.String("reply", text))
		return model.Profile{}, err
	}
	return profile, nil
}
