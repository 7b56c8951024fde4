package pipeline

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roster-graph/internal/model"
)

// stageTracker enforces that stages complete strictly in order.
type stageTracker struct {
	current model.Stage
	started time.Time
	log     *zap.Logger
}

func newStageTracker(log *zap.Logger) *stageTracker {
	return &stageTracker{current: model.StageNone, started: time.Now(), log: log}
}

// complete records that stage has finished. It fails if stage is not the
// successor of the last completed stage.
func (t *stageTracker) complete(stage model.Stage) error {
	if want := t.current.Next(); stage != want || t.current.Terminal() {
		return eris.Errorf("pipeline: stage %s cannot follow %s", stage, t.current)
	}
	t.log.Info("pipeline: stage complete",
		zap.String("stage", stage.String()),
		zap.Duration("elapsed", time.Since(t.started)),
	)
	t.current = stage
	return nil
}

func (t *stageTracker) stage() model.Stage {
	return t.current
}
