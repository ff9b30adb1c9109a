package service

import (
	"context"

	"go.uber.org/zap"
)

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// saga records the undo step of every completed write so a failed multi-row sequence can be rolled back.
type saga struct {
	operation string
	logger    *zap.Logger
	steps     []compensation
}

func newSaga(operation string, logger *zap.Logger) *saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &saga{operation: operation, logger: logger}
}

func (s *saga) onFailure(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

// compensate runs the recorded undo steps in reverse order. It keeps going after a failed step and
// ignores cancellation of the request context.
func (s *saga) compensate(ctx context.Context, cause error) {
	ctx = context.WithoutCancel(ctx)
	s.logger.Warn("rolling back partial write",
		zap.String("operation", s.operation),
		zap.Int("steps", len(s.steps)),
		zap.Error(cause),
	)
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.undo(ctx); err != nil {
			s.logger.Error("compensation step failed",
				zap.String("operation", s.operation),
				zap.String("step", step.name),
				zap.Error(err),
			)
		}
	}
	s.steps = nil
}
