package tui

import (
	"go.uber.org/zap"

	"github.com/vitqst/kubecli-sub000/internal/logging"
)

// Resizer is the slice of the session registry the synchronizer uses.
type Resizer interface {
	Resize(id string, cols, rows int) error
}

// Synchronizer watches container dimension changes and keeps the pty
// size in step with the surface's fit. Resize errors against an exited
// or disposed session are teardown races, not faults; they are logged
// at debug level and swallowed.
type Synchronizer struct {
	registry Resizer
	log      *logging.Logger

	lastCols int
	lastRows int
}

// NewSynchronizer creates a synchronizer with no applied size yet.
func NewSynchronizer(registry Resizer, log *logging.Logger) *Synchronizer {
	return &Synchronizer{registry: registry, log: log}
}

// Observe applies a recomputed fit. Non-positive dimensions and repeats
// of the last applied values are no-ops; last write wins otherwise.
func (s *Synchronizer) Observe(id string, cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	if cols == s.lastCols && rows == s.lastRows {
		return
	}
	if err := s.registry.Resize(id, cols, rows); err != nil {
		s.log.Debug("resize skipped", zap.String("id", id), zap.Error(err))
		return
	}
	s.lastCols, s.lastRows = cols, rows
}

// Last returns the last applied dimensions (zero before the first fit).
func (s *Synchronizer) Last() (cols, rows int) {
	return s.lastCols, s.lastRows
}
