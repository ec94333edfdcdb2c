package spillsort

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Phase is the stage a sort invocation has reached.
type Phase int32

const (
	// PhaseNone means no sort has started on this sorter yet.
	PhaseNone Phase = iota
	// PhasePreSorting means input is being read into sorted batches.
	PhasePreSorting
	// PhaseSorting means sorted batches are being merged into the output.
	PhaseSorting
	// PhaseComplete means the last sort finished successfully.
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhasePreSorting:
		return "pre-sorting"
	case PhaseSorting:
		return "sorting"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

type cancelCause struct {
	err error
}

// State exposes the progress of the current sort and lets other goroutines
// cancel it. It is embedded in Sorter and IteratingSorter; all methods are
// safe to call concurrently with a running sort.
type State struct {
	phase           atomic.Int32
	cancelRequested atomic.Bool
	cancelCause     atomic.Pointer[cancelCause]
	preSortRuns     atomic.Int64
	mergeRounds     atomic.Int64
	mergeRound      atomic.Int64
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	return Phase(s.phase.Load())
}

// IsPreSorting reports whether the current sort is reading and sorting input batches.
func (s *State) IsPreSorting() bool {
	return s.Phase() == PhasePreSorting
}

// IsSorting reports whether the current sort is merging.
func (s *State) IsSorting() bool {
	return s.Phase() == PhaseSorting
}

// IsCompleted reports whether the last sort finished successfully.
func (s *State) IsCompleted() bool {
	return s.Phase() == PhaseComplete
}

// PreSortRunCount returns the number of sorted runs written to temporary
// storage so far. It stays zero when the input fit in one batch.
func (s *State) PreSortRunCount() int {
	return int(s.preSortRuns.Load())
}

// MergeRoundCount returns the number of merge rounds planned for the current
// sort, counting the final merge into the output. It is zero until planned and
// for inputs that never touched temporary storage.
func (s *State) MergeRoundCount() int {
	return int(s.mergeRounds.Load())
}

// MergeRound returns the 1-based merge round in progress, or zero.
func (s *State) MergeRound() int {
	return int(s.mergeRound.Load())
}

// Cancel asks the running sort to stop at its next safe point. The sort then
// returns without completing and without an error.
func (s *State) Cancel() {
	s.cancelCause.Store(nil)
	s.cancelRequested.Store(true)
}

// CancelWithError asks the running sort to stop at its next safe point and
// fail with err. The sort returns err unchanged.
func (s *State) CancelWithError(err error) {
	s.cancelCause.Store(&cancelCause{err: err})
	s.cancelRequested.Store(true)
}

// reset clears all progress and any cancellation request left by an earlier call.
func (s *State) reset() {
	s.cancelRequested.Store(false)
	s.cancelCause.Store(nil)
	s.preSortRuns.Store(0)
	s.mergeRounds.Store(0)
	s.mergeRound.Store(0)
	s.phase.Store(int32(PhaseNone))
}

func (s *State) setPhase(p Phase) {
	s.phase.Store(int32(p))
}

// cancelled checks both the explicit cancellation request and ctx. It returns
// nil to keep going, errCancelled for a plain cancellation, or the failure the
// sort must end with.
func (s *State) cancelled(ctx context.Context) error {
	if s.cancelRequested.Load() {
		if c := s.cancelCause.Load(); c != nil && c.err != nil {
			return c.err
		}
		return errCancelled
	}
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}
