package spillsort

import (
	"context"
)

// calculateRoundCount returns the number of merge rounds needed to reduce
// files runs to one output when at most mergeFactor runs are merged at a
// time. The final merge into the output counts as a round.
func calculateRoundCount(files, mergeFactor int) int {
	count := 1
	for files > mergeFactor {
		files = (files + mergeFactor - 1) / mergeFactor
		count++
	}
	return count
}

// merge runs intermediate rounds until at most mergeFactor runs remain and
// returns a source yielding the final merged order. In every intermediate
// round consecutive groups of mergeFactor runs, in creation order, are merged
// into one new run each, so the relative order of equal records is kept.
// The caller owns the returned source and the runs it reads.
func (e *engine[E]) merge(ctx context.Context, runs []*run) (Source[E], error) {
	factor := e.config.mergeFactor
	rounds := calculateRoundCount(len(runs), factor)
	e.state.mergeRounds.Store(int64(rounds))
	e.log.Debug("merging runs", "runs", len(runs), "mergeFactor", factor, "rounds", rounds)

	round := 1
	for len(runs) > factor {
		e.state.mergeRound.Store(int64(round))
		next := make([]*run, 0, (len(runs)+factor-1)/factor)
		for start := 0; start < len(runs); start += factor {
			group := runs[start:min(start+factor, len(runs))]
			out, err := e.mergeGroup(group)
			if err != nil {
				return nil, err
			}
			next = append(next, out)
		}
		e.log.Debug("merge round complete", "round", round, "rounds", rounds, "runsIn", len(runs), "runsOut", len(next))
		runs = next
		if err := e.checkpoint(ctx); err != nil {
			return nil, err
		}
		round++
	}
	e.state.mergeRound.Store(int64(round))
	return e.openMerged(runs)
}

// mergeGroup merges group into one new run. The group's runs are deleted
// whether or not the merge succeeds.
func (e *engine[E]) mergeGroup(group []*run) (out *run, err error) {
	defer func() {
		for _, r := range group {
			e.deleteRun(r)
		}
	}()
	src, err := e.openMerged(group)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return e.writeRun(src)
}

// openMerged opens every run and merges them. On failure every opened run is closed.
func (e *engine[E]) openMerged(runs []*run) (Source[E], error) {
	inputs := make([]Source[E], 0, len(runs))
	for _, r := range runs {
		src, err := e.openRun(r)
		if err != nil {
			_ = closeAll(inputs)
			return nil, err
		}
		inputs = append(inputs, src)
	}
	return newMerger(e.compare, inputs)
}
