package spillsort

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hashicorp/go-multierror"
)

// engine carries everything one sort invocation needs: the validated
// configuration, the record callbacks, and every temporary run it still owns.
// A new engine is built for each call.
type engine[E any] struct {
	config        Config
	compare       CompareFunc[E]
	sourceFactory SourceFactory[E]
	sinkFactory   SinkFactory[E]
	state         *State
	log           *slog.Logger
	acc           accumulator[E]

	// owned holds every run created by this invocation and not yet deleted.
	owned []*run
}

func newEngine[E any](config Config, state *State, sf SourceFactory[E], kf SinkFactory[E], compare CompareFunc[E]) (*engine[E], error) {
	config = mergeConfig(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if sf == nil || kf == nil || compare == nil {
		return nil, fmt.Errorf("%w: source factory, sink factory and comparator are required", ErrNilArgument)
	}
	return &engine[E]{
		config:        config,
		compare:       compare,
		sourceFactory: sf,
		sinkFactory:   kf,
		state:         state,
		log:           config.logger,
	}, nil
}

// checkpoint is a safe point: it returns a non-nil error when the invocation
// must stop.
func (e *engine[E]) checkpoint(ctx context.Context) error {
	err := e.state.cancelled(ctx)
	if err != nil {
		e.log.Debug("sort cancelled", "phase", e.state.Phase(), "cause", err)
	}
	return err
}

// sortBatch sorts records in place. A panicking comparator is reported as a
// ComparisonError instead of tearing down the caller.
func (e *engine[E]) sortBatch(records []E) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewComparisonError(r, "batch sort")
		}
	}()
	slices.SortFunc(records, e.compare)
	return nil
}

// deleteRun removes a run from temporary storage. Failures are logged and
// otherwise ignored.
func (e *engine[E]) deleteRun(r *run) {
	if i := slices.Index(e.owned, r); i >= 0 {
		e.owned = slices.Delete(e.owned, i, i+1)
	}
	if err := r.file.Remove(); err != nil {
		e.log.Warn("failed to delete temporary run", "run", r.file.Name(), "error", err)
	}
}

// cleanup deletes every run still owned by the invocation.
func (e *engine[E]) cleanup() error {
	var result *multierror.Error
	for _, r := range e.owned {
		if err := r.file.Remove(); err != nil {
			result = multierror.Append(result, NewDiskError(err, "remove run", r.file.Name()))
		}
	}
	e.owned = nil
	return result.ErrorOrNil()
}

// discard is cleanup for a failed or cancelled invocation. Cleanup errors must
// never hide the failure that triggered it, so they are only logged.
func (e *engine[E]) discard() {
	if len(e.owned) == 0 {
		return
	}
	n := len(e.owned)
	if err := e.cleanup(); err != nil {
		e.log.Warn("failed to delete temporary runs", "error", err)
		return
	}
	e.log.Debug("deleted temporary runs", "runs", n)
}

// outcome maps the error ending an invocation to the facade result.
func outcome(err error) (bool, error) {
	if errors.Is(err, errCancelled) {
		return false, nil
	}
	return false, err
}
