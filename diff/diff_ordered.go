package diff

import (
	"cmp"
	"context"

	"github.com/lanrat/spillsort"
)

// Ordered diffs two sources of a cmp.Ordered type sorted ascending.
// It is Generic with cmp.Compare.
func Ordered[T cmp.Ordered](ctx context.Context, a, b spillsort.Source[T], resultFunc ResultFunc[T]) (Result, error) {
	return Generic(ctx, a, b, cmp.Compare[T], resultFunc)
}

// Strings diffs two lexically sorted string sources.
func Strings(ctx context.Context, a, b spillsort.Source[string], resultFunc StringResultFunc) (Result, error) {
	return Ordered(ctx, a, b, resultFunc)
}
