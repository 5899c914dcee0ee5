package index

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roxby/tubesearch/internal/response"
)

// Ensurer is anything that can create its index on demand.
type Ensurer interface {
	Name() string
	Ensure(ctx context.Context) response.Response[bool]
}

// EnsureAll creates every missing index concurrently and returns the names it created.
// The first failure cancels the rest.
func EnsureAll(ctx context.Context, indexes ...Ensurer) ([]string, error) {
	g, ctx := errgroup.WithContext(ctx)
	created := make([]bool, len(indexes))
	for i, ix := range indexes {
		g.Go(func() error {
			r := ix.Ensure(ctx)
			if !r.Success {
				return fmt.Errorf("ensure %s: %w", ix.Name(), r.Err())
			}
			created[i], _ = r.Value()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var names []string
	for i, ok := range created {
		if ok {
			names = append(names, indexes[i].Name())
		}
	}
	return names, nil
}
