package attribute

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// sends one prompt to a model and returns its text answer
type completeFunc func(ctx context.Context, prompt string) (string, error)

// Items are split into batches of BatchSize. Each batch becomes one API
// request; at most Concurrency requests run at once and the first
// failure cancels the rest.
func attributeBatches(
	ctx context.Context,
	opts Options,
	items []Item,
	complete completeFunc,
) ([]Result, error) {
	if len(items) == 0 {
		return []Result{}, nil
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	batches := lo.Chunk(items, batchSize)
	results := make([][]Result, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			text, err := complete(gctx, BuildPrompt(opts, batch))
			if err != nil {
				return fmt.Errorf("batch %d failed: %w", i, err)
			}
			res, err := parseResponse(text, batch, opts.Speakers)
			if err != nil {
				return fmt.Errorf("batch %d failed: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := lo.Flatten(results)
	sort.Slice(all, func(i, j int) bool {
		return all[i].Index < all[j].Index
	})
	return all, nil
}
