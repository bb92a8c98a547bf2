package verify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/agentid-dev/agentid-core/pkg/credential"
)

// VerifyBatch verifies a batch of request items. A malformed top-level batch
// (empty, or larger than the configured maximum) fails with an
// INVALID_REQUEST error before any item is processed; per-item failures are
// never Go errors, they land in the item results.
//
// The default mode runs a fixed-size worker pool over a shared cursor:
// every item is verified exactly once and its result written at the item's
// original index, whatever order workers finish in. Fail-fast mode processes
// items sequentially in request order and stops after the first invalid
// item, so the results hold exactly the processed prefix.
//
// Outcomes are handed to the recorder only after every result is in place;
// Summary.Total counts processed items.
func (s *Service) VerifyBatch(ctx context.Context, requests []Request, opts BatchOptions) (*BatchResult, error) {
	if len(requests) == 0 {
		return nil, credential.NewError(credential.ErrCodeInvalidRequest, "batch contains no items")
	}
	if len(requests) > s.maxBatchItems {
		return nil, credential.NewError(credential.ErrCodeInvalidRequest,
			fmt.Sprintf("batch of %d items exceeds the maximum of %d", len(requests), s.maxBatchItems))
	}

	var results []ItemResult
	if opts.FailFast {
		results = s.runFailFast(ctx, requests)
	} else {
		results = s.runParallel(ctx, requests, opts.Concurrency)
	}

	for i := range results {
		s.record(&results[i].Result)
	}

	if !opts.IncludeDetails {
		for i := range results {
			results[i].Credential = nil
		}
	}

	summary := Summary{Total: len(results)}
	for i := range results {
		if results[i].Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
	}

	return &BatchResult{Results: results, Summary: summary}, nil
}

func (s *Service) runFailFast(ctx context.Context, requests []Request) []ItemResult {
	results := make([]ItemResult, 0, len(requests))
	for i, req := range requests {
		res := s.timed(func() *Result { return s.verifyRequest(ctx, req) })
		results = append(results, ItemResult{Index: i, Result: *res})
		if !res.Valid {
			break
		}
	}
	return results
}

func (s *Service) runParallel(ctx context.Context, requests []Request, concurrency int) []ItemResult {
	workers := concurrency
	if workers <= 0 {
		workers = s.concurrency
	}
	if workers > len(requests) {
		workers = len(requests)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]ItemResult, len(requests))

	var cursor atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(requests) {
					return
				}
				res := s.timed(func() *Result { return s.verifyRequest(ctx, requests[i]) })
				results[i] = ItemResult{Index: i, Result: *res}
			}
		}()
	}
	wg.Wait()

	return results
}
