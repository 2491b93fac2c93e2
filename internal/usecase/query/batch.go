package query

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/edgeq/internal/domain"
	dombatch "github.com/kailas-cloud/edgeq/internal/domain/batch"
	domquery "github.com/kailas-cloud/edgeq/internal/domain/query"
)

// ExecuteBatch runs every query concurrently and reports one result per
// query, in input order. A failing query does not cancel the others.
func (s *Service) ExecuteBatch(ctx context.Context, queries []domquery.Query) ([]dombatch.Result, error) {
	if len(queries) == 0 {
		return nil, domain.InvalidQueryf("batch has no queries")
	}
	if len(queries) > s.cfg.MaxBatchSize {
		return nil, domain.InvalidQueryf("batch size %d exceeds %d", len(queries), s.cfg.MaxBatchSize)
	}

	results := make([]dombatch.Result, len(queries))

	var g errgroup.Group
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, q := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = dombatch.NewError(i, err)
				return nil
			}
			res, err := s.Execute(ctx, q)
			if err != nil {
				results[i] = dombatch.NewError(i, err)
				return nil
			}
			results[i] = dombatch.NewOK(i, res.Data)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}
