package shapejson

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// UnmarshalBatch reads every document into the destination returned by newDest for its
// index. Documents are read in parallel by a pool of BatchWorkers goroutines, each call
// with its own decoding session. The first failure in document order is returned after
// every document has been attempted.
func UnmarshalBatch(ctx context.Context, docs [][]byte, newDest func(i int) interface{}, opts ...Option) ([]interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := resolveOptions(ctx, opts)
	u, _ := unmarshalEngine(ctx, opts)
	dests := make([]interface{}, len(docs))
	errs := make([]error, len(docs))
	err := runBatch(cfg.Ctx, cfg.BatchWorkers, len(docs), func(i int) {
		dests[i] = newDest(i)
		errs[i] = u.Unmarshal(docs[i], dests[i])
	})
	if err != nil {
		return nil, err
	}
	if err := firstBatchError(cfg.Logger, "unmarshal", errs); err != nil {
		return dests, err
	}
	return dests, nil
}

// MarshalBatch writes every value in parallel, preserving order.
func MarshalBatch(ctx context.Context, values []interface{}, opts ...Option) ([][]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := resolveOptions(ctx, opts)
	m, _ := marshalEngine(ctx, opts)
	out := make([][]byte, len(values))
	errs := make([]error, len(values))
	err := runBatch(cfg.Ctx, cfg.BatchWorkers, len(values), func(i int) {
		out[i], errs[i] = m.Marshal(values[i])
	})
	if err != nil {
		return nil, err
	}
	if err := firstBatchError(cfg.Logger, "marshal", errs); err != nil {
		return out, err
	}
	return out, nil
}

func runBatch(ctx context.Context, workers, n int, task func(i int)) error {
	if n == 0 {
		return ctx.Err()
	}
	if workers > n {
		workers = n
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return errors.Wrap(err, "failed to create batch pool")
	}
	defer pool.Release()
	wg := sync.WaitGroup{}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		index := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			task(index)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return errors.Wrapf(err, "failed to submit document %d", index)
		}
	}
	wg.Wait()
	return ctx.Err()
}

func firstBatchError(logger *zap.Logger, op string, errs []error) error {
	var first error
	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		logger.Debug("batch document failed", zap.String("op", op), zap.Int("document", i), zap.Error(err))
		if first == nil {
			first = errors.Wrapf(err, "document %d", i)
		}
	}
	if failed > 0 {
		logger.Debug("batch completed with failures", zap.String("op", op), zap.Int("failed", failed), zap.Int("total", len(errs)))
	}
	return first
}
