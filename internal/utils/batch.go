package utils

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	MinBatchSize = 3
	MaxBatchSize = 20
)

// ClampBatchSize 批大小限制在 [3,20]
func ClampBatchSize(n int) int {
	if n < MinBatchSize {
		return MinBatchSize
	}
	if n > MaxBatchSize {
		return MaxBatchSize
	}
	return n
}

// RunBatches 按批处理：批内并发、批间串行并间隔 delay。
// fn 自行记录单条失败，单条失败不会中断批次；只有 ctx 取消时提前返回。
func RunBatches[T any](ctx context.Context, items []T, size int, delay time.Duration, fn func(ctx context.Context, item T)) error {
	size = ClampBatchSize(size)
	for start := 0; start < len(items); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + size
		if end > len(items) {
			end = len(items)
		}

		var g errgroup.Group
		for _, item := range items[start:end] {
			item := item
			g.Go(func() error {
				fn(ctx, item)
				return nil
			})
		}
		_ = g.Wait()

		if end < len(items) && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil
}
