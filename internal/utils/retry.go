package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent 标记不可重试的错误，DoWithRetry 遇到后立即返回原错误
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// DoWithRetry 执行带重试逻辑的函数，第 n 次失败后等待 interval*2^(n-1)
func DoWithRetry(ctx context.Context, maxRetries int, interval time.Duration, fn func() error) error {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var p *permanentError
		if errors.As(err, &p) {
			return p.err
		}

		// 最后一次失败则直接返回
		if attempt == maxRetries {
			break
		}

		wait := interval * time.Duration(1<<uint(attempt-1))
		select {
		case <-ctx.Done():
			return fmt.Errorf("上下文已取消或超时: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return err
}
