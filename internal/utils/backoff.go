package utils

import (
	"context"
	"time"
)

type Backoff struct {
	base       time.Duration
	maxRetries int
}

func NewBackoff(base time.Duration, maxRetries int) Backoff {
	return Backoff{base: base, maxRetries: maxRetries}
}

// Do calls fn until it succeeds, retry says the error is final, the retries
// run out or ctx ends. jitter (optional) is added to each wait.
func (b Backoff) Do(ctx context.Context, fn func(i int) error, retry func(error) bool, jitter func(i int) time.Duration) error {
	var err error
	for i := 0; i <= b.maxRetries; i++ {
		err = fn(i)
		if err == nil {
			return nil
		}
		if retry != nil && !retry(err) {
			return err
		}
		if i == b.maxRetries {
			break
		}
		t := time.Duration(1<<i) * b.base
		if jitter != nil {
			t += jitter(i)
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(t):
		}
	}
	return err
}
