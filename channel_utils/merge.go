package channel_utils

import (
	"context"
	"sync"
)

// MergeChannels fans several channels into one. The merged channel closes
// after every input channel has closed. Draining runs on plain goroutines,
// never on pool workers.
func MergeChannels[T any](channels ...<-chan T) <-chan T {
	var wg sync.WaitGroup
	merged := make(chan T)

	output := func(c <-chan T) {
		defer wg.Done()
		for val := range c {
			merged <- val
		}
	}

	wg.Add(len(channels))
	for _, c := range channels {
		go output(c)
	}

	go func() {
		wg.Wait()
		close(merged)
	}()

	return merged
}

// Emit feeds a slice into a fresh channel. The channel closes after the last
// item, or early when ctx is cancelled.
func Emit[T any](ctx context.Context, items []T) <-chan T {
	out := make(chan T)

	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
