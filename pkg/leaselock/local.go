package leaselock

import (
	"context"
	"sync"
)

// Local is an in-process Locker for single binary deployments and tests.
// Leases never expire; TTL and renewal options are ignored.
type Local struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{held: make(map[string]chan struct{})}
}

func (l *Local) WithLease(ctx context.Context, key string, opts Options, fn func(ctx context.Context) error) error {
	if key == "" {
		return errEmptyKey
	}
	release, err := l.acquire(ctx, key, opts.Wait)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

func (l *Local) acquire(ctx context.Context, key string, wait bool) (func(), error) {
	for {
		l.mu.Lock()
		done, busy := l.held[key]
		if !busy {
			done = make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.held, key)
				l.mu.Unlock()
				close(done)
			}, nil
		}
		l.mu.Unlock()

		if !wait {
			return nil, ErrBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done:
		}
	}
}
