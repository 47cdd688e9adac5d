package dataset

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memo caches the table of a Provider for the life of the process. Concurrent
// callers share one in-flight load. Failed loads are not cached.
type Memo struct {
	// Timeout bounds a shared load; zero means none.
	Timeout time.Duration

	provider Provider
	group    singleflight.Group

	mu    sync.RWMutex
	table *Table
}

// NewMemo wraps p.
func NewMemo(p Provider) *Memo {
	return &Memo{provider: p}
}

const memoKey = "table"

// Load returns the cached table, loading it on first use. The shared load
// does not inherit the cancellation of the caller that started it; each caller
// stops waiting when its own ctx is done.
func (m *Memo) Load(ctx context.Context) (*Table, error) {
	if t := m.cached(); t != nil {
		return t, nil
	}
	ch := m.group.DoChan(memoKey, func() (any, error) {
		if t := m.cached(); t != nil {
			return t, nil
		}
		loadCtx := context.WithoutCancel(ctx)
		if m.Timeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, m.Timeout)
			defer cancel()
		}
		t, err := m.provider.Load(loadCtx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.table = t
		m.mu.Unlock()
		return t, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Table), nil
	}
}

// Invalidate drops the cached table; the next Load reads the sources again.
func (m *Memo) Invalidate() {
	m.mu.Lock()
	m.table = nil
	m.mu.Unlock()
	m.group.Forget(memoKey)
}

func (m *Memo) cached() *Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.table
}
