package pricing

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MockSource implements RateSource for testing
type MockSource struct {
	mu    sync.Mutex
	calls int
	rates map[string]float64
	err   error
	block bool
}

// Ensure MockSource implements RateSource
var _ RateSource = (*MockSource)(nil)

func (m *MockSource) Fetch(ctx context.Context, base string) (RateTable, error) {
	m.mu.Lock()
	m.calls++
	block, err, rates := m.block, m.err, m.rates
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return RateTable{}, ctx.Err()
	}
	if err != nil {
		return RateTable{}, err
	}
	return NewRateTable(base, rates, time.Time{}, "mock"), nil
}

func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockSource) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

var errUpstream = errors.New("upstream down")

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
