package storefront

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	apperrors "sjsage522/pspricebot/pkg/errors"
)

// MockFetcher implements Fetcher from a URL suffix table for testing
type MockFetcher struct {
	mu        sync.Mutex
	responses map[string]string
	errors    map[string]error
	calls     []string
	delay     time.Duration

	inFlight    int32
	maxInFlight int32
}

// Ensure MockFetcher implements Fetcher
var _ Fetcher = (*MockFetcher)(nil)

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{responses: map[string]string{}, errors: map[string]error{}}
}

// On registers a body for URLs ending in suffix
func (m *MockFetcher) On(suffix, body string) *MockFetcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[suffix] = body
	return m
}

// Fail registers an error for URLs ending in suffix
func (m *MockFetcher) Fail(suffix string, err error) *MockFetcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[suffix] = err
	return m
}

func (m *MockFetcher) Fetch(ctx context.Context, url, _ string) ([]byte, error) {
	cur := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&m.maxInFlight)
		if cur <= prev || atomic.CompareAndSwapInt32(&m.maxInFlight, prev, cur) {
			break
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, url)
	delay := m.delay
	var body string
	var err error
	found := false
	for suffix, e := range m.errors {
		if strings.HasSuffix(url, suffix) {
			err, found = e, true
		}
	}
	if !found {
		for suffix, b := range m.responses {
			if strings.HasSuffix(url, suffix) {
				body, found = b, true
			}
		}
	}
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.NewNotFound("mock", "status 404: "+url)
	}
	return []byte(body), nil
}

func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockFetcher) MaxInFlight() int32 {
	return atomic.LoadInt32(&m.maxInFlight)
}
