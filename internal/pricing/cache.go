package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"sjsage522/pspricebot/logger"
	apperrors "sjsage522/pspricebot/pkg/errors"
	"sjsage522/pspricebot/services/cache"
)

// ErrNoRates is returned when no rate table is available from any source
var ErrNoRates = apperrors.NewConversion("rates", "no exchange rates available", nil)

// snapshotKey is the CacheService key holding the last fetched table
const snapshotKey = "psbot_rates_snapshot"

// State is the freshness of the cached table
type State string

const (
	StateEmpty State = "empty"
	StateFresh State = "fresh"
	StateStale State = "stale"
)

// CacheOptions configures a RateCache
type CacheOptions struct {
	// Base is the reference currency tables are requested in
	Base string
	// TTL is how long a fetched table stays fresh
	TTL time.Duration
	// RefreshTimeout bounds one remote refresh
	RefreshTimeout time.Duration
	// RetryBackoff is the pause after a failed refresh before the remote is tried again
	RetryBackoff time.Duration
	// Manual rates are the last fallback; ManualOnly never calls the source
	Manual     map[string]float64
	ManualOnly bool
	// Snapshot persists the last table across restarts; may be nil
	Snapshot cache.CacheService
	// Now is the clock, time.Now when nil
	Now func() time.Time
}

// RateCache serves rate tables with TTL refresh and fallbacks
type RateCache struct {
	source RateSource
	opts   CacheOptions

	refreshMu sync.Mutex

	mu          sync.RWMutex
	current     RateTable
	hasCurrent  bool
	lastFailure time.Time
	lastErr     error
}

// NewRateCache creates an empty cache over source
func NewRateCache(source RateSource, opts CacheOptions) *RateCache {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 15 * time.Second
	}
	return &RateCache{source: source, opts: opts}
}

// State reports the freshness of the current table
func (c *RateCache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked()
}

func (c *RateCache) stateLocked() State {
	if !c.hasCurrent {
		return StateEmpty
	}
	if c.opts.Now().Sub(c.current.FetchedAt) < c.opts.TTL {
		return StateFresh
	}
	return StateStale
}

// Current returns the cached table without refreshing
func (c *RateCache) Current() (RateTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.hasCurrent
}

// Get returns a fresh table, refreshing it when stale or empty. When the
// refresh fails it falls back to the last known table, then the persisted
// snapshot, then manual rates.
func (c *RateCache) Get(ctx context.Context) (RateTable, error) {
	if c.opts.ManualOnly {
		return c.manual()
	}

	c.mu.RLock()
	if c.stateLocked() == StateFresh {
		table := c.current
		c.mu.RUnlock()
		return table, nil
	}
	c.mu.RUnlock()

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited
	c.mu.RLock()
	state := c.stateLocked()
	table := c.current
	backingOff := !c.lastFailure.IsZero() && c.opts.Now().Sub(c.lastFailure) < c.opts.RetryBackoff
	c.mu.RUnlock()

	if state == StateFresh {
		return table, nil
	}

	if state == StateEmpty {
		if snap, ok := c.loadSnapshot(); ok && c.opts.Now().Sub(snap.FetchedAt) < c.opts.TTL {
			c.store(snap)
			return snap, nil
		}
	}

	if !backingOff {
		fresh, err := c.refreshLocked(ctx)
		if err == nil {
			return fresh, nil
		}
	}

	return c.fallback()
}

// Refresh fetches a new table from the source regardless of freshness
func (c *RateCache) Refresh(ctx context.Context) error {
	if c.opts.ManualOnly {
		return nil
	}
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	_, err := c.refreshLocked(ctx)
	return err
}

func (c *RateCache) refreshLocked(ctx context.Context) (RateTable, error) {
	log := logger.ForRates()

	ctx, cancel := context.WithTimeout(ctx, c.opts.RefreshTimeout)
	defer cancel()

	table, err := c.source.Fetch(ctx, c.opts.Base)
	if err == nil && table.IsZero() {
		err = apperrors.NewParsing("rates", "rate source returned an empty table", nil)
	}
	if err != nil {
		c.mu.Lock()
		c.lastFailure = c.opts.Now()
		c.lastErr = err
		c.mu.Unlock()
		log.Warn().Err(err).Str("base", c.opts.Base).Msg("Rate refresh failed")
		return RateTable{}, err
	}

	// FetchedAt is stamped with our clock so TTL math does not depend on the source
	table = NewRateTable(table.Base, table.Rates, c.opts.Now(), table.Source)
	c.store(table)

	c.mu.Lock()
	c.lastFailure = time.Time{}
	c.lastErr = nil
	c.mu.Unlock()

	c.saveSnapshot(table)
	log.Info().Str("base", table.Base).Int("currencies", len(table.Rates)).Msg("Rates refreshed")
	return table, nil
}

func (c *RateCache) fallback() (RateTable, error) {
	log := logger.ForRates()

	if table, ok := c.Current(); ok {
		log.Warn().Time("fetched_at", table.FetchedAt).Msg("Serving stale rate table")
		return table, nil
	}
	if snap, ok := c.loadSnapshot(); ok {
		log.Warn().Time("fetched_at", snap.FetchedAt).Msg("Serving persisted rate snapshot")
		c.store(snap)
		return snap, nil
	}
	if len(c.opts.Manual) > 0 {
		log.Warn().Msg("Serving manual rates")
		return c.manual()
	}
	return RateTable{}, ErrNoRates
}

func (c *RateCache) manual() (RateTable, error) {
	if len(c.opts.Manual) == 0 {
		return RateTable{}, ErrNoRates
	}
	return NewRateTable(c.opts.Base, c.opts.Manual, c.opts.Now(), "manual"), nil
}

func (c *RateCache) store(table RateTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = table
	c.hasCurrent = true
}

// LastError returns the error of the last failed refresh, nil after a success
func (c *RateCache) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *RateCache) loadSnapshot() (RateTable, bool) {
	if c.opts.Snapshot == nil {
		return RateTable{}, false
	}
	raw, err := c.opts.Snapshot.Get(snapshotKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.ForRates().Warn().Err(err).Msg("Failed to read rate snapshot")
		}
		return RateTable{}, false
	}
	var table RateTable
	if err := json.Unmarshal(raw, &table); err != nil || table.IsZero() || table.Base != c.opts.Base {
		return RateTable{}, false
	}
	return table, true
}

func (c *RateCache) saveSnapshot(table RateTable) {
	if c.opts.Snapshot == nil {
		return
	}
	raw, err := json.Marshal(table)
	if err != nil {
		return
	}
	if err := c.opts.Snapshot.Set(snapshotKey, raw, 0); err != nil {
		logger.ForRates().Warn().Err(err).Msg("Failed to persist rate snapshot")
	}
}
