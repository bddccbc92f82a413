package rulestore

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sentineldev/modgate/internal/engine"
	"go.uber.org/zap"
)

const defaultRefreshInterval = 800 * time.Millisecond

// loader fetches the full active-rule set. Satisfied by (*Store).ListActiveRules.
type loader func(ctx context.Context) ([]engine.Rule, error)

// knownRegions is every region a snapshot reports an active-rule gauge
// for, regardless of whether any rule currently targets it.
var knownRegions = []engine.Region{
	engine.RegionGlobal,
	engine.RegionUS,
	engine.RegionEU,
	engine.RegionUK,
	engine.RegionAPAC,
}

// ActiveRuleRecorder receives the active-rule count for a region
// whenever the cache publishes a new snapshot.
type ActiveRuleRecorder interface {
	SetActiveRules(region engine.Region, count int)
}

// Cache is the Rule Store's in-process cache: a single
// immutable Snapshot, swapped by pointer on every refresh. Readers call
// ActiveRules, which only ever does an atomic pointer load — no lock,
// no per-rule fetch, on the request path.
//
// Refresh runs on a fixed interval in the background; Invalidate lets
// an administrative mutation request an out-of-band refresh without
// waiting for the next tick, bounding staleness below one interval
// even right after a write.
type Cache struct {
	snapshot atomic.Pointer[Snapshot]
	load     loader
	interval time.Duration
	metrics  ActiveRuleRecorder
	logger   *zap.Logger

	refreshing atomic.Bool // deduplicates concurrent refresh triggers
	trigger    chan struct{}
}

// NewCache builds a Cache around load, which must return the complete
// active-rule set on every call. interval <= 0 selects the default
// refresh interval.
func NewCache(load loader, interval time.Duration, metrics ActiveRuleRecorder, logger *zap.Logger) *Cache {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	c := &Cache{
		load:     load,
		interval: interval,
		metrics:  metrics,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
	c.snapshot.Store(newSnapshot(nil))
	return c
}

// Run blocks, refreshing the snapshot on the configured interval and
// whenever Invalidate fires, until ctx is cancelled. Call it once from
// a dedicated goroutine at process startup.
func (c *Cache) Run(ctx context.Context) {
	c.refreshOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refreshOnce(ctx)
		case <-c.trigger:
			c.refreshOnce(ctx)
		}
	}
}

// Invalidate requests an immediate out-of-band refresh. It never
// blocks: if an out-of-band refresh is already queued, the request is
// dropped — the queued refresh will pick up the mutation regardless.
func (c *Cache) Invalidate() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// refreshOnce loads the full rule set and publishes a new Snapshot. On
// load failure, the prior snapshot is kept in place — per the moderation
// contract, "serve from the last good snapshot" — and the failure is
// logged. On success it also reports the resulting per-region
// active-rule count to metrics, so an administrative mutation's
// propagation into the cache is directly observable.
func (c *Cache) refreshOnce(ctx context.Context) {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	defer c.refreshing.Store(false)

	loadCtx, cancel := context.WithTimeout(ctx, c.interval)
	defer cancel()

	rules, err := c.load(loadCtx)
	if err != nil {
		c.logger.Warn("rule store refresh failed, serving last good snapshot", zap.Error(err))
		return
	}

	snap := newSnapshot(rules)
	c.snapshot.Store(snap)

	if c.metrics == nil {
		return
	}
	for _, region := range knownRegions {
		c.metrics.SetActiveRules(region, len(snap.Active(region)))
	}
}

// ActiveRules implements engine.RuleSource. It is lock-free: a single
// atomic pointer load followed by Snapshot.Active.
func (c *Cache) ActiveRules(region engine.Region) []engine.Rule {
	return c.snapshot.Load().Active(region)
}
