package rulestore

import (
	"sort"

	"github.com/sentineldev/modgate/internal/engine"
)

// Snapshot is an immutable view of every active rule at the moment it
// was loaded. It is never mutated after construction — the cache
// publishes a new Snapshot rather than editing this one, so concurrent
// readers never need to synchronize beyond a pointer load.
type Snapshot struct {
	rules    []engine.Rule
	byRegion map[engine.Region][]engine.Rule
}

// newSnapshot sorts rules priority-descending then id-ascending once,
// at load time, and groups the active ones by region. Active for GLOBAL,
// or for a region with no scoped rules, is a plain map lookup; any other
// region merges its rules with the GLOBAL ones and sorts the merge on
// each call.
func newSnapshot(rules []engine.Rule) *Snapshot {
	sorted := make([]engine.Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].ID < sorted[j].ID
	})

	byRegion := make(map[engine.Region][]engine.Rule)
	for _, r := range sorted {
		if !r.IsActive {
			continue
		}
		if r.Region == engine.RegionGlobal {
			byRegion[engine.RegionGlobal] = append(byRegion[engine.RegionGlobal], r)
		} else {
			byRegion[r.Region] = append(byRegion[r.Region], r)
		}
	}

	return &Snapshot{rules: sorted, byRegion: byRegion}
}

// Active returns the rules visible to a request in the given region:
// every active GLOBAL rule plus every active rule scoped to region
// itself, already sorted priority-descending then id-ascending.
func (s *Snapshot) Active(region engine.Region) []engine.Rule {
	if s == nil {
		return nil
	}
	if region == engine.RegionGlobal {
		return s.byRegion[engine.RegionGlobal]
	}

	global := s.byRegion[engine.RegionGlobal]
	scoped := s.byRegion[region]
	if len(scoped) == 0 {
		return global
	}

	merged := make([]engine.Rule, 0, len(global)+len(scoped))
	merged = append(merged, global...)
	merged = append(merged, scoped...)
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Priority != merged[j].Priority {
			return merged[i].Priority > merged[j].Priority
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}
