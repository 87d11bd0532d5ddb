package status

import "sort"

// Aggregate is the cached summary of all component flags of one object.
type Aggregate struct {
	// Components is the number of sub-components with any flag tracked.
	Components int
	// Union has a bit set when at least one component has it set.
	Union Status
	// Selected, Highlighted, Hidden, Locked and Damaged count the
	// components carrying the respective flag.
	Selected    int
	Highlighted int
	Hidden      int
	Locked      int
	Damaged     int
}

// AggregateCache stores per-component flags together with a dirty-bit
// guarded summary. Any mutation that changes a flag marks the summary
// stale; the next AggregateStatus call recomputes it. The explicit state
// machine is {stale, current}: mutations move to stale, aggregate reads
// move back to current.
//
// The zero value is an empty cache; its first aggregate read computes an
// empty summary. Not safe for concurrent use.
type AggregateCache struct {
	flags     map[ComponentIndex]Status
	summary   Aggregate
	current   bool
	recompute int
}

// SetComponentStatus replaces the full flag set of one component and
// reports whether any bit changed. A change invalidates the summary.
func (c *AggregateCache) SetComponentStatus(idx ComponentIndex, s Status) bool {
	old := c.flags[idx]
	if old == s {
		return false
	}
	c.store(idx, s)
	c.current = false
	return true
}

// SetStates adds the bits of mask to one component's flags and reports
// whether any bit changed.
func (c *AggregateCache) SetStates(idx ComponentIndex, mask Status) bool {
	old := c.flags[idx]
	updated := old.Set(mask)
	if updated == old {
		return false
	}
	c.store(idx, updated)
	c.current = false
	return true
}

// ClearStates removes the bits of mask from one component's flags and
// reports whether any bit changed.
func (c *AggregateCache) ClearStates(idx ComponentIndex, mask Status) bool {
	old := c.flags[idx]
	updated := old.Clear(mask)
	if updated == old {
		return false
	}
	c.store(idx, updated)
	c.current = false
	return true
}

// ComponentStatus returns the flags of one component, None when untracked.
func (c *AggregateCache) ComponentStatus(idx ComponentIndex) Status {
	return c.flags[idx]
}

// ClearAllStates removes the bits of mask from every component and
// returns the number of components whose flags changed.
func (c *AggregateCache) ClearAllStates(mask Status) int {
	changed := 0
	for idx, old := range c.flags {
		updated := old.Clear(mask)
		if updated == old {
			continue
		}
		c.store(idx, updated)
		changed++
	}
	if changed > 0 {
		c.current = false
	}
	return changed
}

// QueryComponentsWithStates returns the indices of components matching
// mask, sorted by kind then index. With requireAll true a component
// matches only when every bit of mask is set on it; otherwise one bit
// suffices.
func (c *AggregateCache) QueryComponentsWithStates(mask Status, requireAll bool) []ComponentIndex {
	var out []ComponentIndex
	for idx, s := range c.flags {
		if requireAll && s.AllSet(mask) || !requireAll && s.SomeSet(mask) {
			out = append(out, idx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// AggregateStatus returns the summary of all component flags. When the
// cache is current the stored summary is returned without scanning;
// otherwise the summary is recomputed, cached and marked current.
func (c *AggregateCache) AggregateStatus() Aggregate {
	if c.current {
		return c.summary
	}
	var agg Aggregate
	for _, s := range c.flags {
		if s == None {
			continue
		}
		agg.Components++
		agg.Union |= s
		if s.SomeSet(Selected) {
			agg.Selected++
		}
		if s.SomeSet(Highlighted) {
			agg.Highlighted++
		}
		if s.SomeSet(Hidden) {
			agg.Hidden++
		}
		if s.SomeSet(Locked) {
			agg.Locked++
		}
		if s.SomeSet(Damaged) {
			agg.Damaged++
		}
	}
	c.summary = agg
	c.current = true
	c.recompute++
	return agg
}

// MarkStale invalidates the cached summary. Callers that mutate component
// state through a path the cache cannot observe use this hook.
func (c *AggregateCache) MarkStale() { c.current = false }

// IsCurrent reports whether the cached summary reflects all mutations.
func (c *AggregateCache) IsCurrent() bool { return c.current }

// Recomputes returns how many times the summary has been rebuilt. Tests
// use it to assert the lazy contract.
func (c *AggregateCache) Recomputes() int { return c.recompute }

// store writes a flag set, dropping empty entries so the map tracks only
// components with at least one bit set.
func (c *AggregateCache) store(idx ComponentIndex, s Status) {
	if s == None {
		delete(c.flags, idx)
		return
	}
	if c.flags == nil {
		c.flags = make(map[ComponentIndex]Status)
	}
	c.flags[idx] = s
}
