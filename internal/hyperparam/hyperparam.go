package hyperparam

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// #region configuration

// Value is one sampled hyperparameter: a name, the group it was
// declared under, and the sampled value.
type Value struct {
	Name  string `json:"name"`
	Group string `json:"group"`
	Value any    `json:"value"`
}

// Configuration is an ordered set of sampled hyperparameter values.
// Immutable once sampled; owned by the instance that consumed it.
type Configuration []Value

// Get returns the value for name, or nil if absent.
func (c Configuration) Get(name string) any {
	for _, v := range c {
		if v.Name == name {
			return v.Value
		}
	}
	return nil
}

// #endregion configuration

// #region distribution

// SpaceEntry declares one hyperparameter of the search space: its
// name, group, and the number of distinct values it can take.
type SpaceEntry struct {
	Name      string
	Group     string
	SpaceSize int
}

// Distribution is the external sampling strategy. It is stateful:
// CurrentHyperparameters returns the values consumed by the most
// recent round of factory calls.
type Distribution interface {
	CurrentHyperparameters() Configuration
	SpaceConfig() []SpaceEntry
}

// #endregion distribution

// #region range

// Range declares the inclusive bounds of a numeric hyperparameter.
type Range[T constraints.Integer | constraints.Float] struct {
	Min T
	Max T
}

// Clamp pins v into the range.
func (r Range[T]) Clamp(v T) T {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Valid reports whether the bounds are ordered.
func (r Range[T]) Valid() bool { return r.Min <= r.Max }

// #endregion range

// #region summary

// GroupSummary is the per-group slice of a space summary.
type GroupSummary struct {
	Group  string
	Params []SpaceEntry
	Size   int // product of member space sizes
}

// SpaceSummary aggregates the declared search space by group.
type SpaceSummary struct {
	Groups    []GroupSummary
	TotalSize int
}

// Summarize groups the declared entries and computes per-group and
// total space sizes (products of member sizes). Groups are returned
// in sorted order.
func Summarize(entries []SpaceEntry) SpaceSummary {
	byGroup := make(map[string][]SpaceEntry)
	for _, e := range entries {
		byGroup[e.Group] = append(byGroup[e.Group], e)
	}

	names := make([]string, 0, len(byGroup))
	for g := range byGroup {
		names = append(names, g)
	}
	sort.Strings(names)

	summary := SpaceSummary{TotalSize: 1}
	if len(entries) == 0 {
		summary.TotalSize = 0
		return summary
	}
	for _, g := range names {
		gs := GroupSummary{Group: g, Params: byGroup[g], Size: 1}
		for _, e := range byGroup[g] {
			if e.SpaceSize > 0 {
				gs.Size *= e.SpaceSize
			}
		}
		summary.TotalSize *= gs.Size
		summary.Groups = append(summary.Groups, gs)
	}
	return summary
}

// #endregion summary
