package metrics

import (
	"fmt"
	"math"
	"strings"
)

// #region direction

// Direction says which way a metric improves.
type Direction string

const (
	Minimize Direction = "min"
	Maximize Direction = "max"
)

// Better reports whether a improves on b under the direction ordering.
func (d Direction) Better(a, b float64) bool {
	if d == Maximize {
		return a > b
	}
	return a < b
}

// sentinel returns the initial best value: +Inf for minimize, -Inf for
// maximize, so the first real observation always improves on it.
func (d Direction) sentinel() float64 {
	if d == Maximize {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// #endregion direction

// #region key-metric

// KeyMetric is one tracked metric: a name and a direction.
type KeyMetric struct {
	Name      string
	Direction Direction
}

// DefaultKeyMetrics is the tracked set when the user declares none.
func DefaultKeyMetrics() []KeyMetric {
	return []KeyMetric{
		{Name: "loss", Direction: Minimize},
		{Name: "val_loss", Direction: Minimize},
		{Name: "acc", Direction: Maximize},
		{Name: "val_acc", Direction: Maximize},
	}
}

// Parse converts "name:direction" declarations into typed key metrics,
// failing fast on the first malformed entry. Duplicate names are
// rejected too: a metric cannot be tracked under two directions.
func Parse(specs []string) ([]KeyMetric, error) {
	if len(specs) == 0 {
		return DefaultKeyMetrics(), nil
	}

	seen := make(map[string]bool)
	out := make([]KeyMetric, 0, len(specs))
	for _, s := range specs {
		name, dir, ok := strings.Cut(s, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid key metric %q: want name:direction", s)
		}
		if dir != string(Minimize) && dir != string(Maximize) {
			return nil, fmt.Errorf("invalid direction %q for metric %q: want min or max", dir, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate key metric %q", name)
		}
		seen[name] = true
		out = append(out, KeyMetric{Name: name, Direction: Direction(dir)})
	}
	return out, nil
}

// #endregion key-metric

// #region tracker

// Tracker maintains best and latest values per tracked metric. best is
// monotonically improving across the run; latest is overwritten each
// time a result containing the metric is recorded.
type Tracker struct {
	order      []string
	directions map[string]Direction
	best       map[string]float64
	latest     map[string]float64
}

// NewTracker seeds a tracker for the given key metrics.
func NewTracker(keys []KeyMetric) *Tracker {
	t := &Tracker{
		directions: make(map[string]Direction, len(keys)),
		best:       make(map[string]float64, len(keys)),
		latest:     make(map[string]float64),
	}
	for _, km := range keys {
		t.order = append(t.order, km.Name)
		t.directions[km.Name] = km.Direction
		t.best[km.Name] = km.Direction.sentinel()
	}
	return t
}

// Record folds one result set into the tracker. Metrics absent from
// results keep their prior best and latest untouched.
func (t *Tracker) Record(results map[string]float64) {
	for name, dir := range t.directions {
		val, ok := results[name]
		if !ok {
			continue
		}
		t.latest[name] = val
		if dir.Better(val, t.best[name]) {
			t.best[name] = val
		}
	}
}

// Best returns the best value seen for name. ok is false when name is
// untracked or nothing has been recorded yet.
func (t *Tracker) Best(name string) (float64, bool) {
	v, tracked := t.best[name]
	if !tracked || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Latest returns the most recently recorded value for name.
func (t *Tracker) Latest(name string) (float64, bool) {
	v, ok := t.latest[name]
	return v, ok
}

// Direction returns the tracked direction for name.
func (t *Tracker) Direction(name string) (Direction, bool) {
	d, ok := t.directions[name]
	return d, ok
}

// Names returns the tracked metric names in declaration order.
func (t *Tracker) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// #endregion tracker

// #region snapshot

// Stats is a serializable snapshot of the tracker, embedded in run
// metadata. Sentinel bests (nothing recorded) are omitted.
type Stats struct {
	Best      map[string]float64   `json:"best"`
	Latest    map[string]float64   `json:"latest"`
	Direction map[string]Direction `json:"direction"`
}

// Snapshot copies the tracker state into a Stats value.
func (t *Tracker) Snapshot() Stats {
	s := Stats{
		Best:      make(map[string]float64),
		Latest:    make(map[string]float64),
		Direction: make(map[string]Direction, len(t.directions)),
	}
	for name, dir := range t.directions {
		s.Direction[name] = dir
		if v, ok := t.Best(name); ok {
			s.Best[name] = v
		}
		if v, ok := t.Latest(name); ok {
			s.Latest[name] = v
		}
	}
	return s
}

// #endregion snapshot
