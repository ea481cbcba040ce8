package nav

import (
	"math"
	"sort"
)

// Tracker maps position fixes onto a guide route and keeps a progress index
// that only moves forward, apart from small backward corrections.
//
// On a loop the first and last points coincide, so a plain nearest-point
// search would snap a runner standing at the start onto the finish. Until
// the runner has covered StartFraction of the route the search is limited to
// the first StartSearchFraction of it; afterwards it only looks in a window
// around the last index, and in the tail of the route that window is never
// allowed to reach back towards the start.
//
// A Tracker is not safe for concurrent use; Session serializes access.
type Tracker struct {
	cfg    TrackerConfig
	points []GeoPoint
	cum    []float64
	turns  []TurnPoint

	lastIndex  int
	hasStarted bool
}

// NewTracker creates a tracker for route and its precomputed turns
func NewTracker(route Route, turns []TurnPoint, cfg TrackerConfig) (*Tracker, error) {
	t := &Tracker{cfg: cfg}
	if err := t.Load(route, turns); err != nil {
		return nil, err
	}
	return t, nil
}

// Load replaces the guide route and resets progress
func (t *Tracker) Load(route Route, turns []TurnPoint) error {
	if len(route.Points) < 2 {
		return invalid("route.points", "must contain at least 2 points")
	}
	t.points = route.Geo()
	t.cum = cumulativeM(route.Points)
	t.turns = append([]TurnPoint(nil), turns...)
	sort.SliceStable(t.turns, func(i, j int) bool { return t.turns[i].Index < t.turns[j].Index })
	t.lastIndex = 0
	t.hasStarted = false
	return nil
}

// ProgressIndex returns the last accepted route index
func (t *Tracker) ProgressIndex() int { return t.lastIndex }

// Started reports whether the runner has moved far enough from the start
// for the loop's finish to be matchable.
func (t *Tracker) Started() bool { return t.hasStarted }

// Update consumes one fix and returns the guidance for it. It never fails.
func (t *Tracker) Update(pos GeoPoint) Guidance {
	n := len(t.points)
	if !t.hasStarted && float64(t.lastIndex) > t.cfg.StartFraction*float64(n) {
		t.hasStarted = true
	}

	lo, hi := t.window()
	best := lo
	bestM := math.Inf(1)
	for i := lo; i <= hi; i++ {
		if d := DistanceM(pos, t.points[i]); d < bestM {
			best, bestM = i, d
		}
	}

	// a large jump back after the start is GPS noise, not backtracking
	if !t.hasStarted || best >= t.lastIndex-t.cfg.MaxBacktrack {
		t.lastIndex = best
	}

	return t.guidance(pos)
}

// window returns the inclusive index range searched for the next match
func (t *Tracker) window() (int, int) {
	last := len(t.points) - 1

	if !t.hasStarted {
		hi := int(math.Ceil(t.cfg.StartSearchFraction * float64(len(t.points))))
		hi = clampInt(hi, min(1, last), last)
		// lastIndex always came from this range, but keep it reachable
		return 0, max(hi, t.lastIndex)
	}

	lo := t.lastIndex - t.cfg.BackWindow
	hi := t.lastIndex + t.cfg.AheadWindow
	tail := int(t.cfg.TailFraction * float64(len(t.points)))
	if t.lastIndex >= tail && lo < tail {
		lo = tail
	}
	return clampInt(lo, 0, last), clampInt(hi, 0, last)
}

func (t *Tracker) guidance(pos GeoPoint) Guidance {
	progress := t.lastIndex
	last := len(t.points) - 1
	remaining := t.cum[last] - t.cum[progress]

	g := Guidance{
		ProgressIndex: progress,
		Started:       t.hasStarted,
		TurnIndex:     -1,
		RemainingM:    remaining,
		OffRouteM:     DistanceM(pos, t.points[progress]),
	}

	if remaining < t.cfg.ArrivalM {
		g.Instruction = instructionFor(KindArrive)
		g.DistanceM = remaining
		return g
	}

	if turn, ok := t.nextTurn(progress); ok {
		g.Instruction = turn.Instruction
		g.DistanceM = t.cum[turn.Index] - t.cum[progress]
		g.TurnIndex = turn.Index
		return g
	}

	g.Instruction = instructionFor(KindStraight)
	g.DistanceM = remaining
	return g
}

// nextTurn finds the first turn strictly after index
func (t *Tracker) nextTurn(index int) (TurnPoint, bool) {
	i := sort.Search(len(t.turns), func(i int) bool { return t.turns[i].Index > index })
	if i < len(t.turns) && t.turns[i].Index < len(t.points) {
		return t.turns[i], true
	}
	return TurnPoint{}, false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
