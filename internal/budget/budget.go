package budget

// #region outcome

// Outcome classifies one generation attempt.
type Outcome string

const (
	OutcomeValid             Outcome = "valid"
	OutcomeInvalid           Outcome = "invalid"
	OutcomeDuplicatePrevious Outcome = "duplicate_previous"
	OutcomeCollision         Outcome = "collision"
	OutcomeOversized         Outcome = "oversized"
)

// #endregion outcome

// #region policy

// DefaultMaxFailStreak is how many consecutive failures of one kind
// are tolerated before generation gives up.
const DefaultMaxFailStreak = 5

// Policy is a streak-counting gate over instance generation. The three
// failure streaks (invalid builds, identity collisions, oversized
// models) are each compared against maxFailStreak. The generic
// attempt counter is informational only and never gates termination.
// One Policy covers one NewInstance call; streaks are attempt-scoped
// and never reset within a call.
type Policy struct {
	maxFailStreak int

	attempts        int
	invalidStreak   int
	collisionStreak int
	oversizedStreak int
}

// NewPolicy creates a policy. maxFailStreak <= 0 selects the default.
func NewPolicy(maxFailStreak int) *Policy {
	if maxFailStreak <= 0 {
		maxFailStreak = DefaultMaxFailStreak
	}
	return &Policy{maxFailStreak: maxFailStreak}
}

// #endregion policy

// #region observe

// Observe records one attempt outcome and reports whether generation
// must stop. Previous-run duplicates never count toward termination:
// bounding those is the distribution strategy's job, not ours.
func (p *Policy) Observe(o Outcome) bool {
	p.attempts++

	switch o {
	case OutcomeInvalid:
		p.invalidStreak++
		return p.invalidStreak >= p.maxFailStreak
	case OutcomeCollision:
		p.collisionStreak++
		return p.collisionStreak >= p.maxFailStreak
	case OutcomeOversized:
		p.oversizedStreak++
		return p.oversizedStreak >= p.maxFailStreak
	}
	return false
}

// #endregion observe

// #region accessors

// Attempts returns how many outcomes have been observed.
func (p *Policy) Attempts() int { return p.attempts }

// Streak returns the current streak for a failure kind.
func (p *Policy) Streak(o Outcome) int {
	switch o {
	case OutcomeInvalid:
		return p.invalidStreak
	case OutcomeCollision:
		return p.collisionStreak
	case OutcomeOversized:
		return p.oversizedStreak
	}
	return 0
}

// MaxFailStreak returns the configured cap.
func (p *Policy) MaxFailStreak() int { return p.maxFailStreak }

// #endregion accessors
