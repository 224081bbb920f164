package memory

import (
	"time"
)

// typePolicy holds the per-type validity defaults. A zero ValidDays
// means no expiry by time, a zero HalfLifeDays means no decay signal.
type typePolicy struct {
	HalfLifeDays int
	ValidDays    int
}

// typePolicies applies when the candidate carries no duration hint.
// TaskState is absent on purpose: the classifier never produces it, so
// records of that type only exist when constructed directly and carry
// no defaults.
var typePolicies = map[Type]typePolicy{
	TempState:     {HalfLifeDays: 1, ValidDays: 3},
	Preference:    {HalfLifeDays: 60},
	ProfileFact:   {},
	EpisodicEvent: {HalfLifeDays: 7},
	Other:         {HalfLifeDays: 30},
}

// ApplyPolicy assigns valid_until and decay_half_life_days to a freshly
// classified record. An explicit duration hint on the candidate always
// wins over the type defaults, regardless of type. Pure aside from the
// now capture: identical inputs yield identical outcomes.
func ApplyPolicy(rec *Record, c FactCandidate, now time.Time) {
	if c.DurationInDays > 0 {
		vu := now.Add(time.Duration(c.DurationInDays) * 24 * time.Hour)
		rec.ValidUntil = &vu
		half := c.DurationInDays / 2
		if half < 1 {
			half = 1
		}
		rec.DecayHalfLifeDays = half
		return
	}

	p := typePolicies[rec.Type]
	rec.DecayHalfLifeDays = p.HalfLifeDays
	if p.ValidDays > 0 {
		vu := now.Add(time.Duration(p.ValidDays) * 24 * time.Hour)
		rec.ValidUntil = &vu
	}
}
