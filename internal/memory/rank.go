package memory

import (
	"sort"
	"time"
)

// Ranking adjustments, additive on the raw similarity scale. All that
// match are applied; order does not matter.
const (
	expiredPenalty       = 0.5
	profileFactBonus     = 0.1
	preferenceBonus      = 0.05
	tempStalePenalty     = 0.1
	episodicStalePenalty = 0.05
	lowConfidencePenalty = 0.2
	highConfidenceBonus  = 0.05

	tempStaleAfter     = 7 * 24 * time.Hour
	episodicStaleAfter = 30 * 24 * time.Hour
)

// Rank combines a base similarity score with temporal, type and
// confidence adjustments. Pure function: no side effects, no state.
//
// The expired penalty is defense in depth only; expired records are
// swept and filtered out before ranking runs, so it should rarely fire.
func Rank(baseScore float64, rec *Record, now time.Time) float64 {
	score := baseScore

	if rec.Expired(now) {
		score -= expiredPenalty
	}

	switch rec.Type {
	case ProfileFact:
		score += profileFactBonus
	case Preference:
		score += preferenceBonus
	case TempState:
		if now.Sub(rec.CreatedAt) > tempStaleAfter {
			score -= tempStalePenalty
		}
	case EpisodicEvent:
		if now.Sub(rec.CreatedAt) > episodicStaleAfter {
			score -= episodicStalePenalty
		}
	}

	if rec.Confidence < 0.5 {
		score -= lowConfidencePenalty
	} else if rec.Confidence > 0.9 {
		score += highConfidenceBonus
	}

	return score
}

// Ranked pairs a record with its adjusted score
type Ranked struct {
	Record *Record `json:"record"`
	Score  float64 `json:"score"`
}

// SortRanked orders results by descending score. The sort is stable so
// ties keep the vector search's original ordering.
func SortRanked(results []Ranked) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
