package rank

import (
	"math"
	"sort"

	"studyspot-backend/internal/index"
	"studyspot-backend/internal/parse"
	"studyspot-backend/internal/personal"
	"studyspot-backend/internal/store"
)

// Strategy selects which personalization form the scorer applies. The two
// forms are alternatives, never combined.
type Strategy string

const (
	// StrategyHeuristic scores from historical dwell time and session
	// outcomes at each space.
	StrategyHeuristic Strategy = "heuristic"
	// StrategyProbability scores from the blended marginal-probability
	// likelihood, applied additively after scaling.
	StrategyProbability Strategy = "probability"
)

// DefaultProbabilityWeight scales the [0,1] likelihood so it is commensurate
// with the heuristic bonuses.
const DefaultProbabilityWeight = 10.0

// Location is an optional caller position used for the distance term.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ScoredSpace is a hydrated space with its final relevance score.
type ScoredSpace struct {
	store.SpaceDetail
	Score float64 `json:"score"`
}

// Scorer merges filter match, availability, and personalization signals into
// one additive score per candidate.
type Scorer struct {
	Strategy          Strategy
	ProbabilityWeight float64
}

func NewScorer(strategy Strategy, probabilityWeight float64) Scorer {
	if strategy != StrategyProbability {
		strategy = StrategyHeuristic
	}
	if probabilityWeight <= 0 {
		probabilityWeight = DefaultProbabilityWeight
	}
	return Scorer{Strategy: strategy, ProbabilityWeight: probabilityWeight}
}

// Rank scores and orders candidates: descending score, ties by ascending
// space id so identical inputs always produce identical output. profile and
// loc may be nil; absent optional attributes simply do not contribute.
func (s Scorer) Rank(details []store.SpaceDetail, filters index.Filters, profile *personal.Profile, loc *Location) []ScoredSpace {
	ranked := make([]ScoredSpace, 0, len(details))
	for _, d := range details {
		score := filterMatchScore(d, filters)
		if !d.MustReserve {
			score += 1
		}
		if loc != nil && d.Latitude != nil && d.Longitude != nil {
			miles := haversineMiles(loc.Latitude, loc.Longitude, *d.Latitude, *d.Longitude)
			score += math.Max(0, 10-miles)
		}
		if profile != nil {
			score += s.personalScore(d, profile)
		}
		ranked = append(ranked, ScoredSpace{SpaceDetail: d, Score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

func filterMatchScore(d store.SpaceDetail, f index.Filters) float64 {
	var score float64
	if f.TechEnhanced != nil && *f.TechEnhanced && d.TechEnhanced {
		score += 3
	}
	if f.Indoor != nil && *f.Indoor && d.Indoor {
		score += 2
	}
	if f.TalkingAllowed != nil && *f.TalkingAllowed == d.TalkingAllowed {
		score += 2
	}
	if f.HasPrinter != nil && *f.HasPrinter && d.HasPrinter != nil && *d.HasPrinter {
		score += 2
	}
	if f.CapacityRange != nil && d.Capacity != nil {
		// Malformed range strings skip the term, never fail the query.
		if r, err := parse.ParseRange(*f.CapacityRange); err == nil && r.Contains(*d.Capacity) {
			score += 3
		}
	}
	return score
}

func (s Scorer) personalScore(d store.SpaceDetail, p *personal.Profile) float64 {
	if s.Strategy == StrategyProbability {
		return p.Likelihood(d) * s.ProbabilityWeight
	}

	var score float64
	// 1 point per minute of detail-view dwell, capped at 5.
	if dwell := p.DwellMS(d.ID); dwell > 0 {
		score += math.Min(5, float64(dwell)/60000)
	}
	// 1 point per 5 minutes of the longest past session, capped at 6.
	if longest := p.LongestSessionMS(d.ID); longest > 0 {
		score += math.Min(6, float64(longest)/300000)
	}
	if p.EndedOrdinarily(d.ID) {
		score += 4
	}
	if p.EndedByNoise(d.ID) {
		score -= 3
	}
	return score
}

// haversineMiles is the great-circle distance between two coordinates.
func haversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusMiles = 3959

	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dlat := rad(lat2 - lat1)
	dlon := rad(lon2 - lon1)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusMiles * 2 * math.Asin(math.Sqrt(a))
}
