package personal

import (
	"strconv"

	"studyspot-backend/internal/parse"
	"studyspot-backend/internal/store"
)

// DefaultAlpha is the add-one Laplace smoothing constant.
const DefaultAlpha = 1.0

// Attributes the marginal-probability path models. Capacity enters as its
// index bucket so the distribution stays categorical.
const (
	attrMustReserve = "must_reserve"
	attrTech        = "tech_enhanced"
	attrIndoor      = "indoor"
	attrTalking     = "talking_allowed"
	attrPrinter     = "has_printer"
	attrCapacity    = "capacity_range"
	attrBuilding    = "building"
)

// Distribution is a smoothed categorical distribution over observed values of
// one attribute. Probabilities sum to 1.
type Distribution map[string]float64

// Marginals maps attribute name to its distribution for one event type.
// Attributes never observed in the collection have no entry.
type Marginals map[string]Distribution

// buildMarginals estimates per-attribute distributions from one event
// collection with add-alpha smoothing:
//
//	p(value) = (count(value) + alpha) / (n + alpha*k)
//
// where n counts rows where the attribute was observed and k the distinct
// observed values.
func buildMarginals(rows []Attributes, alpha float64) Marginals {
	counts := map[string]map[string]int{}
	observe := func(attr, value string) {
		if counts[attr] == nil {
			counts[attr] = map[string]int{}
		}
		counts[attr][value]++
	}

	for _, r := range rows {
		observeBool(observe, attrMustReserve, r.MustReserve)
		observeBool(observe, attrTech, r.TechEnhanced)
		observeBool(observe, attrIndoor, r.Indoor)
		observeBool(observe, attrTalking, r.TalkingAllowed)
		observeBool(observe, attrPrinter, r.HasPrinter)
		if r.Capacity != nil && *r.Capacity > 0 {
			observe(attrCapacity, parse.BucketForCapacity(*r.Capacity))
		}
		if r.BuildingID != nil && *r.BuildingID != "" {
			observe(attrBuilding, *r.BuildingID)
		}
	}

	marginals := make(Marginals, len(counts))
	for attr, valueCounts := range counts {
		n := 0
		for _, c := range valueCounts {
			n += c
		}
		k := float64(len(valueCounts))
		dist := make(Distribution, len(valueCounts))
		for value, c := range valueCounts {
			dist[value] = (float64(c) + alpha) / (float64(n) + alpha*k)
		}
		marginals[attr] = dist
	}
	return marginals
}

// fitScore is the average, over the candidate's attributes that this event
// type has a distribution for, of the smoothed probability of the candidate's
// actual value. No overlapping attributes yields zero.
func (m Marginals) fitScore(d store.SpaceDetail) float64 {
	var sum float64
	var n int
	score := func(attr, value string) {
		dist, ok := m[attr]
		if !ok {
			return
		}
		sum += dist[value] // unseen value scores zero probability
		n++
	}

	score(attrMustReserve, strconv.FormatBool(d.MustReserve))
	score(attrTech, strconv.FormatBool(d.TechEnhanced))
	score(attrIndoor, strconv.FormatBool(d.Indoor))
	score(attrTalking, strconv.FormatBool(d.TalkingAllowed))
	if d.HasPrinter != nil {
		score(attrPrinter, strconv.FormatBool(*d.HasPrinter))
	}
	if d.Capacity != nil && *d.Capacity > 0 {
		score(attrCapacity, parse.BucketForCapacity(*d.Capacity))
	}
	if d.BuildingID != nil && *d.BuildingID != "" {
		score(attrBuilding, *d.BuildingID)
	}

	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func observeBool(observe func(attr, value string), attr string, b *bool) {
	if b == nil {
		return
	}
	observe(attr, strconv.FormatBool(*b))
}
