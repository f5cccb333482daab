package personal

import "math"

// Event type keys and their fixed aggregation weights. Feedback is excluded:
// it only feeds the suppression set.
const (
	EventSessions   = "study_sessions"
	EventBookmarks  = "bookmarks"
	EventViews      = "spot_detail_views"
	EventFilterLogs = "search_filters"
)

var eventWeights = map[string]float64{
	EventSessions:   1.0,
	EventBookmarks:  1.5,
	EventViews:      0.5,
	EventFilterLogs: 0.5,
}

// EventStats summarizes one event collection. All attribute fields are nil
// for an empty collection (count 0); means skip rows where the attribute is
// unknown.
type EventStats struct {
	Count          int                `json:"count"`
	AvgCapacity    *float64           `json:"avg_capacity"`
	MinCapacity    *float64           `json:"min_capacity"`
	MaxCapacity    *float64           `json:"max_capacity"`
	HasPrinterPct  *float64           `json:"has_printer_pct"`
	IndoorPct      *float64           `json:"is_indoor_pct"`
	TalkingPct     *float64           `json:"is_talking_allowed_pct"`
	TechPct        *float64           `json:"tech_enhanced_pct"`
	MustReservePct *float64           `json:"must_reserve_pct"`
	BuildingCounts map[string]int     `json:"building_counts"`
	SessionTraffic *float64           `json:"session_traffic,omitempty"`
}

func statsFor(rows []Attributes) EventStats {
	st := EventStats{Count: len(rows), BuildingCounts: map[string]int{}}
	if len(rows) == 0 {
		return st
	}

	var capSum float64
	var capN int
	var capMin, capMax float64
	printer := meanAcc{}
	indoor := meanAcc{}
	talking := meanAcc{}
	tech := meanAcc{}
	reserve := meanAcc{}

	for _, r := range rows {
		if r.Capacity != nil {
			c := float64(*r.Capacity)
			if capN == 0 || c < capMin {
				capMin = c
			}
			if capN == 0 || c > capMax {
				capMax = c
			}
			capSum += c
			capN++
		}
		printer.add(r.HasPrinter)
		indoor.add(r.Indoor)
		talking.add(r.TalkingAllowed)
		tech.add(r.TechEnhanced)
		reserve.add(r.MustReserve)
		if r.BuildingID != nil {
			st.BuildingCounts[*r.BuildingID]++
		}
	}

	if capN > 0 {
		avg := capSum / float64(capN)
		st.AvgCapacity = &avg
		st.MinCapacity = &capMin
		st.MaxCapacity = &capMax
	}
	st.HasPrinterPct = printer.mean()
	st.IndoorPct = indoor.mean()
	st.TalkingPct = talking.mean()
	st.TechPct = tech.mean()
	st.MustReservePct = reserve.mean()
	return st
}

// filterLogStats turns the user's last submitted filters into a pseudo
// event-stats record so they can join the weighted aggregate.
func filterLogStats(h *History) EventStats {
	st := EventStats{BuildingCounts: map[string]int{}}
	log := h.FilterLog
	if log == nil {
		return st
	}
	st.Count = 1
	if log.MinCapacity != nil {
		v := float64(*log.MinCapacity)
		st.MinCapacity = &v
	}
	if log.MaxCapacity != nil {
		v := float64(*log.MaxCapacity)
		st.MaxCapacity = &v
	}
	if log.MinCapacity != nil && log.MaxCapacity != nil {
		v := (float64(*log.MinCapacity) + float64(*log.MaxCapacity)) / 2
		st.AvgCapacity = &v
	}
	st.HasPrinterPct = boolPct(log.HasPrinter)
	st.IndoorPct = boolPct(log.Indoor)
	st.TalkingPct = boolPct(log.TalkingAllowed)
	st.TechPct = boolPct(log.TechEnhanced)
	return st
}

// Aggregate is the event-type-weighted blend of per-collection statistics.
type Aggregate struct {
	AvgCapacity    *float64 `json:"avg_capacity"`
	MinCapacity    *float64 `json:"min_capacity"`
	MaxCapacity    *float64 `json:"max_capacity"`
	HasPrinterPct  *float64 `json:"has_printer_pct"`
	IndoorPct      *float64 `json:"is_indoor_pct"`
	TalkingPct     *float64 `json:"is_talking_allowed_pct"`
	TechPct        *float64 `json:"tech_enhanced_pct"`
	MustReservePct *float64 `json:"must_reserve_pct"`
	Traffic        *float64 `json:"library_traffic"`
}

// aggregate blends stats across event types. Per attribute the result is the
// weight-sum of per-type means over the summed weights of types that had at
// least one record; nothing contributing leaves the attribute nil.
func aggregate(stats map[string]EventStats) Aggregate {
	type field struct {
		get func(EventStats) *float64
		set func(*Aggregate, *float64)
	}
	fields := []field{
		{func(s EventStats) *float64 { return s.AvgCapacity }, func(a *Aggregate, v *float64) { a.AvgCapacity = v }},
		{func(s EventStats) *float64 { return s.MinCapacity }, func(a *Aggregate, v *float64) { a.MinCapacity = v }},
		{func(s EventStats) *float64 { return s.MaxCapacity }, func(a *Aggregate, v *float64) { a.MaxCapacity = v }},
		{func(s EventStats) *float64 { return s.HasPrinterPct }, func(a *Aggregate, v *float64) { a.HasPrinterPct = v }},
		{func(s EventStats) *float64 { return s.IndoorPct }, func(a *Aggregate, v *float64) { a.IndoorPct = v }},
		{func(s EventStats) *float64 { return s.TalkingPct }, func(a *Aggregate, v *float64) { a.TalkingPct = v }},
		{func(s EventStats) *float64 { return s.TechPct }, func(a *Aggregate, v *float64) { a.TechPct = v }},
		{func(s EventStats) *float64 { return s.MustReservePct }, func(a *Aggregate, v *float64) { a.MustReservePct = v }},
	}

	var agg Aggregate
	for _, f := range fields {
		var sum, weight float64
		var contributed bool
		for event, w := range eventWeights {
			st, ok := stats[event]
			if !ok || st.Count == 0 {
				continue
			}
			weight += w
			if v := f.get(st); v != nil {
				sum += w * *v
				contributed = true
			}
		}
		if contributed && weight > 0 {
			v := sum / weight
			f.set(&agg, &v)
		}
	}

	if st, ok := stats[EventSessions]; ok {
		agg.Traffic = st.SessionTraffic
	}
	return agg
}

// Preference is the coarse explicit filter-style profile derived from the
// aggregate: capacity bounds, boolean majorities, traffic tolerance window.
type Preference struct {
	MinCapacity    *int     `json:"min_capacity"`
	MaxCapacity    *int     `json:"max_capacity"`
	Indoor         *bool    `json:"is_indoor"`
	TalkingAllowed *bool    `json:"is_talking_allowed"`
	HasPrinter     *bool    `json:"has_printer"`
	TrafficLow     *float64 `json:"traffic_low"`
	TrafficHigh    *float64 `json:"traffic_high"`
}

func derivePreference(agg Aggregate) Preference {
	var p Preference
	if agg.MinCapacity != nil {
		v := int(math.Floor(*agg.MinCapacity))
		p.MinCapacity = &v
	}
	if agg.MaxCapacity != nil {
		v := int(math.Ceil(*agg.MaxCapacity))
		p.MaxCapacity = &v
	}
	p.Indoor = majority(agg.IndoorPct)
	p.TalkingAllowed = majority(agg.TalkingPct)
	p.HasPrinter = majority(agg.HasPrinterPct)
	if agg.Traffic != nil {
		low := math.Max(0, *agg.Traffic-0.2)
		high := math.Min(1, *agg.Traffic+0.2)
		p.TrafficLow = &low
		p.TrafficHigh = &high
	}
	return p
}

func majority(pct *float64) *bool {
	if pct == nil {
		return nil
	}
	v := *pct >= 0.5
	return &v
}

func boolPct(b *bool) *float64 {
	if b == nil {
		return nil
	}
	v := 0.0
	if *b {
		v = 1.0
	}
	return &v
}

// meanAcc accumulates the mean of an optional boolean column.
type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(b *bool) {
	if b == nil {
		return
	}
	if *b {
		m.sum++
	}
	m.n++
}

func (m *meanAcc) mean() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}
