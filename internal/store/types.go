package store

// SpaceDetail is a space row hydrated with its building's dimension data.
// Building fields stay nil when the space's building is missing or unresolved.
type SpaceDetail struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Capacity       *int     `json:"capacity"`
	TalkingAllowed bool     `json:"talking_allowed"`
	MustReserve    bool     `json:"must_reserve"`
	Indoor         bool     `json:"indoor"`
	TechEnhanced   bool     `json:"tech_enhanced"`
	BuildingID     *string  `json:"building_id"`
	BuildingName   *string  `json:"building_name"`
	HasPrinter     *bool    `json:"has_printer"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

// BuildingSummary is the {id, name} pair exposed by the buildings listing.
type BuildingSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
