package models

import "time"

type RiskCategory string

const (
	RiskSafe   RiskCategory = "SAFE"
	RiskMedium RiskCategory = "MEDIUM"
	RiskHigh   RiskCategory = "HIGH"
)

// RiskComponents are the four additive sub-scores, each in [0,25].
type RiskComponents struct {
	VolatilityLevel    int `json:"vix_level"`
	VolatilityMomentum int `json:"vix_momentum"`
	EventRisk          int `json:"event_risk"`
	MarketStretch      int `json:"market_stretch"`
}

// Total sums the components.
func (c RiskComponents) Total() int {
	return c.VolatilityLevel + c.VolatilityMomentum + c.EventRisk + c.MarketStretch
}

// RiskReason is a human readable explanation of one component.
type RiskReason struct {
	Factor string `json:"factor"`
	Value  int    `json:"value"`
	Detail string `json:"detail"`
}

type Extreme string

const (
	ExtremeHigh Extreme = "high"
	ExtremeLow  Extreme = "low"
)

// AssetStretch measures how close a symbol trades to its two-week band.
type AssetStretch struct {
	DistanceToExtremePct float64 `json:"distance_pct"`
	NearestExtreme       Extreme `json:"nearest_extreme"`
	TwoWeekHigh          float64 `json:"two_week_high"`
	TwoWeekLow           float64 `json:"two_week_low"`
	Current              float64 `json:"current"`
	ChangePct            float64 `json:"change_pct"`
}

// ExpectedMove is the one-day expected move implied by the volatility index.
type ExpectedMove struct {
	PctOfCapital float64 `json:"pct"`
	IndexPoints  float64 `json:"index_points"`
}

// AssetTilt is the qualitative stance suggested for an asset class.
type AssetTilt struct {
	Bias  string `json:"bias"`
	Color string `json:"color"`
	Note  string `json:"note"`
}

// RiskAssessment is the aggregated portfolio risk picture.
type RiskAssessment struct {
	Score           int                     `json:"score"`
	Category        RiskCategory            `json:"category"`
	Components      RiskComponents          `json:"components"`
	Reasons         []RiskReason            `json:"reasons"`
	PerAssetStretch map[string]AssetStretch `json:"assets"`
	ExpectedMove    ExpectedMove            `json:"expected_move"`
	Tilts           map[string]AssetTilt    `json:"tilts"`
	NextEvent       *MacroEvent             `json:"next_event"`
	HoursToEvent    int                     `json:"hours_to_event"`
	Volatility      VolatilitySnapshot      `json:"vix"`
	Events          []MacroEvent            `json:"events"`
	Timestamp       time.Time               `json:"timestamp"`
}
