package models

import "time"

type ReportType string

const (
	ReportTFF           ReportType = "TFF"
	ReportDisaggregated ReportType = "Disaggregated"
)

type Bias string

const (
	BiasBull    Bias = "Bull"
	BiasBear    Bias = "Bear"
	BiasNeutral Bias = "Neutral"
)

// TraderCategory is the position of one reporting category.
type TraderCategory struct {
	Name       string `json:"name"`
	Long       int    `json:"long"`
	Short      int    `json:"short"`
	Net        int    `json:"net"`
	NetChange  int    `json:"net_change"`
	Percentile int    `json:"percentile_52w"`
}

// PositioningReport is a simulated Commitment of Traders summary for one symbol.
type PositioningReport struct {
	Symbol       string                    `json:"symbol"`
	ReportType   ReportType                `json:"report_type"`
	AsOf         time.Time                 `json:"as_of_date"`
	ReleasedAt   time.Time                 `json:"release_date"`
	Categories   map[string]TraderCategory `json:"categories"`
	Bias         Bias                      `json:"bias"`
	Confidence   int                       `json:"confidence"`
	Crowding     int                       `json:"crowding"`
	SqueezeRisk  int                       `json:"squeeze_risk"`
	Driver       string                    `json:"driver_text"`
	OpenInterest int                       `json:"open_interest"`
	OIChange     int                       `json:"oi_change"`
}

// PositioningSummary is the full report set with the next release countdown.
type PositioningSummary struct {
	Reports     map[string]PositioningReport `json:"data"`
	NextRelease time.Time                    `json:"next_release"`
	Countdown   string                       `json:"countdown"`
	LastUpdate  string                       `json:"last_update"`
	Timestamp   time.Time                    `json:"timestamp"`
}
