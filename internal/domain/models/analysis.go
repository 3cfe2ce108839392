package models

import "time"

type Direction string

const (
	DirectionUp      Direction = "Up"
	DirectionDown    Direction = "Down"
	DirectionNeutral Direction = "Neutral"
)

type Impulse string

const (
	ImpulseContinuing Impulse = "Continuing"
	ImpulseFading     Impulse = "Fading"
	ImpulseReversing  Impulse = "Reversing"
)

type Impact string

const (
	ImpactBullish Impact = "bullish"
	ImpactBearish Impact = "bearish"
)

// MarketRegime is the regime label attached to a directional analysis.
type MarketRegime string

const (
	MarketRiskOn  MarketRegime = "Risk-On"
	MarketRiskOff MarketRegime = "Risk-Off"
	MarketMixed   MarketRegime = "Mixed"
)

// Driver explains one factor that moved a composite score.
type Driver struct {
	Name   string `json:"name"`
	Impact Impact `json:"impact"`
	Detail string `json:"detail"`
}

// FactorScores holds the four raw factor values of a composite score.
type FactorScores struct {
	Volatility  float64 `json:"volatility"`
	Macro       float64 `json:"macro"`
	News        float64 `json:"news"`
	Positioning float64 `json:"positioning"`
}

// DirectionalAnalysis is the scored outlook for one symbol.
type DirectionalAnalysis struct {
	Symbol            string       `json:"symbol"`
	Direction         Direction    `json:"direction"`
	ProbabilityUp     int          `json:"p_up"`
	Confidence        int          `json:"confidence"`
	Impulse           Impulse      `json:"impulse"`
	Drivers           []Driver     `json:"drivers"`
	Regime            MarketRegime `json:"regime"`
	InvalidationLevel string       `json:"invalidation"`
	TradeReady        bool         `json:"trade_ready"`
	CompositeScore    float64      `json:"total_score"`
	Factors           FactorScores `json:"factors"`
	Price             float64      `json:"price"`
	Source            Source       `json:"source"`
	LastUpdate        string       `json:"last_update"`
}

// ScheduledEvent is a macro event with a countdown relative to the evaluation time.
type ScheduledEvent struct {
	MacroEvent
	Countdown string `json:"countdown"`
}

// MarketOverview bundles every tracked analysis with the context it was scored against.
type MarketOverview struct {
	Analyses   map[string]DirectionalAnalysis `json:"analyses"`
	Volatility VolatilitySnapshot             `json:"vix"`
	Regime     VolRegime                      `json:"regime"`
	NextEvent  *ScheduledEvent                `json:"next_event"`
	Timestamp  time.Time                      `json:"timestamp"`
	LastUpdate string                         `json:"last_update"`
}
