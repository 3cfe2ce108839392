package service

import (
	"context"
	"time"

	"Karion/internal/domain/models"
)

// RandomSource draws uniform numbers for the simulation placeholders and the Monte Carlo engine.
type RandomSource interface {
	// Float64 returns a value in [0,1).
	Float64() float64
	// Intn returns a value in [0,n).
	Intn(n int) int
}

// SnapshotSource serves cached market snapshots. It never fails; stale upstreams degrade to synthetic data.
type SnapshotSource interface {
	Volatility(ctx context.Context) models.VolatilitySnapshot
	Prices(ctx context.Context) models.PriceBoard
}

// Scorer produces a directional analysis for a symbol. Score advances the momentum
// baseline; Peek leaves it untouched.
type Scorer interface {
	Score(symbol string, vol models.VolatilitySnapshot, prices models.PriceBoard) models.DirectionalAnalysis
	Peek(symbol string, vol models.VolatilitySnapshot, prices models.PriceBoard) models.DirectionalAnalysis
}

// RiskAggregator combines market context into a portfolio risk score.
type RiskAggregator interface {
	Assess(vol models.VolatilitySnapshot, prices models.PriceBoard, events []models.MacroEvent, now time.Time) models.RiskAssessment
}

// EquitySimulator runs Monte Carlo trials of a trading system.
type EquitySimulator interface {
	Simulate(ctx context.Context, p models.SimulationParams) (models.SimulationResult, error)
}

// PositioningReporter builds positioning reports for tracked symbols.
type PositioningReporter interface {
	Report(symbol string, now time.Time) (models.PositioningReport, error)
	Summary(now time.Time) models.PositioningSummary
}
