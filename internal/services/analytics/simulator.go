package analytics

import (
	"context"
	"fmt"
	"math"

	"Karion/internal/domain"
	"Karion/internal/domain/models"
	domsvc "Karion/internal/domain/service"
)

const (
	// DefaultTrials is the number of independent equity paths per simulation.
	DefaultTrials = 1000
	sampleCurves  = 20
)

// Simulator runs Monte Carlo trials of a fixed-fractional trading system.
type Simulator struct {
	rng    domsvc.RandomSource
	trials int
}

type SimulatorOption func(*Simulator)

// WithTrials overrides the trial count.
func WithTrials(n int) SimulatorOption {
	return func(s *Simulator) {
		if n > 0 {
			s.trials = n
		}
	}
}

func NewSimulator(rng domsvc.RandomSource, opts ...SimulatorOption) *Simulator {
	s := &Simulator{rng: rng, trials: DefaultTrials}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate rejects parameters outside the engine's domain.
func Validate(p models.SimulationParams) error {
	switch {
	case p.WinRate < 0 || p.WinRate > 1 || math.IsNaN(p.WinRate):
		return fmt.Errorf("%w: win_rate must be in [0,1]", domain.ErrInvalidParameter)
	case p.AvgWin < 0 || p.AvgLoss < 0:
		return fmt.Errorf("%w: avg_win and avg_loss must be non-negative", domain.ErrInvalidParameter)
	case p.NumTrades < 1:
		return fmt.Errorf("%w: num_trades must be positive", domain.ErrInvalidParameter)
	case p.InitialCapital <= 0:
		return fmt.Errorf("%w: initial_capital must be positive", domain.ErrInvalidParameter)
	case p.RiskPerTrade <= 0 || p.RiskPerTrade > 1:
		return fmt.Errorf("%w: risk_per_trade must be in (0,1]", domain.ErrInvalidParameter)
	}
	return nil
}

// Simulate runs the trials sequentially. Every trial records its capital after each
// trade and stops as soon as capital reaches zero.
func (s *Simulator) Simulate(ctx context.Context, p models.SimulationParams) (models.SimulationResult, error) {
	if err := Validate(p); err != nil {
		return models.SimulationResult{}, err
	}

	curves := make([][]float64, 0, sampleCurves)
	var sum float64
	lo, hi := math.Inf(1), math.Inf(-1)
	ruined := 0

	for i := 0; i < s.trials; i++ {
		if err := ctx.Err(); err != nil {
			return models.SimulationResult{}, fmt.Errorf("simulate: %w", err)
		}

		keep := i < sampleCurves
		var curve []float64
		if keep {
			curve = make([]float64, 0, p.NumTrades+1)
			curve = append(curve, p.InitialCapital)
		}

		capital := p.InitialCapital
		for t := 0; t < p.NumTrades; t++ {
			risk := capital * p.RiskPerTrade
			if s.rng.Float64() < p.WinRate {
				capital += risk * p.AvgWin
			} else {
				capital -= risk * p.AvgLoss
			}
			if keep {
				curve = append(curve, capital)
			}
			if capital <= 0 {
				ruined++
				break
			}
		}

		if keep {
			curves = append(curves, curve)
		}
		sum += capital
		lo = math.Min(lo, capital)
		hi = math.Max(hi, capital)
	}

	return models.SimulationResult{
		SampleEquityCurves: curves,
		AvgTerminal:        sum / float64(s.trials),
		MinTerminal:        lo,
		MaxTerminal:        hi,
		RuinRatePct:        float64(ruined) / float64(s.trials) * 100,
		Trials:             s.trials,
		Ruined:             ruined,
		Params:             p,
	}, nil
}

var _ domsvc.EquitySimulator = (*Simulator)(nil)
