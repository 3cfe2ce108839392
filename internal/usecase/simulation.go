package usecase

import (
	"context"
	"time"

	"Karion/internal/domain/models"
	domrepo "Karion/internal/domain/repository"
	domsvc "Karion/internal/domain/service"
)

// SimulationUseCase runs Monte Carlo equity simulations.
type SimulationUseCase struct {
	sim     domsvc.EquitySimulator
	metrics domrepo.Metrics
}

func NewSimulationUseCase(sim domsvc.EquitySimulator, metrics domrepo.Metrics) *SimulationUseCase {
	return &SimulationUseCase{sim: sim, metrics: metrics}
}

func (uc *SimulationUseCase) Simulate(ctx context.Context, p models.SimulationParams) (models.SimulationResult, error) {
	start := time.Now()
	res, err := uc.sim.Simulate(ctx, p)
	if uc.metrics != nil {
		uc.metrics.RecordLatency("simulate", time.Since(start).Seconds())
		if err != nil {
			uc.metrics.RecordError("simulate")
		}
	}
	return res, err
}
