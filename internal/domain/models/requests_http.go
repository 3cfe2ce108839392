package models

// Requests for market analytics HTTP endpoints.

// SimulationRequest uses pointers so an absent field can be told apart from an explicit zero:
// defaults only fill absent fields and explicit values are validated as sent.
type SimulationRequest struct {
	WinRate        *float64 `json:"win_rate" validate:"required,gte=0,lte=1"`
	AvgWin         *float64 `json:"avg_win" validate:"required,gte=0"`
	AvgLoss        *float64 `json:"avg_loss" validate:"required,gte=0"`
	NumTrades      *int     `json:"num_trades" default:"10000" validate:"required,gte=1,lte=100000"`
	InitialCapital *float64 `json:"initial_capital" default:"10000" validate:"required,gt=0"`
	RiskPerTrade   *float64 `json:"risk_per_trade" default:"0.01" validate:"required,gt=0,lte=1"`
}

// Params converts a validated request into engine parameters.
func (r *SimulationRequest) Params() SimulationParams {
	return SimulationParams{
		WinRate:        deref(r.WinRate),
		AvgWin:         deref(r.AvgWin),
		AvgLoss:        deref(r.AvgLoss),
		NumTrades:      deref(r.NumTrades),
		InitialCapital: deref(r.InitialCapital),
		RiskPerTrade:   deref(r.RiskPerTrade),
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// SymbolRequest carries the symbol path parameter of per-asset endpoints.
type SymbolRequest struct {
	Symbol string `param:"symbol" validate:"required"`
}
