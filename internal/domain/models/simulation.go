package models

// SimulationParams describes the trading system being stress tested.
type SimulationParams struct {
	WinRate        float64 `json:"win_rate"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	NumTrades      int     `json:"num_trades"`
	InitialCapital float64 `json:"initial_capital"`
	RiskPerTrade   float64 `json:"risk_per_trade"`
}

// SimulationResult summarises a batch of Monte Carlo equity paths.
type SimulationResult struct {
	SampleEquityCurves [][]float64      `json:"equity_curves"`
	AvgTerminal        float64          `json:"avg_final_capital"`
	MinTerminal        float64          `json:"min_final_capital"`
	MaxTerminal        float64          `json:"max_final_capital"`
	RuinRatePct        float64          `json:"bankruptcy_rate"`
	Trials             int              `json:"trials"`
	Ruined             int              `json:"ruined"`
	Params             SimulationParams `json:"params"`
}
