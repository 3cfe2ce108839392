package analytics

import (
	"fmt"
	"math"

	"Karion/internal/domain/models"
	domrepo "Karion/internal/domain/repository"
	domsvc "Karion/internal/domain/service"
	"Karion/pkg/util"
)

// Weights are the per-symbol factor weights of the composite score. They sum to 1.
type Weights struct {
	Volatility  float64
	Macro       float64
	News        float64
	Positioning float64
}

var symbolWeights = map[string]Weights{
	models.XAUUSD: {Volatility: 0.20, Macro: 0.35, News: 0.25, Positioning: 0.20},
	models.NAS100: {Volatility: 0.35, Macro: 0.30, News: 0.20, Positioning: 0.15},
	models.SP500:  {Volatility: 0.35, Macro: 0.30, News: 0.20, Positioning: 0.15},
	models.EURUSD: {Volatility: 0.15, Macro: 0.35, News: 0.30, Positioning: 0.20},
}

// WeightsFor returns the weights of symbol, falling back to the broad index profile.
func WeightsFor(symbol string) Weights {
	if w, ok := symbolWeights[symbol]; ok {
		return w
	}
	return symbolWeights[models.SP500]
}

// Driver thresholds on |weight * factor|.
const (
	volDriverMin   = 0.08
	macroDriverMin = 0.05
	newsDriverMin  = 0.03
	maxDrivers     = 3
)

// ScoringModel turns market context into directional analyses and remembers the last
// composite score per symbol to label the impulse.
type ScoringModel struct {
	rng   domsvc.RandomSource
	store domrepo.MomentumStore
}

func NewScoringModel(rng domsvc.RandomSource, store domrepo.MomentumStore) *ScoringModel {
	return &ScoringModel{rng: rng, store: store}
}

// Score evaluates symbol and records its composite score in the momentum store.
func (m *ScoringModel) Score(symbol string, vol models.VolatilitySnapshot, prices models.PriceBoard) models.DirectionalAnalysis {
	return m.evaluate(symbol, vol, prices, true)
}

// Peek evaluates symbol against the stored score without replacing it.
func (m *ScoringModel) Peek(symbol string, vol models.VolatilitySnapshot, prices models.PriceBoard) models.DirectionalAnalysis {
	return m.evaluate(symbol, vol, prices, false)
}

func (m *ScoringModel) evaluate(symbol string, vol models.VolatilitySnapshot, prices models.PriceBoard, record bool) models.DirectionalAnalysis {
	w := WeightsFor(symbol)

	f := models.FactorScores{Volatility: VolatilityFactor(vol.Current, vol.PercentChange)}
	// Macro, news and positioning inputs are simulated placeholders.
	switch models.AssetClassOf(symbol) {
	case models.ClassMetal:
		f.Macro = -f.Volatility*0.5 + Uniform(m.rng, -0.1, 0.1)
	case models.ClassCurrency:
		f.Macro = Uniform(m.rng, -0.2, 0.2)
	default:
		f.Macro = f.Volatility*0.3 + Uniform(m.rng, -0.1, 0.1)
	}
	f.News = Uniform(m.rng, -0.15, 0.15)
	f.Positioning = Uniform(m.rng, -0.2, 0.2)

	score := w.Volatility*f.Volatility + w.Macro*f.Macro + w.News*f.News + w.Positioning*f.Positioning

	pUp := int(ProbabilityUp(score))
	conf := Confidence(score, vol.PercentChange)

	prev, ok := m.store.Previous(symbol)
	if !ok {
		prev = score
	}
	impulse := ClassifyImpulse(score, prev)
	if record {
		m.store.Store(symbol, score)
	}

	dir := DirectionFor(pUp)
	price := prices.Price(symbol)

	src := vol.Source
	if p, ok := prices.Prices[symbol]; ok && p.Source == models.SourceSynthetic {
		src = models.SourceSynthetic
	}

	return models.DirectionalAnalysis{
		Symbol:            symbol,
		Direction:         dir,
		ProbabilityUp:     pUp,
		Confidence:        conf,
		Impulse:           impulse,
		Drivers:           drivers(w, f, vol),
		Regime:            MarketRegimeFor(vol.Current, vol.PercentChange),
		InvalidationLevel: InvalidationLevel(symbol, dir, price),
		TradeReady:        IsTradeReady(pUp, conf, impulse),
		CompositeScore:    score,
		Factors:           f,
		Price:             price,
		Source:            src,
	}
}

// VolatilityFactor scores the volatility level, adjusted by its momentum.
func VolatilityFactor(current, changePct float64) float64 {
	var s float64
	switch {
	case current < 14:
		s = 0.8
	case current < 18:
		s = 0.5
	case current < 22:
		s = 0.1
	case current < 28:
		s = -0.4
	default:
		s = -0.8
	}
	switch {
	case changePct > 8:
		s -= 0.4
	case changePct > 4:
		s -= 0.2
	case changePct < -8:
		s += 0.4
	case changePct < -4:
		s += 0.2
	}
	return s
}

// ProbabilityUp is the logistic map of a composite score onto [0,100].
func ProbabilityUp(score float64) float64 {
	return 100 / (1 + math.Exp(-4*score))
}

// Confidence grows with |score| and is penalised on sharp volatility moves.
func Confidence(score, changePct float64) int {
	c := int(50 + math.Abs(score)*45)
	if c > 95 {
		c = 95
	}
	if math.Abs(changePct) > 5 {
		c -= 15
		if c < 30 {
			c = 30
		}
	}
	return c
}

func DirectionFor(pUp int) models.Direction {
	switch {
	case pUp >= 58:
		return models.DirectionUp
	case pUp <= 42:
		return models.DirectionDown
	default:
		return models.DirectionNeutral
	}
}

// ClassifyImpulse compares a score with the previous one for the same symbol.
func ClassifyImpulse(score, prev float64) models.Impulse {
	delta := score - prev
	switch {
	case math.Abs(delta) < 0.03:
		return models.ImpulseContinuing
	case (score > 0 && delta < -0.05) || (score < 0 && delta > 0.05):
		return models.ImpulseFading
	case math.Abs(delta) > 0.1 && score*prev < 0:
		return models.ImpulseReversing
	default:
		return models.ImpulseContinuing
	}
}

func IsTradeReady(pUp, confidence int, impulse models.Impulse) bool {
	return (pUp >= 60 || pUp <= 40) && confidence >= 65 && impulse != models.ImpulseReversing
}

// MarketRegimeFor labels the regime an analysis was scored in.
func MarketRegimeFor(current, changePct float64) models.MarketRegime {
	switch {
	case current < 18 && changePct < 2:
		return models.MarketRiskOn
	case current > 22 || changePct > 5:
		return models.MarketRiskOff
	default:
		return models.MarketMixed
	}
}

// InvalidationLevel is the price that would invalidate the directional call.
func InvalidationLevel(symbol string, dir models.Direction, price float64) string {
	places := models.PriceDecimals(symbol)
	switch dir {
	case models.DirectionUp:
		return "Below " + util.FormatFixed(price*0.995, places)
	case models.DirectionDown:
		return "Above " + util.FormatFixed(price*1.005, places)
	default:
		return "Await directional breakout"
	}
}

func drivers(w Weights, f models.FactorScores, vol models.VolatilitySnapshot) []models.Driver {
	out := make([]models.Driver, 0, maxDrivers)
	if math.Abs(w.Volatility*f.Volatility) > volDriverMin {
		out = append(out, models.Driver{
			Name:   "VIX/Regime",
			Impact: impactOf(f.Volatility),
			Detail: fmt.Sprintf("VIX %.1f (%s)", vol.Current, vol.Direction),
		})
	}
	if math.Abs(w.Macro*f.Macro) > macroDriverMin {
		out = append(out, models.Driver{Name: "Macro", Impact: impactOf(f.Macro), Detail: "Rates/Yields"})
	}
	if math.Abs(w.News*f.News) > newsDriverMin {
		out = append(out, models.Driver{Name: "News Flow", Impact: impactOf(f.News), Detail: "Recent sentiment"})
	}
	if len(out) < 2 {
		out = append(out, models.Driver{Name: "COT Positioning", Impact: impactOf(f.Positioning), Detail: "Weekly bias"})
	}
	if len(out) > maxDrivers {
		out = out[:maxDrivers]
	}
	return out
}

func impactOf(v float64) models.Impact {
	if v > 0 {
		return models.ImpactBullish
	}
	return models.ImpactBearish
}

var _ domsvc.Scorer = (*ScoringModel)(nil)
