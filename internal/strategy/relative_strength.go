package strategy

import (
	"math"
	"sort"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

const relativeStrengthName = "relative_strength"

// RelativeStrengthConfig configura la estrategia cross-asset.
type RelativeStrengthConfig struct {
	Lookback  int
	MinSpread float64 // diferencia mínima de retorno contra los otros pares
}

// DefaultRelativeStrengthConfig devuelve la configuración por defecto.
func DefaultRelativeStrengthConfig() RelativeStrengthConfig {
	return RelativeStrengthConfig{Lookback: 12, MinSpread: 0.002}
}

// RelativeStrength compara el retorno del par con la media de los demás pares
// (AllPrices). Un par que lidera se espera que mantenga el nivel; uno que
// queda rezagado, que no lo recupere.
type RelativeStrength struct {
	cfg RelativeStrengthConfig
}

// NewRelativeStrength crea la estrategia con la configuración dada.
func NewRelativeStrength(cfg RelativeStrengthConfig) *RelativeStrength {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultRelativeStrengthConfig().Lookback
	}
	return &RelativeStrength{cfg: cfg}
}

// Name implementa Strategy.
func (s *RelativeStrength) Name() string { return relativeStrengthName }

// Evaluate implementa Strategy.
func (s *RelativeStrength) Evaluate(ec domain.EvaluationContext) (*domain.Signal, error) {
	own, ok := windowReturn(ec.PriceHistory, s.cfg.Lookback)
	if !ok {
		return nil, nil
	}

	// Orden fijo de pares: la suma en float depende del orden
	pairs := make([]string, 0, len(ec.AllPrices))
	for p := range ec.AllPrices {
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)

	var sum float64
	var n int
	for _, p := range pairs {
		if r, ok := windowReturn(ec.AllPrices[p], s.cfg.Lookback); ok {
			sum += r
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}

	spread := own - sum/float64(n)
	if math.Abs(spread) < s.cfg.MinSpread {
		return nil, nil
	}

	dir := domain.DirectionUp
	if spread < 0 {
		dir = domain.DirectionDown
	}
	return &domain.Signal{
		Direction:  dir,
		Threshold:  ec.CurrentPrice,
		Confidence: clamp(0.5+math.Abs(spread)*10, 0, 0.9),
		Strategy:   relativeStrengthName,
	}, nil
}
