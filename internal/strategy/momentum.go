package strategy

import (
	"math"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

const momentumName = "momentum"

// MomentumConfig configura la estrategia de momentum.
type MomentumConfig struct {
	Lookback int     // puntos hacia atrás para medir el retorno
	MinMove  float64 // retorno mínimo (fracción) para emitir señal
	Scale    float64 // cuánto sube la confianza por unidad de retorno
}

// DefaultMomentumConfig devuelve valores razonables para series de ~5 min.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{Lookback: 12, MinMove: 0.001, Scale: 10}
}

// Momentum apuesta a que el movimiento reciente continúa: si el precio subió
// en la ventana, predice que al horizonte seguirá al menos en el nivel actual.
type Momentum struct {
	cfg MomentumConfig
}

// NewMomentum crea la estrategia con la configuración dada.
func NewMomentum(cfg MomentumConfig) *Momentum {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultMomentumConfig().Lookback
	}
	return &Momentum{cfg: cfg}
}

// Name implementa Strategy.
func (m *Momentum) Name() string { return momentumName }

// Evaluate implementa Strategy.
func (m *Momentum) Evaluate(ec domain.EvaluationContext) (*domain.Signal, error) {
	ret, ok := windowReturn(ec.PriceHistory, m.cfg.Lookback)
	if !ok || math.Abs(ret) < m.cfg.MinMove {
		return nil, nil
	}

	dir := domain.DirectionUp
	if ret < 0 {
		dir = domain.DirectionDown
	}
	return &domain.Signal{
		Direction:  dir,
		Threshold:  ec.CurrentPrice,
		Confidence: clamp(0.5+math.Abs(ret)*m.cfg.Scale, 0, 1),
		Strategy:   momentumName,
	}, nil
}
