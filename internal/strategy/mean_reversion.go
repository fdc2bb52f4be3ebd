package strategy

import (
	"math"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

const meanReversionName = "mean_reversion"

// MeanReversionConfig configura la estrategia de reversión a la media.
type MeanReversionConfig struct {
	Window int     // puntos para media y desviación
	ZEntry float64 // |z| mínimo para emitir señal
}

// DefaultMeanReversionConfig devuelve la configuración por defecto.
func DefaultMeanReversionConfig() MeanReversionConfig {
	return MeanReversionConfig{Window: 24, ZEntry: 1.5}
}

// MeanReversion apuesta contra desvíos grandes respecto a la media reciente.
type MeanReversion struct {
	cfg MeanReversionConfig
}

// NewMeanReversion crea la estrategia con la configuración dada.
func NewMeanReversion(cfg MeanReversionConfig) *MeanReversion {
	if cfg.Window < 2 {
		cfg.Window = DefaultMeanReversionConfig().Window
	}
	return &MeanReversion{cfg: cfg}
}

// Name implementa Strategy.
func (m *MeanReversion) Name() string { return meanReversionName }

// Evaluate implementa Strategy.
func (m *MeanReversion) Evaluate(ec domain.EvaluationContext) (*domain.Signal, error) {
	if len(ec.PriceHistory) < m.cfg.Window {
		return nil, nil
	}

	prices := make([]float64, m.cfg.Window)
	for i := range prices {
		prices[i] = ec.PriceHistory[i].Price
	}
	mu, sd := meanStd(prices)
	if sd == 0 {
		return nil, nil
	}

	z := (ec.CurrentPrice - mu) / sd
	if math.Abs(z) < m.cfg.ZEntry {
		return nil, nil
	}

	// Por encima de la media → esperamos que no supere el precio actual
	dir := domain.DirectionDown
	if z < 0 {
		dir = domain.DirectionUp
	}
	return &domain.Signal{
		Direction:  dir,
		Threshold:  ec.CurrentPrice,
		Confidence: clamp(0.4+0.1*math.Abs(z), 0, 0.95),
		Strategy:   meanReversionName,
	}, nil
}
