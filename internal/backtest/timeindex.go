package backtest

// timeindex.go: normaliza una serie newest-first en un índice cronológico
// con timestamps en ms. Se construye una vez por par y después solo se lee,
// así que se puede compartir entre backtests concurrentes.

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// ErrInvalidPrice indica un precio no finito o no positivo en la serie.
var ErrInvalidPrice = errors.New("invalid price")

// TimeIndex es la serie validada de un par, oldest-first.
type TimeIndex struct {
	points   []domain.PricePoint
	rawCount int
}

// BuildIndex invierte raw (newest-first) a orden cronológico y descarta los
// puntos cuyo timestamp no parsea a un epoch positivo. Un precio inválido en
// un punto con timestamp válido es un error del proveedor, no un dato a saltar.
func BuildIndex(raw []domain.RawPrice) (*TimeIndex, error) {
	points := make([]domain.PricePoint, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		r := raw[i]
		ms, ok := domain.ParseTimestamp(r.Timestamp)
		if !ok {
			continue
		}
		if math.IsNaN(r.Price) || math.IsInf(r.Price, 0) || r.Price <= 0 {
			return nil, fmt.Errorf("backtest.BuildIndex: %q price %v: %w", r.Timestamp, r.Price, ErrInvalidPrice)
		}
		points = append(points, domain.PricePoint{
			Time:      ms,
			Price:     r.Price,
			Timestamp: r.Timestamp,
			Oracle:    r.Oracle,
		})
	}

	// La entrada debería llegar ordenada; si no, el sort estable lo arregla
	// sin reordenar puntos con el mismo timestamp.
	sort.SliceStable(points, func(a, b int) bool { return points[a].Time < points[b].Time })

	return &TimeIndex{points: points, rawCount: len(raw)}, nil
}

// Len devuelve la cantidad de puntos válidos.
func (ix *TimeIndex) Len() int { return len(ix.points) }

// RawCount devuelve la cantidad de registros recibidos antes de filtrar.
func (ix *TimeIndex) RawCount() int { return ix.rawCount }

// Points devuelve los puntos en orden cronológico. No modificar.
func (ix *TimeIndex) Points() []domain.PricePoint { return ix.points }

// Start devuelve el timestamp del primer punto, o 0 si está vacío.
func (ix *TimeIndex) Start() int64 {
	if len(ix.points) == 0 {
		return 0
	}
	return ix.points[0].Time
}

// End devuelve el timestamp del último punto, o 0 si está vacío.
func (ix *TimeIndex) End() int64 {
	if len(ix.points) == 0 {
		return 0
	}
	return ix.points[len(ix.points)-1].Time
}

// firstAtOrAfter devuelve el primer índice con Time >= t.
func (ix *TimeIndex) firstAtOrAfter(t int64) int {
	return sort.Search(len(ix.points), func(i int) bool { return ix.points[i].Time >= t })
}

// countAtOrBefore devuelve cuántos puntos tienen Time <= t.
func (ix *TimeIndex) countAtOrBefore(t int64) int {
	return sort.Search(len(ix.points), func(i int) bool { return ix.points[i].Time > t })
}

// nearest busca el punto más cercano a evalTime. Solo acepta puntos a menos
// de 2×step; el escaneo corta en evalTime+step. Con empate gana el primero.
func (ix *TimeIndex) nearest(evalTime, stepMs int64) (int, bool) {
	tolerance := 2 * stepMs
	best := -1
	var bestDelta int64

	// Los puntos anteriores a evalTime-tolerance nunca pueden aceptarse
	for i := ix.firstAtOrAfter(evalTime - tolerance); i < len(ix.points); i++ {
		t := ix.points[i].Time
		if t > evalTime+stepMs {
			break
		}
		d := absInt64(t - evalTime)
		if best < 0 || d < bestDelta {
			best, bestDelta = i, d
		}
	}

	if best < 0 || bestDelta > tolerance {
		return -1, false
	}
	return best, true
}

// newestFirst devuelve una copia invertida de points.
func newestFirst(points []domain.PricePoint) []domain.PricePoint {
	out := make([]domain.PricePoint, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
