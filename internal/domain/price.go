package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// RawPrice es un registro de precio tal como lo devuelve un proveedor de historial.
// Los proveedores devuelven las series newest-first.
type RawPrice struct {
	Timestamp string  // ISO-8601 normalmente, a veces epoch en segundos o ms
	Price     float64
	Oracle    string // opaco, se pasa tal cual hasta el PricePoint
}

// PricePoint es un punto validado de la serie temporal de un par.
type PricePoint struct {
	Time      int64 // epoch ms
	Price     float64
	Timestamp string // string original
	Oracle    string
}

// Layouts ISO aceptados además de RFC3339.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// maxEpochMs es el mayor instante aceptado: 1e8 días desde epoch.
const maxEpochMs = 8.64e15

// ParseTimestamp convierte el timestamp de un RawPrice a epoch ms.
// Devuelve false si no se puede parsear o si el resultado cae fuera de (0, maxEpochMs].
func ParseTimestamp(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Epoch numérico: segundos o milisegundos
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			return 0, false
		}
		ms := f * 1000
		if f > 1e12 {
			ms = f
		}
		if ms > maxEpochMs {
			return 0, false
		}
		v := int64(math.Round(ms))
		if v <= 0 {
			return 0, false
		}
		return v, true
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ms := t.UnixMilli()
			if ms <= 0 || ms > maxEpochMs {
				return 0, false
			}
			return ms, true
		}
	}
	return 0, false
}
