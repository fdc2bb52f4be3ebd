package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/alejandrodnm/walkforward/internal/backtest"
	"github.com/alejandrodnm/walkforward/internal/ports"
)

// PriceBook es la tabla de lookup par → índice temporal de una corrida.
// Cada par se carga y se indexa una sola vez; después solo se lee, así que
// los workers la comparten sin locks.
type PriceBook struct {
	indexes map[string]*backtest.TimeIndex
	errs    map[string]error
}

// LoadPriceBook carga el historial de cada par (hasta limit registros) desde
// provider y construye su índice.
//
// Un fallo de fetch corta la carga. Un par con precios inválidos queda
// marcado: sus jobs fallan y no aparece como hermano en AllPrices.
func LoadPriceBook(ctx context.Context, provider ports.PriceProvider, pairs []string, limit int) (*PriceBook, error) {
	book := &PriceBook{
		indexes: make(map[string]*backtest.TimeIndex, len(pairs)),
		errs:    make(map[string]error),
	}

	for _, pair := range pairs {
		if _, seen := book.indexes[pair]; seen {
			continue
		}
		if _, seen := book.errs[pair]; seen {
			continue
		}

		raw, err := provider.FetchHistory(ctx, pair, limit)
		if err != nil {
			return nil, fmt.Errorf("runner.LoadPriceBook: fetch %s: %w", pair, err)
		}

		ix, err := backtest.BuildIndex(raw)
		if err != nil {
			slog.Warn("price history rejected", "pair", pair, "err", err)
			book.errs[pair] = err
			continue
		}
		book.indexes[pair] = ix

		slog.Debug("price history loaded",
			"pair", pair,
			"raw", ix.RawCount(),
			"valid", ix.Len(),
		)
	}
	return book, nil
}

// Index devuelve el índice del par. Si el par se rechazó al cargar devuelve
// ese error.
func (b *PriceBook) Index(pair string) (*backtest.TimeIndex, error) {
	if err := b.errs[pair]; err != nil {
		return nil, err
	}
	ix, ok := b.indexes[pair]
	if !ok {
		return nil, fmt.Errorf("pair %s not loaded", pair)
	}
	return ix, nil
}

// Siblings devuelve los índices de todos los pares cargados menos pair.
func (b *PriceBook) Siblings(pair string) map[string]*backtest.TimeIndex {
	out := make(map[string]*backtest.TimeIndex, len(b.indexes))
	for p, ix := range b.indexes {
		if p != pair {
			out[p] = ix
		}
	}
	return out
}

// Pairs devuelve los pares cargados correctamente, ordenados.
func (b *PriceBook) Pairs() []string {
	pairs := make([]string, 0, len(b.indexes))
	for p := range b.indexes {
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)
	return pairs
}
