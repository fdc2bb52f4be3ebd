// Package archive guarda y lee snapshots de historial de precios como
// archivos Parquet, uno por par:
//
//	<DataDir>/prices/<BASE>_<QUOTE>.parquet
//
// Los registros se guardan newest-first, igual que los devuelve el feed.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.PriceProvider = (*PriceStore)(nil)
	_ ports.PriceArchive  = (*PriceStore)(nil)
)

// PriceRecord es el schema en disco de un registro de precio.
type PriceRecord struct {
	Pair      string  `parquet:"pair"`
	Timestamp string  `parquet:"timestamp"`
	Price     float64 `parquet:"price"`
	Oracle    string  `parquet:"oracle"`
}

// PriceStore implementa ports.PriceProvider y ports.PriceArchive sobre
// archivos Parquet.
type PriceStore struct {
	DataDir string
}

// NewPriceStore crea un PriceStore con raíz en dataDir.
func NewPriceStore(dataDir string) *PriceStore {
	return &PriceStore{DataDir: dataDir}
}

// SavePrices reemplaza el archivo del par con prices (newest-first).
func (s *PriceStore) SavePrices(_ context.Context, pair string, prices []domain.RawPrice) error {
	records := make([]PriceRecord, len(prices))
	for i, p := range prices {
		records[i] = PriceRecord{
			Pair:      pair,
			Timestamp: p.Timestamp,
			Price:     p.Price,
			Oracle:    p.Oracle,
		}
	}

	path := s.pricePath(pair)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("archive.SavePrices: %w", err)
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("archive.SavePrices: writing %s: %w", pair, err)
	}
	return nil
}

// FetchHistory lee el archivo del par y devuelve hasta limit registros.
// Un par sin archivo devuelve una serie vacía.
func (s *PriceStore) FetchHistory(_ context.Context, pair string, limit int) ([]domain.RawPrice, error) {
	records, err := parquet.ReadFile[PriceRecord](s.pricePath(pair))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive.FetchHistory: reading %s: %w", pair, err)
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	out := make([]domain.RawPrice, len(records))
	for i, r := range records {
		out[i] = domain.RawPrice{Timestamp: r.Timestamp, Price: r.Price, Oracle: r.Oracle}
	}
	return out, nil
}

// ListPairs devuelve los pares con archivo en el directorio, ordenados.
func (s *PriceStore) ListPairs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "prices"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive.ListPairs: %w", err)
	}

	var pairs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".parquet") {
			continue
		}
		pairs = append(pairs, pairFromFile(strings.TrimSuffix(name, ".parquet")))
	}
	sort.Strings(pairs)
	return pairs, nil
}

// pricePath devuelve la ruta del archivo de un par. "BTC/USD" → BTC_USD.parquet
func (s *PriceStore) pricePath(pair string) string {
	return filepath.Join(s.DataDir, "prices", fileFromPair(pair)+".parquet")
}

func fileFromPair(pair string) string {
	return strings.ReplaceAll(strings.ToUpper(pair), "/", "_")
}

func pairFromFile(name string) string {
	return strings.ReplaceAll(name, "_", "/")
}
