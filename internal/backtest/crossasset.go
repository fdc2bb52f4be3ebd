package backtest

import "github.com/alejandrodnm/walkforward/internal/domain"

// crossAssetView arma el snapshot de los otros pares tal como se conocía en
// asOf: cada serie truncada a Time <= asOf, newest-first. Los pares con
// menos de minLookback puntos quedan fuera.
func crossAssetView(siblings map[string]*TimeIndex, asOf int64) map[string][]domain.PricePoint {
	view := make(map[string][]domain.PricePoint, len(siblings))
	for pair, ix := range siblings {
		n := ix.countAtOrBefore(asOf)
		if n < minLookback {
			continue
		}
		view[pair] = newestFirst(ix.points[:n])
	}
	return view
}
