package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/ports"
)

const (
	historyPageSize = 1000
	historyMaxPages = 20
)

var _ ports.PriceProvider = (*Client)(nil)

// FetchHistory pagina GET /v1/prices/history hasta juntar limit registros
// (o hasta historyMaxPages si limit <= 0). Devuelve newest-first.
func (c *Client) FetchHistory(ctx context.Context, pair string, limit int) ([]domain.RawPrice, error) {
	var all []domain.RawPrice

	for page := 0; page < historyMaxPages; page++ {
		size := historyPageSize
		if limit > 0 {
			size = min(size, limit-len(all))
		}
		if size <= 0 {
			break
		}

		q := url.Values{}
		q.Set("pair", pair)
		q.Set("limit", fmt.Sprint(size))
		q.Set("offset", fmt.Sprint(len(all)))

		var resp historyResponse
		if err := c.get(ctx, c.base+"/v1/prices/history?"+q.Encode(), &resp); err != nil {
			return nil, fmt.Errorf("pricefeed.FetchHistory %s: %w", pair, err)
		}

		for i, rp := range resp.Prices {
			p, err := toDomain(rp)
			if err != nil {
				return nil, fmt.Errorf("pricefeed.FetchHistory %s: record %d: %w", pair, len(all)+i, err)
			}
			all = append(all, p)
		}

		slog.Debug("fetched price page",
			"pair", pair,
			"page", page,
			"count", len(resp.Prices),
			"total", len(all),
		)

		if len(resp.Prices) < size {
			break
		}
	}

	return all, nil
}

// ListPairs devuelve los pares que publica el feed, ordenados.
func (c *Client) ListPairs(ctx context.Context) ([]string, error) {
	var resp pairsResponse
	if err := c.get(ctx, c.base+"/v1/pairs", &resp); err != nil {
		return nil, fmt.Errorf("pricefeed.ListPairs: %w", err)
	}
	sort.Strings(resp.Pairs)
	return resp.Pairs, nil
}

func toDomain(rp rawPrice) (domain.RawPrice, error) {
	price, err := rp.Price.Float64()
	if err != nil {
		return domain.RawPrice{}, fmt.Errorf("price %q: %w", rp.Price, err)
	}
	return domain.RawPrice{
		Timestamp: scalarString(rp.Timestamp),
		Price:     price,
		Oracle:    scalarString(rp.Oracle),
	}, nil
}

// scalarString devuelve el contenido de un string JSON sin comillas; para
// cualquier otro valor devuelve el JSON tal cual ("null" queda vacío).
func scalarString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}
