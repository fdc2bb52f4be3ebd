package pricefeed

import "encoding/json"

// DTOs raw del feed. Solo se usan dentro de este paquete.

// pairsResponse es la respuesta de GET /v1/pairs.
type pairsResponse struct {
	Pairs []string `json:"pairs"`
}

// historyResponse es una página de GET /v1/prices/history.
// Los precios vienen newest-first.
type historyResponse struct {
	Pair   string     `json:"pair"`
	Prices []rawPrice `json:"prices"`
}

// rawPrice es un registro del feed. El precio puede venir como número o como
// string; oracle es un objeto o string opaco.
type rawPrice struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Price     json.Number     `json:"price"`
	Oracle    json.RawMessage `json:"oracle"`
}
