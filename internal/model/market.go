// Package model holds the wire-level data types shared by the MOEX ISS
// client, the calculation kernel, and the tool layer. Fields that MOEX may
// legitimately omit are pointers so that "absent" is never confused with
// "zero".
package model

import "time"

// OhlcvBar is one candle of a ticker's daily or hourly series.
type OhlcvBar struct {
	Ts     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Value  float64   `json:"value"`
}

// SecuritySnapshot is a single point-in-time read of a security's market data.
type SecuritySnapshot struct {
	Ticker         string    `json:"ticker"`
	Board          string    `json:"board"`
	AsOf           time.Time `json:"as_of"`
	LastPrice      *float64  `json:"last_price"`
	PriceChangeAbs *float64  `json:"price_change_abs"`
	PriceChangePct *float64  `json:"price_change_pct"`
	Open           *float64  `json:"open"`
	High           *float64  `json:"high"`
	Low            *float64  `json:"low"`
	Volume         *float64  `json:"volume"`
	Value          *float64  `json:"value"`
}

// IndexConstituent is one security's membership in an index at a given date.
type IndexConstituent struct {
	IndexTicker    string   `json:"index_ticker"`
	Ticker         string   `json:"ticker"`
	WeightPct      float64  `json:"weight_pct"`
	LastPrice      *float64 `json:"last_price,omitempty"`
	PriceChangePct *float64 `json:"price_change_pct,omitempty"`
	Sector         *string  `json:"sector,omitempty"`
	Board          *string  `json:"board,omitempty"`
	ISIN           *string  `json:"isin,omitempty"`
}

// DividendRecord is a single declared dividend payment.
type DividendRecord struct {
	Ticker            string     `json:"ticker"`
	Dividend          float64    `json:"dividend"`
	Currency          string     `json:"currency"`
	RegistryCloseDate time.Time  `json:"registry_close_date"`
	PaymentDate       *time.Time `json:"payment_date,omitempty"`
}
