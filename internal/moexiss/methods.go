package moexiss

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/aristath/moex-risk-analytics/internal/model"
)

// GetSecuritySnapshot fetches a single point-in-time market data read for
// ticker on board (default TQBR), trying marketdata then marketdata_yields.
func (c *Client) GetSecuritySnapshot(ctx context.Context, ticker, board string) (*model.SecuritySnapshot, error) {
	if board == "" {
		board = c.defaultBoard
	}
	if len(ticker) > 16 {
		return nil, &InvalidTickerError{Ticker: ticker, Board: board}
	}

	key := cacheKey("snapshot", ticker, board)
	if c.cache != nil {
		if v, ok := c.cache.get(key); ok {
			return v.(*model.SecuritySnapshot), nil
		}
	}

	path := fmt.Sprintf("engines/stock/markets/shares/boards/%s/securities/%s.json", board, ticker)
	q := url.Values{}
	q.Set("iss.only", "marketdata,marketdata_yields")

	raw, err := c.get(ctx, "get_security_snapshot", path, q)
	if err != nil {
		return nil, err
	}

	var md issTable
	if v, ok := raw["marketdata"]; ok {
		_ = json.Unmarshal(v, &md)
	}
	rows := decodeRows(md)
	if len(rows) == 0 {
		var yields issTable
		if v, ok := raw["marketdata_yields"]; ok {
			_ = json.Unmarshal(v, &yields)
		}
		rows = decodeRows(yields)
	}
	if len(rows) == 0 {
		return nil, &InvalidTickerError{Ticker: ticker, Board: board}
	}
	row := rows[0]

	asOf := time.Now().UTC()
	if s := firstString(row, "TIME", "SYSTIME"); s != nil {
		if t, ok := parseISSTime([]string{"2006-01-02 15:04:05", "15:04:05"}, *s); ok {
			asOf = t
		}
	}

	snap := &model.SecuritySnapshot{
		Ticker:         ticker,
		Board:          board,
		AsOf:           asOf,
		LastPrice:      firstFloat(row, "LAST", "LASTPRICE", "LCLOSEPRICE", "MARKETPRICE"),
		PriceChangeAbs: firstFloat(row, "CHANGE", "LASTCHANGE"),
		PriceChangePct: firstFloat(row, "LASTTOPREVPRICE", "CHANGEPRCNT"),
		Open:           firstFloat(row, "OPEN"),
		High:           firstFloat(row, "HIGH"),
		Low:            firstFloat(row, "LOW"),
		Volume:         firstFloat(row, "VOLTODAY", "VOLUME"),
		Value:          firstFloat(row, "VALTODAY", "VALUE"),
	}

	if c.cache != nil {
		c.cache.put(key, snap)
	}
	return snap, nil
}

// GetOhlcvSeries fetches an ordered daily or hourly candle series for ticker
// between fromDate and toDate (inclusive, "YYYY-MM-DD").
func (c *Client) GetOhlcvSeries(ctx context.Context, ticker, board, fromDate, toDate, interval string) ([]model.OhlcvBar, error) {
	if board == "" {
		board = c.defaultBoard
	}
	if err := c.validateRange(fromDate, toDate); err != nil {
		return nil, err
	}

	key := cacheKey("ohlcv", ticker, board, fromDate, toDate, interval)
	if c.cache != nil && isShortRange(fromDate, toDate) {
		if v, ok := c.cache.get(key); ok {
			return v.([]model.OhlcvBar), nil
		}
	}

	path := fmt.Sprintf("engines/stock/markets/shares/securities/%s/candles.json", ticker)
	q := url.Values{}
	q.Set("from", fromDate)
	q.Set("till", toDate)
	q.Set("interval", strconv.Itoa(intervalCode(interval)))
	q.Set("boardid", board)
	q.Set("iss.only", "candles")

	raw, err := c.get(ctx, "get_ohlcv_series", path, q)
	if err != nil {
		return nil, err
	}

	var candles issTable
	if v, ok := raw["candles"]; ok {
		_ = json.Unmarshal(v, &candles)
	}
	rows := decodeRows(candles)
	if len(rows) == 0 {
		return nil, &InvalidTickerError{Ticker: ticker, Board: board}
	}

	bars := make([]model.OhlcvBar, 0, len(rows))
	for _, row := range rows {
		tsStr := firstString(row, "BEGIN", "TRADEDATE")
		if tsStr == nil {
			continue
		}
		ts, ok := parseISSTime([]string{"2006-01-02 15:04:05", "2006-01-02"}, *tsStr)
		if !ok {
			continue
		}
		bar := model.OhlcvBar{Ts: ts}
		if v := firstFloat(row, "OPEN"); v != nil {
			bar.Open = *v
		}
		if v := firstFloat(row, "HIGH"); v != nil {
			bar.High = *v
		}
		if v := firstFloat(row, "LOW"); v != nil {
			bar.Low = *v
		}
		if v := firstFloat(row, "CLOSE"); v != nil {
			bar.Close = *v
		}
		if v := firstFloat(row, "VOLUME"); v != nil {
			bar.Volume = *v
		}
		if v := firstFloat(row, "VALUE"); v != nil {
			bar.Value = *v
		}
		bars = append(bars, bar)
	}

	if c.cache != nil && isShortRange(fromDate, toDate) {
		c.cache.put(key, bars)
	}
	return bars, nil
}

// GetIndexConstituents fetches index membership and weights as of asOfDate.
func (c *Client) GetIndexConstituents(ctx context.Context, indexTicker, asOfDate string) ([]model.IndexConstituent, error) {
	key := cacheKey("index", indexTicker, asOfDate)
	if c.cache != nil {
		if v, ok := c.cache.get(key); ok {
			return v.([]model.IndexConstituent), nil
		}
	}

	path := fmt.Sprintf("statistics/engines/stock/markets/index/analytics/%s.json", indexTicker)
	q := url.Values{}
	q.Set("date", asOfDate)
	q.Set("iss.only", "analytics")

	raw, err := c.get(ctx, "get_index_constituents", path, q)
	if err != nil {
		return nil, err
	}

	var analytics issTable
	if v, ok := raw["analytics"]; ok {
		_ = json.Unmarshal(v, &analytics)
	}
	rows := decodeRows(analytics)
	if len(rows) == 0 {
		return nil, &InvalidTickerError{Ticker: indexTicker}
	}

	out := make([]model.IndexConstituent, 0, len(rows))
	for _, row := range rows {
		ticker := firstString(row, "TICKER", "SECID")
		weight := firstFloat(row, "WEIGHT")
		if ticker == nil || weight == nil {
			continue
		}
		out = append(out, model.IndexConstituent{
			IndexTicker:    indexTicker,
			Ticker:         *ticker,
			WeightPct:      *weight,
			LastPrice:      firstFloat(row, "TRADEPRICE", "LASTPRICE"),
			PriceChangePct: firstFloat(row, "TRADEPRICECHANGE"),
			Sector:         firstString(row, "SECTOR"),
			ISIN:           firstString(row, "ISIN"),
		})
	}

	if c.cache != nil {
		c.cache.put(key, out)
	}
	return out, nil
}

// GetSecurityDividends fetches declared dividends for ticker in
// [fromDate, toDate].
func (c *Client) GetSecurityDividends(ctx context.Context, ticker, fromDate, toDate string) ([]model.DividendRecord, error) {
	key := cacheKey("dividends", ticker, fromDate, toDate)
	if c.cache != nil {
		if v, ok := c.cache.get(key); ok {
			return v.([]model.DividendRecord), nil
		}
	}

	path := fmt.Sprintf("securities/%s/dividends.json", ticker)
	q := url.Values{}
	q.Set("from", fromDate)
	q.Set("till", toDate)
	q.Set("iss.only", "dividends")

	raw, err := c.get(ctx, "get_security_dividends", path, q)
	if err != nil {
		return nil, err
	}

	var table issTable
	if v, ok := raw["dividends"]; ok {
		_ = json.Unmarshal(v, &table)
	}
	rows := decodeRows(table)

	out := make([]model.DividendRecord, 0, len(rows))
	for _, row := range rows {
		amount := firstFloat(row, "VALUE")
		closeDateStr := firstString(row, "REGISTRYCLOSEDATE")
		if amount == nil || closeDateStr == nil {
			continue
		}
		closeDate, ok := parseISSTime([]string{"2006-01-02"}, *closeDateStr)
		if !ok {
			continue
		}
		rec := model.DividendRecord{
			Ticker:            ticker,
			Dividend:          *amount,
			Currency:          derefString(firstString(row, "CURRENCYID"), "RUB"),
			RegistryCloseDate: closeDate,
		}
		if payStr := firstString(row, "PAYMENTDATE"); payStr != nil {
			if payDate, ok := parseISSTime([]string{"2006-01-02"}, *payStr); ok {
				rec.PaymentDate = &payDate
			}
		}
		out = append(out, rec)
	}

	if c.cache != nil {
		c.cache.put(key, out)
	}
	return out, nil
}

// SecurityInfo carries the static issue-level fields needed by the
// fundamentals provider: shares outstanding and ISIN.
type SecurityInfo struct {
	Ticker            string
	ISIN              *string
	SharesOutstanding *float64
}

// GetSecurityInfo fetches static issue description fields (ISSUESIZE,
// ISIN) for ticker from the securities reference endpoint.
func (c *Client) GetSecurityInfo(ctx context.Context, ticker string) (*SecurityInfo, error) {
	if len(ticker) > 16 {
		return nil, &InvalidTickerError{Ticker: ticker}
	}

	key := cacheKey("secinfo", ticker)
	if c.cache != nil {
		if v, ok := c.cache.get(key); ok {
			return v.(*SecurityInfo), nil
		}
	}

	path := fmt.Sprintf("securities/%s.json", ticker)
	q := url.Values{}
	q.Set("iss.only", "description")

	raw, err := c.get(ctx, "get_security_info", path, q)
	if err != nil {
		return nil, err
	}

	var table issTable
	if v, ok := raw["description"]; ok {
		_ = json.Unmarshal(v, &table)
	}
	rows := decodeRows(table)

	info := &SecurityInfo{Ticker: ticker}
	for _, row := range rows {
		name := firstString(row, "NAME")
		if name == nil {
			continue
		}
		switch *name {
		case "ISSUESIZE":
			info.SharesOutstanding = numericValue(row)
		case "ISIN":
			info.ISIN = firstString(row, "VALUE")
		}
	}

	if c.cache != nil {
		c.cache.put(key, info)
	}
	return info, nil
}

// numericValue reads the description endpoint's VALUE column, which MOEX
// serializes as a string even for numeric fields like ISSUESIZE.
func numericValue(row map[string]interface{}) *float64 {
	v, ok := row["VALUE"]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

func derefString(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func isShortRange(fromDate, toDate string) bool {
	from, err1 := time.Parse("2006-01-02", fromDate)
	to, err2 := time.Parse("2006-01-02", toDate)
	if err1 != nil || err2 != nil {
		return false
	}
	return to.Sub(from) <= 30*24*time.Hour
}
