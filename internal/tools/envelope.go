// Package tools implements the five risk-analytics report operations,
// each coordinating the MOEX ISS client and the calculation kernel behind
// a single Run method and a uniform error envelope.
package tools

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/moex-risk-analytics/internal/calc"
	"github.com/aristath/moex-risk-analytics/internal/model"
	"github.com/aristath/moex-risk-analytics/internal/moexiss"
)

// newMetadata stamps a fresh request id and as_of timestamp.
func newMetadata(fromDate, toDate string) model.Metadata {
	return model.Metadata{
		RequestID: uuid.NewString(),
		AsOf:      time.Now().UTC().Format(time.RFC3339),
		FromDate:  fromDate,
		ToDate:    toDate,
	}
}

// errorFrom classifies an error raised by the SDK or calculation kernel into
// the fixed ToolError taxonomy. Validation errors raised directly by a tool
// should be constructed with model.NewToolError instead of passed here.
func errorFrom(err error) *model.ToolError {
	if err == nil {
		return nil
	}

	var invalidTicker *moexiss.InvalidTickerError
	if errors.As(err, &invalidTicker) {
		return model.NewToolError(model.ErrInvalidTicker, err.Error(), nil)
	}

	var dateRange *moexiss.DateRangeTooLargeError
	if errors.As(err, &dateRange) {
		return model.NewToolError(model.ErrDateRangeTooLarge, err.Error(), nil)
	}

	var timeout *moexiss.IssTimeoutError
	if errors.As(err, &timeout) {
		return model.NewToolError(model.ErrIssTimeout, "upstream data source timed out", nil)
	}

	var serverErr *moexiss.IssServerError
	if errors.As(err, &serverErr) {
		return model.NewToolError(model.ErrIss5xx, "upstream data source is temporarily unavailable", nil)
	}

	if errors.Is(err, calc.ErrInsufficientData) {
		return model.NewToolError(model.ErrInsufficientData, err.Error(), nil)
	}
	if errors.Is(err, calc.ErrConstraintsInfeasible) {
		return model.NewToolError(model.ErrConstraintsInfeasible, err.Error(), nil)
	}

	var toolErr *model.ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}

	return model.NewToolError(model.ErrUnknown, "an unexpected error occurred", nil)
}
