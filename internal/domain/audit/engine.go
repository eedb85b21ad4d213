package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/honorarios/honorarios/internal/domain/procedure"
)

// Engine runs one statement through extraction, matching, and record
// updates. Items are processed strictly in statement order.
type Engine struct {
	store     Store
	extractor Extractor
	matcher   Matcher
	logger    zerolog.Logger
}

func NewEngine(store Store, extractor Extractor, matcher Matcher, logger zerolog.Logger) *Engine {
	return &Engine{
		store:     store,
		extractor: extractor,
		matcher:   matcher,
		logger:    logger.With().Str("component", "audit").Logger(),
	}
}

// Run reconciles a statement document against the stored records.
//
// An extraction failure aborts before any record is touched. A lookup
// failure on one item degrades that item to unmatched and the run goes
// on. A failed update stops the run and returns the partial report
// together with the error; items already updated stay updated.
func (e *Engine) Run(ctx context.Context, data []byte, mimeType string) (*Report, error) {
	items, err := e.extractor.Extract(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Results:        make([]ItemResult, 0, len(items)),
		ItemsProcessed: len(items),
		TotalGlosa:     decimal.Zero,
	}

	for i, item := range items {
		// Glosa totals count every statement line, matched or not.
		report.TotalGlosa = report.TotalGlosa.Add(item.GlosaAmount)

		match, err := e.matcher.Match(ctx, item)
		if err != nil {
			e.logger.Warn().Err(err).
				Str("patient", item.PatientName).
				Str("date", item.Date.String()).
				Msg("match lookup failed, item left unmatched")
			report.Results = append(report.Results, ItemResult{Item: item})
			continue
		}
		if match == nil {
			report.Results = append(report.Results, ItemResult{Item: item})
			continue
		}

		report.MatchesFound++
		fields := mergeFields(item)
		if err := e.store.Patch(ctx, match.ID, fields); err != nil {
			report.Results = append(report.Results, ItemResult{Item: item, Matched: match})
			report.Efficiency = efficiency(report.MatchesFound, report.ItemsProcessed)
			return report, fmt.Errorf("updating record %s for item %d: %w", match.ID, i, err)
		}
		report.Results = append(report.Results, ItemResult{Item: item, Matched: match, Updated: true})
	}

	report.Efficiency = efficiency(report.MatchesFound, report.ItemsProcessed)
	e.logger.Info().
		Int("items", report.ItemsProcessed).
		Int("matches", report.MatchesFound).
		Str("total_glosa", report.TotalGlosa.String()).
		Msg("statement run finished")
	return report, nil
}

// mergeFields derives the record update for a matched line. The glosa
// amount is always overwritten so re-running the same statement is
// idempotent. Receipt is only ever confirmed, never revoked.
func mergeFields(item LineItem) procedure.PatchFields {
	status := procedure.StatusGlosa
	if item.Outcome == OutcomePago {
		status = procedure.StatusPaid
	}
	glosa := item.GlosaAmount
	fields := procedure.PatchFields{
		Status:      &status,
		GlosaAmount: &glosa,
	}
	if item.Outcome == OutcomePago {
		received := procedure.ReceivedYes
		fields.ReceivedStatus = &received
	}
	return fields
}

func efficiency(matches, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(matches) / float64(total)
}
