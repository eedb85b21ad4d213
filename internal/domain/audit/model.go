package audit

import (
	"github.com/shopspring/decimal"

	"github.com/honorarios/honorarios/internal/domain/procedure"
)

// Outcome is the insurer's verdict for one statement line.
type Outcome string

const (
	OutcomePago  Outcome = "pago"
	OutcomeGlosa Outcome = "glosa"
)

// LineItem is one procedure line extracted from an insurer statement.
type LineItem struct {
	PatientName    string          `json:"patient_name"`
	Date           procedure.Date  `json:"date"`
	ProcedureName  string          `json:"procedure_name"`
	TUSSCode       string          `json:"tuss_code,omitempty"`
	ProcedureValue decimal.Decimal `json:"procedure_value"`
	GlosaAmount    decimal.Decimal `json:"glosa_amount"`
	Outcome        Outcome         `json:"outcome"`
}

// ItemResult pairs an extracted line with the stored record it matched,
// if any, and whether that record was updated.
type ItemResult struct {
	Item    LineItem             `json:"item"`
	Matched *procedure.Procedure `json:"matched,omitempty"`
	Updated bool                 `json:"updated"`
}

// Report summarizes one statement run.
type Report struct {
	Results        []ItemResult    `json:"results"`
	ItemsProcessed int             `json:"items_processed"`
	MatchesFound   int             `json:"matches_found"`
	TotalGlosa     decimal.Decimal `json:"total_glosa"`
	Efficiency     float64         `json:"efficiency"`
}
