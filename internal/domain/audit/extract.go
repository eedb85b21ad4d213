package audit

import (
	"context"
	"fmt"
)

// Extractor turns a raw statement document into structured line items.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) ([]LineItem, error)
}

// ExtractionError means the statement could not be turned into a usable
// set of line items. A run that hits one mutates nothing.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("statement extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("statement extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
