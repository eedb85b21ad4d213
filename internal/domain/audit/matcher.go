package audit

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/honorarios/honorarios/internal/domain/procedure"
)

// Store is the slice of the procedure service a statement run needs.
type Store interface {
	FindMatch(ctx context.Context, patientName string, date procedure.Date) (*procedure.Procedure, error)
	FindCandidates(ctx context.Context, patientName string, date procedure.Date) ([]*procedure.Procedure, error)
	Patch(ctx context.Context, id uuid.UUID, fields procedure.PatchFields) error
}

// Matcher resolves an extracted line item to a stored procedure, or nil
// when nothing matches.
type Matcher interface {
	Match(ctx context.Context, item LineItem) (*procedure.Procedure, error)
}

// firstHitMatcher takes the oldest record whose patient name contains the
// extracted name (case insensitive) on the same service date.
type firstHitMatcher struct {
	store Store
}

func NewFirstHitMatcher(store Store) Matcher {
	return &firstHitMatcher{store: store}
}

func (m *firstHitMatcher) Match(ctx context.Context, item LineItem) (*procedure.Procedure, error) {
	return m.store.FindMatch(ctx, item.PatientName, item.Date)
}

// strictMatcher narrows the same candidate set further: the stored record
// must also agree on the procedure name or on the billed value. Used when
// a practice bills the same patient more than once per day.
type strictMatcher struct {
	store Store
}

func NewStrictMatcher(store Store) Matcher {
	return &strictMatcher{store: store}
}

func (m *strictMatcher) Match(ctx context.Context, item LineItem) (*procedure.Procedure, error) {
	candidates, err := m.store.FindCandidates(ctx, item.PatientName, item.Date)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if item.ProcedureName != "" &&
			strings.Contains(strings.ToLower(c.ProcedureName), strings.ToLower(item.ProcedureName)) {
			return c, nil
		}
		if c.ProcedureValue.Equal(item.ProcedureValue) {
			return c, nil
		}
	}
	return nil, nil
}
