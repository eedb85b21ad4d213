package procedure

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Procedure) error
	GetByID(ctx context.Context, id uuid.UUID) (*Procedure, error)
	Update(ctx context.Context, p *Procedure) error
	Patch(ctx context.Context, id uuid.UUID, fields PatchFields) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Procedure, int, error)
	// FindMatch returns the first record whose patient name contains the
	// given name (case-insensitive) on exactly the given service date, or
	// nil when there is none.
	FindMatch(ctx context.Context, patientName string, date Date) (*Procedure, error)
	// FindCandidates returns every record for the same key, in store order.
	FindCandidates(ctx context.Context, patientName string, date Date) ([]*Procedure, error)
	Stats(ctx context.Context) (*Stats, error)
}
