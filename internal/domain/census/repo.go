package census

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	ListActive(ctx context.Context) ([]*Patient, error)
	// ActiveByBed returns the active patient referencing the bed, or
	// httperr.ErrNotFound when the bed is free.
	ActiveByBed(ctx context.Context, bedID uuid.UUID) (*Patient, error)
}

type BedRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Bed, error)
	// List returns all beds ordered by bed number ascending. The unit is
	// small and beds are pre-provisioned, so there is no pagination.
	List(ctx context.Context) ([]*Bed, error)
	// Assign marks the bed occupied and stamps fecha_asignacion.
	Assign(ctx context.Context, id uuid.UUID, at time.Time) error
	// Release marks the bed available and stamps fecha_liberacion.
	Release(ctx context.Context, id uuid.UUID, at time.Time) error
	// ListOrphaned returns beds marked occupied that no active patient
	// references.
	ListOrphaned(ctx context.Context) ([]*Bed, error)
}
