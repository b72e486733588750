package labs

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows culture listings. Fecha compares fecha_solicitud on the
// calendar date only.
type Filter struct {
	PacienteID *uuid.UUID
	Fecha      *time.Time
}

type CultureRepository interface {
	Create(ctx context.Context, c *Culture) error
	GetByID(ctx context.Context, id uuid.UUID) (*Culture, error)
	Update(ctx context.Context, c *Culture) error
	// SoftDelete flips activo to false. Deleting an already-deleted row
	// reports not found.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Culture, int, error)
	// ListActiveByPatient returns the patient's non-deleted cultures.
	ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*Culture, error)
	// ListView returns filtered cultures joined with patient names and
	// bed numbers, ordered by bed ascending then fecha_solicitud
	// descending.
	ListView(ctx context.Context, f Filter) ([]ListEntry, error)
}
