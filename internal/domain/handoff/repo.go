package handoff

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows pass listings. Fecha compares on the calendar date only.
type Filter struct {
	PacienteID *uuid.UUID
	Fecha      *time.Time
}

type PassRepository interface {
	Create(ctx context.Context, p *ClinicalPass) error
	GetByID(ctx context.Context, id uuid.UUID) (*ClinicalPass, error)
	// Update bumps fecha_modificacion server-side.
	Update(ctx context.Context, p *ClinicalPass) error
	// List returns passes ordered by fecha_creacion descending.
	List(ctx context.Context, f Filter, limit, offset int) ([]*ClinicalPass, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ClinicalPass, error)
	// ExportRows returns the date-filtered roster joined with patient names,
	// in creation order.
	ExportRows(ctx context.Context, fecha time.Time) ([]ExportRow, error)
}
