// Package patientview assembles the patient detail aggregation from the
// census, handoff and labs domains.
package patientview

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/uci-core/uci-server/internal/domain/census"
	"github.com/uci-core/uci-server/internal/domain/handoff"
	"github.com/uci-core/uci-server/internal/domain/labs"
	"github.com/uci-core/uci-server/internal/platform/httperr"
)

// Readers are the slices of the other domains this aggregation needs.
// Adapters over the domain services satisfy them in main.

type PatientReader interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*census.Patient, error)
}

type BedReader interface {
	GetBed(ctx context.Context, id uuid.UUID) (*census.Bed, error)
}

type PassReader interface {
	LatestPass(ctx context.Context, patientID uuid.UUID) (*handoff.ClinicalPass, error)
}

type CultureReader interface {
	LatestCulture(ctx context.Context, patientID uuid.UUID) (*labs.Culture, error)
}

// Detail is the aggregated patient view: the patient plus their bed,
// most recent pass and most recent culture. Absent pieces stay nil.
type Detail struct {
	Patient       *census.Patient       `json:"patient"`
	Bed           *census.Bed           `json:"bed,omitempty"`
	LatestPass    *handoff.ClinicalPass `json:"latest_pass,omitempty"`
	LatestCulture *labs.Culture         `json:"latest_culture,omitempty"`
}

type Service struct {
	patients PatientReader
	beds     BedReader
	passes   PassReader
	cultures CultureReader
}

func NewService(patients PatientReader, beds BedReader, passes PassReader, cultures CultureReader) *Service {
	return &Service{patients: patients, beds: beds, passes: passes, cultures: cultures}
}

// Detail loads the aggregation for one patient. An unknown patient id is
// an error; a missing bed, pass or culture degrades to an absent field.
func (s *Service) Detail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	patient, err := s.patients.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &Detail{Patient: patient}

	if patient.CamaID != nil {
		bed, err := s.beds.GetBed(ctx, *patient.CamaID)
		if err != nil && !errors.Is(err, httperr.ErrNotFound) {
			return nil, err
		}
		d.Bed = bed
	}

	d.LatestPass, err = s.passes.LatestPass(ctx, id)
	if err != nil {
		return nil, err
	}

	d.LatestCulture, err = s.cultures.LatestCulture(ctx, id)
	if err != nil {
		return nil, err
	}

	return d, nil
}
