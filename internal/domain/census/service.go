package census

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uci-core/uci-server/internal/platform/httperr"
	"github.com/uci-core/uci-server/internal/platform/listcache"
)

const (
	cachePatients = "pacientes"
	cacheBeds     = "camas"
)

// TxRunner runs a function inside a database transaction so multi-row
// commands (assign bed, release bed, reconcile) commit atomically.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	patients PatientRepository
	beds     BedRepository
	tx       TxRunner
	cache    *listcache.Cache
}

func NewService(patients PatientRepository, beds BedRepository, tx TxRunner, cache *listcache.Cache) *Service {
	return &Service{patients: patients, beds: beds, tx: tx, cache: cache}
}

// -- Patients --

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	type page struct {
		Patients []*Patient `json:"patients"`
		Total    int        `json:"total"`
	}
	key := fmt.Sprintf("limit=%d&offset=%d", limit, offset)

	var cached page
	if s.cache.GetList(ctx, cachePatients, key, &cached) {
		return cached.Patients, cached.Total, nil
	}

	patients, total, err := s.patients.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	s.cache.PutList(ctx, cachePatients, key, page{Patients: patients, Total: total})
	return patients, total, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// AdmitPatient creates a patient record. Bed assignment is optional at
// admission; when a bed is given, the assignment runs in the same
// transaction as the insert so a taken bed rejects the whole admission.
func (s *Service) AdmitPatient(ctx context.Context, p *Patient) error {
	var v httperr.Validator
	if strings.TrimSpace(p.Nombre) == "" {
		v.Require("nombre", "el nombre es obligatorio")
	}
	if strings.TrimSpace(p.Apellido) == "" {
		v.Require("apellido", "el apellido es obligatorio")
	}
	if strings.TrimSpace(p.MotivoIngreso) == "" {
		v.Require("motivo_ingreso", "el motivo de ingreso es obligatorio")
	}
	if p.FechaIngreso.IsZero() {
		v.Require("fecha_ingreso", "la fecha de ingreso es obligatoria")
	}
	if err := v.Err(); err != nil {
		return err
	}

	p.Activo = true
	p.FechaAlta = nil
	p.MotivoEgreso = nil
	p.DetalleEgreso = nil

	if p.CamaID == nil {
		if err := s.patients.Create(ctx, p); err != nil {
			return err
		}
		s.cache.InvalidateEntity(ctx, cachePatients)
		return nil
	}

	bedID := *p.CamaID
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ensureBedFree(txCtx, bedID); err != nil {
			return err
		}
		if err := s.patients.Create(txCtx, p); err != nil {
			return err
		}
		return s.beds.Assign(txCtx, bedID, time.Now())
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateEntity(ctx, cachePatients)
	s.cache.InvalidateEntity(ctx, cacheBeds)
	return nil
}

// UpdatePatient saves an edited patient. Discharge state and bed moves have
// their own operations and cannot be changed through a plain edit.
func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	var v httperr.Validator
	if strings.TrimSpace(p.Nombre) == "" {
		v.Require("nombre", "el nombre es obligatorio")
	}
	if strings.TrimSpace(p.Apellido) == "" {
		v.Require("apellido", "el apellido es obligatorio")
	}
	if strings.TrimSpace(p.MotivoIngreso) == "" {
		v.Require("motivo_ingreso", "el motivo de ingreso es obligatorio")
	}
	if err := v.Err(); err != nil {
		return err
	}

	current, err := s.patients.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Activo = current.Activo
	p.FechaAlta = current.FechaAlta
	p.MotivoEgreso = current.MotivoEgreso
	p.DetalleEgreso = current.DetalleEgreso
	p.CamaID = current.CamaID

	if err := s.patients.Update(ctx, p); err != nil {
		return err
	}
	s.cache.InvalidateEntity(ctx, cachePatients)
	return nil
}

// Discharge moves a patient out of the unit. The bed is intentionally NOT
// released here: bed turnover (cleaning, delayed reassignment) is a separate
// explicit release, and ReconcileBeds sweeps up anything left behind.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID, req DischargeRequest) (*Patient, error) {
	var v httperr.Validator
	if !req.Motivo.Valid() {
		v.Require("motivo", "el motivo de egreso debe ser alta_hospitalaria, alta_servicio, derivacion u obito")
	}
	if strings.TrimSpace(req.Detalle) == "" {
		v.Require("detalle", "el detalle de egreso es obligatorio")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Activo {
		return nil, httperr.Conflict("el paciente %s ya fue egresado", id)
	}

	now := time.Now()
	motivo := string(req.Motivo)
	detalle := req.Detalle
	p.Activo = false
	p.FechaAlta = &now
	p.MotivoEgreso = &motivo
	p.DetalleEgreso = &detalle

	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	s.cache.InvalidateEntity(ctx, cachePatients)
	return p, nil
}

// -- Beds --

func (s *Service) ListBeds(ctx context.Context) ([]*Bed, error) {
	var cached []*Bed
	if s.cache.GetList(ctx, cacheBeds, "all", &cached) {
		return cached, nil
	}
	beds, err := s.beds.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.PutList(ctx, cacheBeds, "all", beds)
	return beds, nil
}

func (s *Service) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return s.beds.GetByID(ctx, id)
}

// AssignBed places an active patient in a bed as a single atomic command:
// the patient row and the bed row change together or not at all.
func (s *Service) AssignBed(ctx context.Context, bedID, patientID uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.patients.GetByID(txCtx, patientID)
		if err != nil {
			return err
		}
		if !p.Activo {
			return httperr.Conflict("el paciente %s no está activo", patientID)
		}
		if p.CamaID != nil {
			return httperr.Conflict("el paciente %s ya ocupa una cama", patientID)
		}
		if err := s.ensureBedFree(txCtx, bedID); err != nil {
			return err
		}

		p.CamaID = &bedID
		if err := s.patients.Update(txCtx, p); err != nil {
			return err
		}
		return s.beds.Assign(txCtx, bedID, time.Now())
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateEntity(ctx, cachePatients)
	s.cache.InvalidateEntity(ctx, cacheBeds)
	return nil
}

// ReleaseBed frees a bed, detaching the active patient still referencing it
// (a discharged patient's reference was already dropped or is swept by
// reconciliation).
func (s *Service) ReleaseBed(ctx context.Context, bedID uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		b, err := s.beds.GetByID(txCtx, bedID)
		if err != nil {
			return err
		}
		if b.Disponible {
			return httperr.Conflict("la cama %d ya está disponible", b.Cama)
		}

		p, err := s.patients.ActiveByBed(txCtx, bedID)
		switch {
		case err == nil:
			p.CamaID = nil
			if err := s.patients.Update(txCtx, p); err != nil {
				return err
			}
		case errors.Is(err, httperr.ErrNotFound):
			// Orphaned bed: occupied flag with no active patient.
		default:
			return err
		}

		return s.beds.Release(txCtx, bedID, time.Now())
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateEntity(ctx, cachePatients)
	s.cache.InvalidateEntity(ctx, cacheBeds)
	return nil
}

// ReconcileBeds releases every bed still marked occupied that no active
// patient references, returning the beds it released. This is the sweep for
// the discharge/release split: discharge alone leaves the bed occupied.
func (s *Service) ReconcileBeds(ctx context.Context) ([]*Bed, error) {
	var released []*Bed
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		orphaned, err := s.beds.ListOrphaned(txCtx)
		if err != nil {
			return err
		}
		now := time.Now()
		for _, b := range orphaned {
			if err := s.beds.Release(txCtx, b.ID, now); err != nil {
				return err
			}
			b.Disponible = true
			b.FechaLiberacion = &now
			released = append(released, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(released) > 0 {
		s.cache.InvalidateEntity(ctx, cacheBeds)
	}
	return released, nil
}

// Occupancy loads beds and active patients and builds the census board view.
func (s *Service) Occupancy(ctx context.Context) ([]OccupancyEntry, error) {
	beds, err := s.beds.List(ctx)
	if err != nil {
		return nil, err
	}
	patients, err := s.patients.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return BuildOccupancy(beds, patients), nil
}

func (s *Service) ensureBedFree(ctx context.Context, bedID uuid.UUID) error {
	b, err := s.beds.GetByID(ctx, bedID)
	if err != nil {
		return err
	}
	if !b.Disponible {
		return httperr.Conflict("la cama %d está ocupada", b.Cama)
	}
	_, err = s.patients.ActiveByBed(ctx, bedID)
	if err == nil {
		return httperr.Conflict("la cama %d ya tiene un paciente activo", b.Cama)
	}
	if !errors.Is(err, httperr.ErrNotFound) {
		return err
	}
	return nil
}
