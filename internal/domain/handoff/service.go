package handoff

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/uci-core/uci-server/internal/platform/listcache"
)

const cachePasses = "pases"

type Service struct {
	passes PassRepository
	cache  *listcache.Cache
}

func NewService(passes PassRepository, cache *listcache.Cache) *Service {
	return &Service{passes: passes, cache: cache}
}

// CreatePass sanitizes the payload and persists a new pass.
func (s *Service) CreatePass(ctx context.Context, in PassInput) (*ClinicalPass, error) {
	p, err := NormalizeForWrite(in)
	if err != nil {
		return nil, err
	}
	if err := s.passes.Create(ctx, p); err != nil {
		return nil, err
	}
	s.cache.InvalidateEntity(ctx, cachePasses)
	return p, nil
}

func (s *Service) GetPass(ctx context.Context, id uuid.UUID) (*ClinicalPass, error) {
	return s.passes.GetByID(ctx, id)
}

// UpdatePass replaces the clinical content of an existing pass. The
// payload goes through the same sanitization as creation; fecha_creacion
// is preserved.
func (s *Service) UpdatePass(ctx context.Context, id uuid.UUID, in PassInput) (*ClinicalPass, error) {
	current, err := s.passes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := NormalizeForWrite(in)
	if err != nil {
		return nil, err
	}
	p.ID = current.ID
	p.FechaCreacion = current.FechaCreacion
	if err := s.passes.Update(ctx, p); err != nil {
		return nil, err
	}
	s.cache.InvalidateEntity(ctx, cachePasses)
	return p, nil
}

func (s *Service) ListPasses(ctx context.Context, f Filter, limit, offset int) ([]*ClinicalPass, int, error) {
	type page struct {
		Passes []*ClinicalPass `json:"passes"`
		Total  int             `json:"total"`
	}
	key := fmt.Sprintf("limit=%d&offset=%d", limit, offset)
	if f.PacienteID != nil {
		key += "&paciente=" + f.PacienteID.String()
	}
	if f.Fecha != nil {
		key += "&fecha=" + f.Fecha.Format("2006-01-02")
	}

	var cached page
	if s.cache.GetList(ctx, cachePasses, key, &cached) {
		return cached.Passes, cached.Total, nil
	}

	passes, total, err := s.passes.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	s.cache.PutList(ctx, cachePasses, key, page{Passes: passes, Total: total})
	return passes, total, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ClinicalPass, error) {
	return s.passes.ListByPatient(ctx, patientID)
}

// LatestForPatient returns the patient's most recent pass, or nil when
// none exists.
func (s *Service) LatestForPatient(ctx context.Context, patientID uuid.UUID) (*ClinicalPass, error) {
	passes, err := s.passes.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return Latest(passes), nil
}

// ExportRoster returns the date's passes joined with patient names, in
// creation order.
func (s *Service) ExportRoster(ctx context.Context, fecha time.Time) ([]ExportRow, error) {
	rows, err := s.passes.ExportRows(ctx, fecha)
	if err != nil {
		return nil, err
	}
	SortExportRows(rows)
	return rows, nil
}
