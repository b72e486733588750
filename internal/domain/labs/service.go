package labs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/uci-core/uci-server/internal/platform/listcache"
)

const cacheCultures = "cultivos"

type Service struct {
	cultures CultureRepository
	cache    *listcache.Cache
	now      func() time.Time
}

func NewService(cultures CultureRepository, cache *listcache.Cache) *Service {
	return &Service{cultures: cultures, cache: cache, now: time.Now}
}

// CreateCulture sanitizes the payload and persists a new culture order.
func (s *Service) CreateCulture(ctx context.Context, in CultureInput) (*Culture, error) {
	c, err := NormalizeForWrite(in, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.cultures.Create(ctx, c); err != nil {
		return nil, err
	}
	s.cache.InvalidateEntity(ctx, cacheCultures)
	return c, nil
}

func (s *Service) GetCulture(ctx context.Context, id uuid.UUID) (*Culture, error) {
	return s.cultures.GetByID(ctx, id)
}

// UpdateCulture replaces a culture's content through the same
// sanitization as creation, so clearing the resultado moves the row
// back to pending with a null received date.
func (s *Service) UpdateCulture(ctx context.Context, id uuid.UUID, in CultureInput) (*Culture, error) {
	current, err := s.cultures.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := NormalizeForWrite(in, s.now())
	if err != nil {
		return nil, err
	}
	c.ID = current.ID
	c.Activo = current.Activo
	c.CreatedAt = current.CreatedAt
	if err := s.cultures.Update(ctx, c); err != nil {
		return nil, err
	}
	s.cache.InvalidateEntity(ctx, cacheCultures)
	return c, nil
}

func (s *Service) DeleteCulture(ctx context.Context, id uuid.UUID) error {
	if err := s.cultures.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateEntity(ctx, cacheCultures)
	return nil
}

func (s *Service) ListCultures(ctx context.Context, f Filter, limit, offset int) ([]*Culture, int, error) {
	type page struct {
		Cultures []*Culture `json:"cultures"`
		Total    int        `json:"total"`
	}
	key := listFilterKey(f, limit, offset)

	var cached page
	if s.cache.GetList(ctx, cacheCultures, key, &cached) {
		return cached.Cultures, cached.Total, nil
	}

	cultures, total, err := s.cultures.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	s.cache.PutList(ctx, cacheCultures, key, page{Cultures: cultures, Total: total})
	return cultures, total, nil
}

// ListView returns the filtered roster ordered by bed then request date.
func (s *Service) ListView(ctx context.Context, f Filter) ([]ListEntry, error) {
	key := "view:" + listFilterKey(f, 0, 0)

	var cached []ListEntry
	if s.cache.GetList(ctx, cacheCultures, key, &cached) {
		return cached, nil
	}

	entries, err := s.cultures.ListView(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Pendiente = entries[i].Pending()
	}
	s.cache.PutList(ctx, cacheCultures, key, entries)
	return entries, nil
}

// LatestForPatient returns the patient's current culture, pending ones
// first, or nil when none exists.
func (s *Service) LatestForPatient(ctx context.Context, patientID uuid.UUID) (*Culture, error) {
	cultures, err := s.cultures.ListActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return Latest(cultures), nil
}

func listFilterKey(f Filter, limit, offset int) string {
	key := fmt.Sprintf("limit=%d&offset=%d", limit, offset)
	if f.PacienteID != nil {
		key += "&paciente=" + f.PacienteID.String()
	}
	if f.Fecha != nil {
		key += "&fecha=" + f.Fecha.Format("2006-01-02")
	}
	return key
}
