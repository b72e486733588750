package staff

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/uci-core/uci-server/internal/platform/httperr"
	"github.com/uci-core/uci-server/internal/platform/listcache"
)

const (
	cachePhysicians = "medicos"
	cacheRoles      = "roles"
)

func listKey(limit, offset int) string {
	return fmt.Sprintf("limit=%d&offset=%d", limit, offset)
}

type Service struct {
	physicians PhysicianRepository
	roles      RoleRepository
	cache      *listcache.Cache
}

func NewService(physicians PhysicianRepository, roles RoleRepository, cache *listcache.Cache) *Service {
	return &Service{physicians: physicians, roles: roles, cache: cache}
}

// -- Physicians --

func (s *Service) validatePhysician(ctx context.Context, p *Physician) error {
	var v httperr.Validator
	if strings.TrimSpace(p.Nombre) == "" {
		v.Require("nombre", "el nombre es obligatorio")
	}
	if strings.TrimSpace(p.Apellido) == "" {
		v.Require("apellido", "el apellido es obligatorio")
	}
	if err := v.Err(); err != nil {
		return err
	}
	// rol_id, when set, must reference an existing role.
	if p.RolID != nil {
		if _, err := s.roles.GetByID(ctx, *p.RolID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) CreatePhysician(ctx context.Context, p *Physician) error {
	if err := s.validatePhysician(ctx, p); err != nil {
		return err
	}
	p.Activo = true
	if err := s.physicians.Create(ctx, p); err != nil {
		return err
	}
	s.cache.InvalidateEntity(ctx, cachePhysicians)
	return nil
}

func (s *Service) GetPhysician(ctx context.Context, id uuid.UUID) (*Physician, error) {
	return s.physicians.GetByID(ctx, id)
}

func (s *Service) UpdatePhysician(ctx context.Context, p *Physician) error {
	if err := s.validatePhysician(ctx, p); err != nil {
		return err
	}
	if err := s.physicians.Update(ctx, p); err != nil {
		return err
	}
	s.cache.InvalidateEntity(ctx, cachePhysicians)
	return nil
}

func (s *Service) DeletePhysician(ctx context.Context, id uuid.UUID) error {
	if err := s.physicians.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateEntity(ctx, cachePhysicians)
	return nil
}

func (s *Service) ListPhysicians(ctx context.Context, limit, offset int) ([]*Physician, int, error) {
	type page struct {
		Physicians []*Physician `json:"physicians"`
		Total      int          `json:"total"`
	}
	key := listKey(limit, offset)

	var cached page
	if s.cache.GetList(ctx, cachePhysicians, key, &cached) {
		return cached.Physicians, cached.Total, nil
	}

	physicians, total, err := s.physicians.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	s.cache.PutList(ctx, cachePhysicians, key, page{Physicians: physicians, Total: total})
	return physicians, total, nil
}

// -- Roles --

func (s *Service) CreateRole(ctx context.Context, r *Role) error {
	if strings.TrimSpace(r.TipoRol) == "" {
		return httperr.NewValidation("tipo_rol", "el tipo de rol es obligatorio")
	}
	if err := s.roles.Create(ctx, r); err != nil {
		return err
	}
	s.cache.InvalidateEntity(ctx, cacheRoles)
	return nil
}

func (s *Service) GetRole(ctx context.Context, id uuid.UUID) (*Role, error) {
	return s.roles.GetByID(ctx, id)
}

func (s *Service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	if err := s.roles.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateEntity(ctx, cacheRoles)
	return nil
}

func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	var cached []*Role
	if s.cache.GetList(ctx, cacheRoles, "all", &cached) {
		return cached, nil
	}
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.PutList(ctx, cacheRoles, "all", roles)
	return roles, nil
}
