package staff

import (
	"context"

	"github.com/google/uuid"
)

type PhysicianRepository interface {
	Create(ctx context.Context, p *Physician) error
	GetByID(ctx context.Context, id uuid.UUID) (*Physician, error)
	Update(ctx context.Context, p *Physician) error
	// Delete is a hard delete; deleting an id twice returns not-found.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Physician, int, error)
}

type RoleRepository interface {
	Create(ctx context.Context, r *Role) error
	GetByID(ctx context.Context, id uuid.UUID) (*Role, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Role, error)
}
