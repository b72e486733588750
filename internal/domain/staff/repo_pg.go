package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uci-core/uci-server/internal/platform/db"
	"github.com/uci-core/uci-server/internal/platform/httperr"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// -- Physician Repository --

type physicianRepoPG struct {
	pool *pgxpool.Pool
}

func NewPhysicianRepo(pool *pgxpool.Pool) PhysicianRepository {
	return &physicianRepoPG{pool: pool}
}

func (r *physicianRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const physicianCols = `id, nombre, apellido, rol_id, activo, created_at, updated_at`

func scanPhysician(row pgx.Row) (*Physician, error) {
	var p Physician
	err := row.Scan(&p.ID, &p.Nombre, &p.Apellido, &p.RolID, &p.Activo, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *physicianRepoPG) Create(ctx context.Context, p *Physician) error {
	p.ID = uuid.New()
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medicos (id, nombre, apellido, rol_id, activo)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		p.ID, p.Nombre, p.Apellido, p.RolID, p.Activo,
	)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("create physician: %w", err)
	}
	return nil
}

func (r *physicianRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Physician, error) {
	p, err := scanPhysician(r.conn(ctx).QueryRow(ctx,
		`SELECT `+physicianCols+` FROM medicos WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("medico", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get physician: %w", err)
	}
	return p, nil
}

func (r *physicianRepoPG) Update(ctx context.Context, p *Physician) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicos SET nombre=$2, apellido=$3, rol_id=$4, activo=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Nombre, p.Apellido, p.RolID, p.Activo,
	)
	if err != nil {
		return fmt.Errorf("update physician: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("medico", p.ID)
	}
	return nil
}

func (r *physicianRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medicos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete physician: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("medico", id)
	}
	return nil
}

func (r *physicianRepoPG) List(ctx context.Context, limit, offset int) ([]*Physician, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medicos`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count physicians: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+physicianCols+` FROM medicos ORDER BY apellido, nombre LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list physicians: %w", err)
	}
	defer rows.Close()

	var physicians []*Physician
	for rows.Next() {
		p, err := scanPhysician(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan physician: %w", err)
		}
		physicians = append(physicians, p)
	}
	return physicians, total, rows.Err()
}

// -- Role Repository --

type roleRepoPG struct {
	pool *pgxpool.Pool
}

func NewRoleRepo(pool *pgxpool.Pool) RoleRepository {
	return &roleRepoPG{pool: pool}
}

func (r *roleRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *roleRepoPG) Create(ctx context.Context, role *Role) error {
	role.ID = uuid.New()
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO roles (id, tipo_rol) VALUES ($1,$2) RETURNING created_at`,
		role.ID, role.TipoRol,
	)
	if err := row.Scan(&role.CreatedAt); err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

func (r *roleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Role, error) {
	var role Role
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, tipo_rol, created_at FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.TipoRol, &role.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("rol", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &role, nil
}

func (r *roleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("rol", id)
	}
	return nil
}

func (r *roleRepoPG) List(ctx context.Context) ([]*Role, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, tipo_rol, created_at FROM roles ORDER BY tipo_rol`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []*Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.TipoRol, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, &role)
	}
	return roles, rows.Err()
}
