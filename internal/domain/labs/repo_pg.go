package labs

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

type cultureRepoPG struct {
	pool *pgxpool.Pool
}

func NewCultureRepo(pool *pgxpool.Pool) CultureRepository {
	return &cultureRepoPG{pool: pool}
}

func (r *cultureRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cultureCols = `id, paciente_id, nombre, fecha_solicitud, fecha_recibido, resultado,
	estado, activo, created_at, updated_at`

func scanCulture(row pgx.Row) (*Culture, error) {
	var c Culture
	err := row.Scan(&c.ID, &c.PacienteID, &c.Nombre, &c.FechaSolicitud, &c.FechaRecibido,
		&c.Resultado, &c.Estado, &c.Activo, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cultureRepoPG) Create(ctx context.Context, c *Culture) error {
	c.ID = uuid.New()
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO cultivos (id, paciente_id, nombre, fecha_solicitud, fecha_recibido,
			resultado, estado, activo)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		c.ID, c.PacienteID, c.Nombre, c.FechaSolicitud, c.FechaRecibido,
		c.Resultado, c.Estado, c.Activo,
	)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create culture: %w", err)
	}
	return nil
}

func (r *cultureRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Culture, error) {
	c, err := scanCulture(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cultureCols+` FROM cultivos WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("cultivo", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get culture: %w", err)
	}
	return c, nil
}

func (r *cultureRepoPG) Update(ctx context.Context, c *Culture) error {
	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE cultivos SET
			paciente_id=$2, nombre=$3, fecha_solicitud=$4, fecha_recibido=$5,
			resultado=$6, estado=$7, activo=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.PacienteID, c.Nombre, c.FechaSolicitud, c.FechaRecibido,
		c.Resultado, c.Estado, c.Activo,
	)
	err := row.Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return httperr.NotFound("cultivo", c.ID)
	}
	if err != nil {
		return fmt.Errorf("update culture: %w", err)
	}
	return nil
}

func (r *cultureRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	// WHERE activo makes a second delete on the same id report not found.
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE cultivos SET activo = false, updated_at = NOW() WHERE id = $1 AND activo`, id)
	if err != nil {
		return fmt.Errorf("soft delete culture: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("cultivo", id)
	}
	return nil
}

func (r *cultureRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Culture, int, error) {
	where := "WHERE activo"
	args := []interface{}{}
	idx := 1
	if f.PacienteID != nil {
		where += fmt.Sprintf(" AND paciente_id = $%d", idx)
		args = append(args, *f.PacienteID)
		idx++
	}
	if f.Fecha != nil {
		where += fmt.Sprintf(" AND fecha_solicitud::date = $%d::date", idx)
		args = append(args, *f.Fecha)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM cultivos `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cultures: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM cultivos %s ORDER BY fecha_solicitud DESC LIMIT $%d OFFSET $%d`,
		cultureCols, where, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list cultures: %w", err)
	}
	defer rows.Close()

	var cultures []*Culture
	for rows.Next() {
		c, err := scanCulture(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan culture: %w", err)
		}
		cultures = append(cultures, c)
	}
	return cultures, total, rows.Err()
}

func (r *cultureRepoPG) ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*Culture, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cultureCols+` FROM cultivos
		 WHERE paciente_id = $1 AND activo
		 ORDER BY fecha_recibido DESC NULLS FIRST, fecha_solicitud DESC`,
		patientID)
	if err != nil {
		return nil, fmt.Errorf("list cultures by patient: %w", err)
	}
	defer rows.Close()

	var cultures []*Culture
	for rows.Next() {
		c, err := scanCulture(rows)
		if err != nil {
			return nil, fmt.Errorf("scan culture: %w", err)
		}
		cultures = append(cultures, c)
	}
	return cultures, rows.Err()
}

func (r *cultureRepoPG) ListView(ctx context.Context, f Filter) ([]ListEntry, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if f.PacienteID != nil {
		where += fmt.Sprintf(" AND c.paciente_id = $%d", idx)
		args = append(args, *f.PacienteID)
		idx++
	}
	if f.Fecha != nil {
		where += fmt.Sprintf(" AND c.fecha_solicitud::date = $%d::date", idx)
		args = append(args, *f.Fecha)
		idx++
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.paciente_id, c.nombre, c.fecha_solicitud, c.fecha_recibido,
			c.resultado, c.estado, c.activo, c.created_at, c.updated_at,
			p.apellido || ', ' || p.nombre, b.cama
		FROM cultivos c
		JOIN pacientes p ON p.id = c.paciente_id
		LEFT JOIN camas b ON b.id = p.cama_id
		%s
		ORDER BY b.cama ASC NULLS LAST, c.fecha_solicitud DESC`, where)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("culture list view: %w", err)
	}
	defer rows.Close()

	var entries []ListEntry
	for rows.Next() {
		var e ListEntry
		err := rows.Scan(&e.ID, &e.PacienteID, &e.Nombre, &e.FechaSolicitud, &e.FechaRecibido,
			&e.Resultado, &e.Estado, &e.Activo, &e.CreatedAt, &e.UpdatedAt,
			&e.Paciente, &e.Cama)
		if err != nil {
			return nil, fmt.Errorf("scan culture view: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
