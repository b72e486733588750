package census

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, nombre, apellido, cama_id, motivo_ingreso, fecha_ingreso, fecha_alta,
	motivo_egreso, detalle_egreso, activo, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Nombre, &p.Apellido, &p.CamaID, &p.MotivoIngreso, &p.FechaIngreso,
		&p.FechaAlta, &p.MotivoEgreso, &p.DetalleEgreso, &p.Activo, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO pacientes (id, nombre, apellido, cama_id, motivo_ingreso, fecha_ingreso, activo)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		p.ID, p.Nombre, p.Apellido, p.CamaID, p.MotivoIngreso, p.FechaIngreso, p.Activo,
	)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM pacientes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("paciente", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE pacientes SET
			nombre=$2, apellido=$3, cama_id=$4, motivo_ingreso=$5, fecha_ingreso=$6,
			fecha_alta=$7, motivo_egreso=$8, detalle_egreso=$9, activo=$10, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Nombre, p.Apellido, p.CamaID, p.MotivoIngreso, p.FechaIngreso,
		p.FechaAlta, p.MotivoEgreso, p.DetalleEgreso, p.Activo,
	)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("paciente", p.ID)
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pacientes`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM pacientes ORDER BY fecha_ingreso DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

func (r *patientRepoPG) ListActive(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM pacientes WHERE activo ORDER BY fecha_ingreso DESC`)
	if err != nil {
		return nil, fmt.Errorf("list active patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *patientRepoPG) ActiveByBed(ctx context.Context, bedID uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM pacientes WHERE activo AND cama_id = $1`, bedID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("paciente en cama", bedID)
	}
	if err != nil {
		return nil, fmt.Errorf("get active patient by bed: %w", err)
	}
	return p, nil
}

// -- Bed Repository --

type bedRepoPG struct {
	pool *pgxpool.Pool
}

func NewBedRepo(pool *pgxpool.Pool) BedRepository {
	return &bedRepoPG{pool: pool}
}

func (r *bedRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const bedCols = `id, cama, disponible, fecha_asignacion, fecha_liberacion`

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(&b.ID, &b.Cama, &b.Disponible, &b.FechaAsignacion, &b.FechaLiberacion)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bedRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM camas WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("cama", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get bed: %w", err)
	}
	return b, nil
}

func (r *bedRepoPG) List(ctx context.Context) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bedCols+` FROM camas ORDER BY cama ASC`)
	if err != nil {
		return nil, fmt.Errorf("list beds: %w", err)
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bed: %w", err)
		}
		beds = append(beds, b)
	}
	return beds, rows.Err()
}

func (r *bedRepoPG) Assign(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE camas SET disponible=false, fecha_asignacion=$2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("assign bed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("cama", id)
	}
	return nil
}

func (r *bedRepoPG) Release(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE camas SET disponible=true, fecha_liberacion=$2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("release bed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("cama", id)
	}
	return nil
}

func (r *bedRepoPG) ListOrphaned(ctx context.Context) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+bedCols+` FROM camas c
		WHERE NOT c.disponible
		  AND NOT EXISTS (SELECT 1 FROM pacientes p WHERE p.activo AND p.cama_id = c.id)
		ORDER BY c.cama ASC`)
	if err != nil {
		return nil, fmt.Errorf("list orphaned beds: %w", err)
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bed: %w", err)
		}
		beds = append(beds, b)
	}
	return beds, rows.Err()
}
