package handoff

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

type passRepoPG struct {
	pool *pgxpool.Pool
}

func NewPassRepo(pool *pgxpool.Pool) PassRepository {
	return &passRepoPG{pool: pool}
}

func (r *passRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const passCols = `id, paciente_id, medico_id, principal, antecedentes, actualmente, pendientes,
	gcs_rass, atb, vc_cook, cultivos_id, fecha_creacion, fecha_modificacion`

func scanPass(row pgx.Row) (*ClinicalPass, error) {
	var p ClinicalPass
	err := row.Scan(&p.ID, &p.PacienteID, &p.MedicoID, &p.Principal, &p.Antecedentes,
		&p.Actualmente, &p.Pendientes, &p.GcsRass, &p.Atb, &p.VcCook, &p.CultivosID,
		&p.FechaCreacion, &p.FechaModificacion)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *passRepoPG) Create(ctx context.Context, p *ClinicalPass) error {
	p.ID = uuid.New()
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO pases (id, paciente_id, medico_id, principal, antecedentes, actualmente,
			pendientes, gcs_rass, atb, vc_cook, cultivos_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING fecha_creacion, fecha_modificacion`,
		p.ID, p.PacienteID, p.MedicoID, p.Principal, p.Antecedentes, p.Actualmente,
		p.Pendientes, p.GcsRass, p.Atb, p.VcCook, p.CultivosID,
	)
	if err := row.Scan(&p.FechaCreacion, &p.FechaModificacion); err != nil {
		return fmt.Errorf("create pass: %w", err)
	}
	return nil
}

func (r *passRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ClinicalPass, error) {
	p, err := scanPass(r.conn(ctx).QueryRow(ctx,
		`SELECT `+passCols+` FROM pases WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NotFound("pase", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get pass: %w", err)
	}
	return p, nil
}

func (r *passRepoPG) Update(ctx context.Context, p *ClinicalPass) error {
	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE pases SET
			medico_id=$2, principal=$3, antecedentes=$4, actualmente=$5, pendientes=$6,
			gcs_rass=$7, atb=$8, vc_cook=$9, cultivos_id=$10, fecha_modificacion=NOW()
		WHERE id = $1
		RETURNING fecha_modificacion`,
		p.ID, p.MedicoID, p.Principal, p.Antecedentes, p.Actualmente, p.Pendientes,
		p.GcsRass, p.Atb, p.VcCook, p.CultivosID,
	)
	err := row.Scan(&p.FechaModificacion)
	if errors.Is(err, pgx.ErrNoRows) {
		return httperr.NotFound("pase", p.ID)
	}
	if err != nil {
		return fmt.Errorf("update pass: %w", err)
	}
	return nil
}

func (r *passRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*ClinicalPass, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if f.PacienteID != nil {
		where += fmt.Sprintf(" AND paciente_id = $%d", idx)
		args = append(args, *f.PacienteID)
		idx++
	}
	if f.Fecha != nil {
		where += fmt.Sprintf(" AND fecha_creacion::date = $%d::date", idx)
		args = append(args, *f.Fecha)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM pases `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count passes: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM pases %s ORDER BY fecha_creacion DESC LIMIT $%d OFFSET $%d`,
		passCols, where, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list passes: %w", err)
	}
	defer rows.Close()

	var passes []*ClinicalPass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan pass: %w", err)
		}
		passes = append(passes, p)
	}
	return passes, total, rows.Err()
}

func (r *passRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ClinicalPass, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+passCols+` FROM pases WHERE paciente_id = $1 ORDER BY fecha_creacion DESC`,
		patientID)
	if err != nil {
		return nil, fmt.Errorf("list passes by patient: %w", err)
	}
	defer rows.Close()

	var passes []*ClinicalPass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

func (r *passRepoPG) ExportRows(ctx context.Context, fecha time.Time) ([]ExportRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT pa.apellido || ', ' || pa.nombre,
			p.principal,
			COALESCE(p.antecedentes, ''), COALESCE(p.gcs_rass, ''), COALESCE(p.atb, ''),
			COALESCE(p.vc_cook, ''), COALESCE(p.actualmente, ''), COALESCE(p.pendientes, ''),
			p.fecha_creacion
		FROM pases p
		JOIN pacientes pa ON pa.id = p.paciente_id
		WHERE p.fecha_creacion::date = $1::date
		ORDER BY p.fecha_creacion ASC`, fecha)
	if err != nil {
		return nil, fmt.Errorf("export passes: %w", err)
	}
	defer rows.Close()

	var result []ExportRow
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(&row.Paciente, &row.Principal, &row.Antecedentes, &row.GcsRass,
			&row.Atb, &row.VcCook, &row.Actualmente, &row.Pendientes, &row.FechaCreacion); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
