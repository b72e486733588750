package handoff

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uci-core/uci-server/internal/platform/httperr"
)

// ClinicalPass maps to the pases table: a handoff note summarizing a
// patient's diagnosis and status at a point in time. Passes are never
// deleted through the normal flow.
type ClinicalPass struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PacienteID        uuid.UUID  `db:"paciente_id" json:"paciente_id"`
	MedicoID          *uuid.UUID `db:"medico_id" json:"medico_id,omitempty"`
	Principal         string     `db:"principal" json:"principal"`
	Antecedentes      *string    `db:"antecedentes" json:"antecedentes,omitempty"`
	Actualmente       *string    `db:"actualmente" json:"actualmente,omitempty"`
	Pendientes        *string    `db:"pendientes" json:"pendientes,omitempty"`
	GcsRass           *string    `db:"gcs_rass" json:"gcs_rass,omitempty"`
	Atb               *string    `db:"atb" json:"atb,omitempty"`
	VcCook            *string    `db:"vc_cook" json:"vc_cook,omitempty"`
	CultivosID        *uuid.UUID `db:"cultivos_id" json:"cultivos_id,omitempty"`
	FechaCreacion     time.Time  `db:"fecha_creacion" json:"fecha_creacion"`
	FechaModificacion time.Time  `db:"fecha_modificacion" json:"fecha_modificacion"`
}

// PassInput is the loosely-typed write payload as the form submits it.
// Reference fields arrive as strings and may be empty.
type PassInput struct {
	PacienteID   string `json:"paciente_id"`
	MedicoID     string `json:"medico_id"`
	Principal    string `json:"principal"`
	Antecedentes string `json:"antecedentes"`
	Actualmente  string `json:"actualmente"`
	Pendientes   string `json:"pendientes"`
	GcsRass      string `json:"gcs_rass"`
	Atb          string `json:"atb"`
	VcCook       string `json:"vc_cook"`
	CultivosID   string `json:"cultivos_id"`
}

// NormalizeForWrite sanitizes a form payload into a persistable pass:
// empty reference strings become null, blank text fields become null, and
// required fields are checked. This is the single sanitization step for
// every pass write.
func NormalizeForWrite(in PassInput) (*ClinicalPass, error) {
	var v httperr.Validator

	if strings.TrimSpace(in.PacienteID) == "" {
		v.Require("paciente_id", "el paciente es obligatorio")
	}
	if strings.TrimSpace(in.Principal) == "" {
		v.Require("principal", "el diagnóstico principal es obligatorio")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	pacienteID, err := uuid.Parse(in.PacienteID)
	if err != nil {
		return nil, httperr.NewValidation("paciente_id", "identificador inválido")
	}

	p := &ClinicalPass{
		PacienteID:   pacienteID,
		Principal:    strings.TrimSpace(in.Principal),
		Antecedentes: optText(in.Antecedentes),
		Actualmente:  optText(in.Actualmente),
		Pendientes:   optText(in.Pendientes),
		GcsRass:      optText(in.GcsRass),
		Atb:          optText(in.Atb),
		VcCook:       optText(in.VcCook),
	}

	p.MedicoID, err = optRef(in.MedicoID)
	if err != nil {
		return nil, httperr.NewValidation("medico_id", "identificador inválido")
	}
	p.CultivosID, err = optRef(in.CultivosID)
	if err != nil {
		return nil, httperr.NewValidation("cultivos_id", "identificador inválido")
	}

	return p, nil
}

// optRef turns an empty or nil-UUID string into a null reference.
func optRef(s string) (*uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, nil
	}
	return &id, nil
}

func optText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Latest returns the most recent pass by fecha_creacion, or nil for an
// empty slice. The most recent pass is the patient's current clinical
// summary.
func Latest(passes []*ClinicalPass) *ClinicalPass {
	if len(passes) == 0 {
		return nil
	}
	latest := passes[0]
	for _, p := range passes[1:] {
		if p.FechaCreacion.After(latest.FechaCreacion) {
			latest = p
		}
	}
	return latest
}

// ExportRow is one line of the pass roster: a pass joined with its
// patient's display name, for tabular rendering and export.
type ExportRow struct {
	Paciente      string    `json:"paciente"`
	Principal     string    `json:"principal"`
	Antecedentes  string    `json:"antecedentes"`
	GcsRass       string    `json:"gcs_rass"`
	Atb           string    `json:"atb"`
	VcCook        string    `json:"vc_cook"`
	Actualmente   string    `json:"actualmente"`
	Pendientes    string    `json:"pendientes"`
	FechaCreacion time.Time `json:"fecha_creacion"`
}

// SortExportRows orders rows by creation time ascending so the roster reads
// in stable creation order.
func SortExportRows(rows []ExportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].FechaCreacion.Before(rows[j].FechaCreacion)
	})
}

// Truncate shortens a free-text field for compact roster variants.
func Truncate(s string, max int) string {
	if max <= 0 || len([]rune(s)) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}
