package labs

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uci-core/uci-server/internal/platform/httperr"
)

// Culture estados. Pendiente is the ordering state; the other two are
// terminal result states.
const (
	EstadoPendiente = "pendiente"
	EstadoPositivo  = "positivo"
	EstadoNegativo  = "negativo"
)

// CultureTypes is the closed set of accepted test types.
var CultureTypes = []string{
	"hemocultivo",
	"urocultivo",
	"minibal",
	"lcr",
	"retrocultivo",
	"purulento",
}

func ValidCultureType(nombre string) bool {
	for _, t := range CultureTypes {
		if t == nombre {
			return true
		}
	}
	return false
}

// Culture maps to the cultivos table: a lab test order and its eventual
// result. Rows are soft-deleted by flipping activo, never removed.
//
// Invariants held by NormalizeForWrite: estado is pendiente exactly when
// fecha_recibido is null, and a non-empty resultado requires a received
// date and a terminal estado.
type Culture struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PacienteID     uuid.UUID  `db:"paciente_id" json:"paciente_id"`
	Nombre         string     `db:"nombre" json:"nombre"`
	FechaSolicitud time.Time  `db:"fecha_solicitud" json:"fecha_solicitud"`
	FechaRecibido  *time.Time `db:"fecha_recibido" json:"fecha_recibido,omitempty"`
	Resultado      *string    `db:"resultado" json:"resultado,omitempty"`
	Estado         string     `db:"estado" json:"estado"`
	Activo         bool       `db:"activo" json:"activo"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Pending reports whether the culture renders as pending. An absent
// estado counts as pending; activo does not affect this.
func (c *Culture) Pending() bool {
	return c.Estado == "" || c.Estado == EstadoPendiente
}

// CultureInput is the loosely-typed write payload. Dates arrive as
// YYYY-MM-DD strings and may be empty.
type CultureInput struct {
	PacienteID     string `json:"paciente_id"`
	Nombre         string `json:"nombre"`
	FechaSolicitud string `json:"fecha_solicitud"`
	FechaRecibido  string `json:"fecha_recibido"`
	Resultado      string `json:"resultado"`
	Estado         string `json:"estado"`
}

const dateLayout = "2006-01-02"

// NormalizeForWrite sanitizes a culture payload into a persistable row,
// enforcing the estado/fecha_recibido coupling:
//
//   - with a non-empty resultado, estado must be a terminal state and
//     fecha_recibido defaults to today when the form omits it;
//   - without a resultado, estado is forced to pendiente and
//     fecha_recibido to null regardless of what was submitted. Clearing
//     a result therefore moves a resulted culture back to pending.
func NormalizeForWrite(in CultureInput, now time.Time) (*Culture, error) {
	var v httperr.Validator
	if strings.TrimSpace(in.PacienteID) == "" {
		v.Require("paciente_id", "el paciente es obligatorio")
	}
	nombre := strings.TrimSpace(in.Nombre)
	if nombre == "" {
		v.Require("nombre", "el tipo de cultivo es obligatorio")
	} else if !ValidCultureType(nombre) {
		v.Require("nombre", "tipo de cultivo desconocido: "+nombre)
	}
	if strings.TrimSpace(in.FechaSolicitud) == "" {
		v.Require("fecha_solicitud", "la fecha de solicitud es obligatoria")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	pacienteID, err := uuid.Parse(strings.TrimSpace(in.PacienteID))
	if err != nil {
		return nil, httperr.NewValidation("paciente_id", "identificador inválido")
	}
	solicitud, err := time.Parse(dateLayout, strings.TrimSpace(in.FechaSolicitud))
	if err != nil {
		return nil, httperr.NewValidation("fecha_solicitud", "fecha inválida, se espera AAAA-MM-DD")
	}

	c := &Culture{
		PacienteID:     pacienteID,
		Nombre:         nombre,
		FechaSolicitud: solicitud,
		Estado:         EstadoPendiente,
		Activo:         true,
	}

	resultado := strings.TrimSpace(in.Resultado)
	if resultado == "" {
		return c, nil
	}

	c.Resultado = &resultado
	switch in.Estado {
	case EstadoPositivo, EstadoNegativo:
		c.Estado = in.Estado
	default:
		return nil, httperr.NewValidation("estado",
			"un resultado cargado requiere estado positivo o negativo")
	}

	// The default is today's calendar date in the server's location, not
	// a UTC epoch-day, so evening entries do not land on tomorrow.
	recibido := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if raw := strings.TrimSpace(in.FechaRecibido); raw != "" {
		recibido, err = time.Parse(dateLayout, raw)
		if err != nil {
			return nil, httperr.NewValidation("fecha_recibido", "fecha inválida, se espera AAAA-MM-DD")
		}
	}
	c.FechaRecibido = &recibido

	return c, nil
}

// Latest picks the patient's current culture: descending by
// fecha_recibido with nulls first, so pending cultures surface before
// resulted ones. Returns nil for an empty slice.
func Latest(cultures []*Culture) *Culture {
	if len(cultures) == 0 {
		return nil
	}
	latest := cultures[0]
	for _, c := range cultures[1:] {
		if before(latest, c) {
			latest = c
		}
	}
	return latest
}

// before reports whether a sorts after b in the latest-first order.
func before(a, b *Culture) bool {
	switch {
	case a.FechaRecibido == nil:
		return false
	case b.FechaRecibido == nil:
		return true
	default:
		return a.FechaRecibido.Before(*b.FechaRecibido)
	}
}

// ListEntry is one row of the culture list view: a culture joined with
// its patient's display name and current bed number. Pendiente carries
// the Pending rendering rule so clients do not re-derive it from estado.
type ListEntry struct {
	Culture
	Paciente  string `json:"paciente"`
	Cama      *int   `json:"cama,omitempty"`
	Pendiente bool   `json:"pendiente"`
}
