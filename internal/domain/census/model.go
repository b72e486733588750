package census

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the pacientes table. A patient is created on admission and
// never physically deleted; discharge flips Activo and stamps FechaAlta.
type Patient struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Nombre        string     `db:"nombre" json:"nombre"`
	Apellido      string     `db:"apellido" json:"apellido"`
	CamaID        *uuid.UUID `db:"cama_id" json:"cama_id,omitempty"`
	MotivoIngreso string     `db:"motivo_ingreso" json:"motivo_ingreso"`
	FechaIngreso  time.Time  `db:"fecha_ingreso" json:"fecha_ingreso"`
	FechaAlta     *time.Time `db:"fecha_alta" json:"fecha_alta,omitempty"`
	MotivoEgreso  *string    `db:"motivo_egreso" json:"motivo_egreso,omitempty"`
	DetalleEgreso *string    `db:"detalle_egreso" json:"detalle_egreso,omitempty"`
	Activo        bool       `db:"activo" json:"activo"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// NombreCompleto returns the display name used on lists and exports.
func (p *Patient) NombreCompleto() string {
	return p.Apellido + ", " + p.Nombre
}

// Bed maps to the camas table. Beds are pre-provisioned; end users only
// assign and release them.
type Bed struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Cama            int        `db:"cama" json:"cama"`
	Disponible      bool       `db:"disponible" json:"disponible"`
	FechaAsignacion *time.Time `db:"fecha_asignacion" json:"fecha_asignacion,omitempty"`
	FechaLiberacion *time.Time `db:"fecha_liberacion" json:"fecha_liberacion,omitempty"`
}

// DischargeReason is the closed set of reasons a patient leaves the unit.
type DischargeReason string

const (
	AltaHospitalaria DischargeReason = "alta_hospitalaria"
	AltaServicio     DischargeReason = "alta_servicio"
	Derivacion       DischargeReason = "derivacion"
	Obito            DischargeReason = "obito"
)

func (r DischargeReason) Valid() bool {
	switch r {
	case AltaHospitalaria, AltaServicio, Derivacion, Obito:
		return true
	}
	return false
}

// DischargeRequest is the payload of the "move patient" action.
type DischargeRequest struct {
	Motivo  DischargeReason `json:"motivo"`
	Detalle string          `json:"detalle"`
}

// Bed occupancy states as rendered on the census board.
const (
	EstadoDisponible = "Disponible"
	EstadoOcupada    = "Ocupada"
)

// OccupancyEntry is one row of the bed occupancy view: a bed joined with the
// single active patient occupying it, if any.
type OccupancyEntry struct {
	Cama     Bed      `json:"cama"`
	Paciente *Patient `json:"paciente,omitempty"`
	Estado   string   `json:"estado"`
}

// BuildOccupancy left-joins beds with their active patient and returns the
// rows in stable bed-number order. At most one active patient references a
// bed; the write path enforces that, so a duplicate here keeps the first
// match.
func BuildOccupancy(beds []*Bed, activePatients []*Patient) []OccupancyEntry {
	byBed := make(map[uuid.UUID]*Patient, len(activePatients))
	for _, p := range activePatients {
		if p.CamaID == nil || !p.Activo {
			continue
		}
		if _, ok := byBed[*p.CamaID]; !ok {
			byBed[*p.CamaID] = p
		}
	}

	entries := make([]OccupancyEntry, 0, len(beds))
	for _, b := range beds {
		entry := OccupancyEntry{Cama: *b, Estado: EstadoDisponible}
		if p, ok := byBed[b.ID]; ok {
			entry.Paciente = p
			entry.Estado = EstadoOcupada
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Cama.Cama < entries[j].Cama.Cama
	})
	return entries
}
