package staff

import (
	"time"

	"github.com/google/uuid"
)

// Physician maps to the medicos table.
type Physician struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Nombre    string     `db:"nombre" json:"nombre"`
	Apellido  string     `db:"apellido" json:"apellido"`
	RolID     *uuid.UUID `db:"rol_id" json:"rol_id,omitempty"`
	Activo    bool       `db:"activo" json:"activo"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// NombreCompleto returns the display name used on lists and exports.
func (p *Physician) NombreCompleto() string {
	return p.Apellido + ", " + p.Nombre
}

// Role maps to the roles table. Reference data, rarely mutated.
type Role struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TipoRol   string    `db:"tipo_rol" json:"tipo_rol"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
