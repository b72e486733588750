package census

import (
	"testing"

	"github.com/google/uuid"
)

func TestBuildOccupancy(t *testing.T) {
	bed1 := &Bed{ID: uuid.New(), Cama: 1, Disponible: false}
	bed2 := &Bed{ID: uuid.New(), Cama: 2, Disponible: true}
	bed3 := &Bed{ID: uuid.New(), Cama: 3, Disponible: false}

	p1 := &Patient{ID: uuid.New(), Nombre: "Ana", Apellido: "García", CamaID: &bed1.ID, Activo: true}
	p3 := &Patient{ID: uuid.New(), Nombre: "Luis", Apellido: "Soto", CamaID: &bed3.ID, Activo: true}
	inactive := &Patient{ID: uuid.New(), Nombre: "Eva", Apellido: "Ruiz", CamaID: &bed2.ID, Activo: false}

	// Deliberately unordered input.
	entries := BuildOccupancy([]*Bed{bed3, bed1, bed2}, []*Patient{p3, p1, inactive})

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []int{1, 2, 3} {
		if entries[i].Cama.Cama != want {
			t.Errorf("entry %d: expected bed %d, got %d", i, want, entries[i].Cama.Cama)
		}
	}

	if entries[0].Estado != EstadoOcupada || entries[0].Paciente == nil {
		t.Error("bed 1 should be occupied by its active patient")
	}
	if entries[1].Estado != EstadoDisponible || entries[1].Paciente != nil {
		t.Error("bed 2 should be available: inactive patients do not occupy beds")
	}
	if entries[2].Estado != EstadoOcupada || entries[2].Paciente.ID != p3.ID {
		t.Error("bed 3 should be occupied by p3")
	}
}

func TestBuildOccupancyEmpty(t *testing.T) {
	entries := BuildOccupancy(nil, nil)
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestDischargeReasonValid(t *testing.T) {
	for _, r := range []DischargeReason{AltaHospitalaria, AltaServicio, Derivacion, Obito} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if DischargeReason("fuga").Valid() {
		t.Error("unknown reason should be invalid")
	}
	if DischargeReason("").Valid() {
		t.Error("empty reason should be invalid")
	}
}

func TestNombreCompleto(t *testing.T) {
	p := &Patient{Nombre: "Juan", Apellido: "Pérez"}
	if got := p.NombreCompleto(); got != "Pérez, Juan" {
		t.Errorf("expected %q, got %q", "Pérez, Juan", got)
	}
}
