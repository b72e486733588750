package patientview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/uci-core/uci-server/internal/domain/census"
	"github.com/uci-core/uci-server/internal/domain/handoff"
	"github.com/uci-core/uci-server/internal/domain/labs"
	"github.com/uci-core/uci-server/internal/platform/httperr"
)

type fixture struct {
	patient *census.Patient
	bed     *census.Bed
	pass    *handoff.ClinicalPass
	culture *labs.Culture

	bedErr     error
	passErr    error
	cultureErr error
}

func (f *fixture) GetPatient(_ context.Context, id uuid.UUID) (*census.Patient, error) {
	if f.patient == nil || f.patient.ID != id {
		return nil, httperr.NotFound("paciente", id)
	}
	return f.patient, nil
}

func (f *fixture) GetBed(_ context.Context, id uuid.UUID) (*census.Bed, error) {
	if f.bedErr != nil {
		return nil, f.bedErr
	}
	if f.bed == nil || f.bed.ID != id {
		return nil, httperr.NotFound("cama", id)
	}
	return f.bed, nil
}

func (f *fixture) LatestPass(_ context.Context, _ uuid.UUID) (*handoff.ClinicalPass, error) {
	return f.pass, f.passErr
}

func (f *fixture) LatestCulture(_ context.Context, _ uuid.UUID) (*labs.Culture, error) {
	return f.culture, f.cultureErr
}

func newFixture() (*Service, *fixture) {
	f := &fixture{}
	return NewService(f, f, f, f), f
}

func TestDetailFullAggregation(t *testing.T) {
	svc, f := newFixture()

	bed := &census.Bed{ID: uuid.New(), Cama: 3, Disponible: false}
	f.bed = bed
	f.patient = &census.Patient{
		ID:     uuid.New(),
		Nombre: "Juan", Apellido: "Pérez",
		CamaID: &bed.ID,
		Activo: true,
	}
	f.pass = &handoff.ClinicalPass{
		ID:            uuid.New(),
		PacienteID:    f.patient.ID,
		Principal:     "shock séptico",
		FechaCreacion: time.Now(),
	}
	f.culture = &labs.Culture{ID: uuid.New(), PacienteID: f.patient.ID, Estado: labs.EstadoPendiente}

	d, err := svc.Detail(context.Background(), f.patient.ID)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if d.Patient.ID != f.patient.ID {
		t.Error("patient mismatch")
	}
	if d.Bed == nil || d.Bed.Cama != 3 {
		t.Error("bed should be aggregated")
	}
	if d.LatestPass == nil || d.LatestPass.Principal != "shock séptico" {
		t.Error("latest pass should be aggregated")
	}
	if d.LatestCulture == nil {
		t.Error("latest culture should be aggregated")
	}
}

func TestDetailUnknownPatient(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.Detail(context.Background(), uuid.New())
	if !errors.Is(err, httperr.ErrNotFound) {
		t.Fatalf("expected not found for unknown patient, got %v", err)
	}
}

// Missing pieces degrade to absent fields instead of failing the view.
func TestDetailDegradesMissingPieces(t *testing.T) {
	svc, f := newFixture()

	missingBed := uuid.New()
	f.patient = &census.Patient{
		ID:     uuid.New(),
		Nombre: "Ana", Apellido: "García",
		CamaID: &missingBed,
		Activo: true,
	}

	d, err := svc.Detail(context.Background(), f.patient.ID)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if d.Bed != nil {
		t.Error("unresolvable bed should degrade to absent")
	}
	if d.LatestPass != nil || d.LatestCulture != nil {
		t.Error("patient without passes or cultures should have absent fields")
	}
}

func TestDetailPropagatesReaderErrors(t *testing.T) {
	svc, f := newFixture()

	f.patient = &census.Patient{ID: uuid.New(), Nombre: "Eva", Apellido: "Ruiz", Activo: true}
	f.passErr = errors.New("store unavailable")

	if _, err := svc.Detail(context.Background(), f.patient.ID); err == nil {
		t.Fatal("transport errors must not be swallowed")
	}
}
