package labs

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/uci-core/uci-server/internal/platform/httperr"
)

var testNow = time.Date(2025, 8, 20, 14, 30, 0, 0, time.UTC)

func validInput() CultureInput {
	return CultureInput{
		PacienteID:     uuid.New().String(),
		Nombre:         "hemocultivo",
		FechaSolicitud: "2025-08-18",
	}
}

func TestNormalizeForWritePendingByDefault(t *testing.T) {
	c, err := NormalizeForWrite(validInput(), testNow)
	if err != nil {
		t.Fatalf("NormalizeForWrite failed: %v", err)
	}
	if c.Estado != EstadoPendiente {
		t.Errorf("culture without result should be pendiente, got %q", c.Estado)
	}
	if c.FechaRecibido != nil {
		t.Error("culture without result should have null fecha_recibido")
	}
	if !c.Activo {
		t.Error("new culture should be active")
	}
	if !c.Pending() {
		t.Error("Pending should report true")
	}
}

func TestNormalizeForWriteResultRequiresEstado(t *testing.T) {
	in := validInput()
	in.Resultado = "E. coli"
	_, err := NormalizeForWrite(in, testNow)
	var ve *httperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("result without terminal estado should be rejected, got %v", err)
	}

	in.Estado = EstadoPendiente
	if _, err := NormalizeForWrite(in, testNow); !errors.As(err, &ve) {
		t.Fatalf("pendiente is not a valid estado for a resulted culture, got %v", err)
	}
}

func TestNormalizeForWriteAutoPopulatesReceivedDate(t *testing.T) {
	in := validInput()
	in.Resultado = "E. coli"
	in.Estado = EstadoPositivo

	c, err := NormalizeForWrite(in, testNow)
	if err != nil {
		t.Fatalf("NormalizeForWrite failed: %v", err)
	}
	if c.FechaRecibido == nil {
		t.Fatal("fecha_recibido should be auto-populated")
	}
	if c.FechaRecibido.Format("2006-01-02") != "2025-08-20" {
		t.Errorf("expected today's date, got %s", c.FechaRecibido)
	}
	if c.Estado != EstadoPositivo {
		t.Errorf("estado should be positivo, got %q", c.Estado)
	}
	if c.Pending() {
		t.Error("resulted culture should not be pending")
	}
}

// The auto-populated date is the calendar day where the server runs, so
// an evening entry west of UTC must not land on tomorrow.
func TestNormalizeForWriteReceivedDateUsesLocalDay(t *testing.T) {
	in := validInput()
	in.Resultado = "E. coli"
	in.Estado = EstadoPositivo

	evening := time.Date(2025, 8, 20, 23, 0, 0, 0, time.FixedZone("ART", -3*60*60))
	c, err := NormalizeForWrite(in, evening)
	if err != nil {
		t.Fatalf("NormalizeForWrite failed: %v", err)
	}
	if got := c.FechaRecibido.Format("2006-01-02"); got != "2025-08-20" {
		t.Errorf("expected the local calendar day, got %s", got)
	}
}

func TestNormalizeForWriteExplicitReceivedDate(t *testing.T) {
	in := validInput()
	in.Resultado = "sin desarrollo"
	in.Estado = EstadoNegativo
	in.FechaRecibido = "2025-08-19"

	c, err := NormalizeForWrite(in, testNow)
	if err != nil {
		t.Fatalf("NormalizeForWrite failed: %v", err)
	}
	if c.FechaRecibido.Format("2006-01-02") != "2025-08-19" {
		t.Errorf("explicit fecha_recibido should win, got %s", c.FechaRecibido)
	}
}

// Clearing the result moves the culture back to pending, whatever was
// submitted for estado or fecha_recibido.
func TestNormalizeForWriteClearsStateWithoutResult(t *testing.T) {
	in := validInput()
	in.Resultado = ""
	in.Estado = EstadoPositivo
	in.FechaRecibido = "2025-08-19"

	c, err := NormalizeForWrite(in, testNow)
	if err != nil {
		t.Fatalf("NormalizeForWrite failed: %v", err)
	}
	if c.Estado != EstadoPendiente {
		t.Errorf("estado should be forced to pendiente, got %q", c.Estado)
	}
	if c.FechaRecibido != nil {
		t.Error("fecha_recibido should be forced to null")
	}
}

func TestNormalizeForWriteRejectsUnknownType(t *testing.T) {
	in := validInput()
	in.Nombre = "coprocultivo"
	_, err := NormalizeForWrite(in, testNow)
	var ve *httperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("unknown culture type should be rejected, got %v", err)
	}
}

func TestNormalizeForWriteRequiredFields(t *testing.T) {
	_, err := NormalizeForWrite(CultureInput{}, testNow)
	var ve *httperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"paciente_id", "nombre", "fecha_solicitud"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Errorf("%s should be flagged, got %v", field, ve.Fields)
		}
	}
}

// Pending cultures (null fecha_recibido) sort before resulted ones.
func TestLatestNullsFirst(t *testing.T) {
	received := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	pending := &Culture{ID: uuid.New(), Estado: EstadoPendiente}
	resulted := &Culture{ID: uuid.New(), Estado: EstadoPositivo, FechaRecibido: &received}

	got := Latest([]*Culture{resulted, pending})
	if got == nil || got.ID != pending.ID {
		t.Fatalf("pending culture should surface first, got %+v", got)
	}

	later := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	newer := &Culture{ID: uuid.New(), Estado: EstadoNegativo, FechaRecibido: &later}
	got = Latest([]*Culture{resulted, newer})
	if got == nil || got.ID != newer.ID {
		t.Fatalf("later received date should win among resulted cultures, got %+v", got)
	}

	if Latest(nil) != nil {
		t.Error("Latest of empty slice should be nil")
	}
}

func TestPendingRegardlessOfActivo(t *testing.T) {
	c := &Culture{Estado: "", Activo: false}
	if !c.Pending() {
		t.Error("absent estado should render pending even when soft-deleted")
	}
}
