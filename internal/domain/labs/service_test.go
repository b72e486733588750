package labs

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/uci-core/uci-server/internal/platform/httperr"
	"github.com/uci-core/uci-server/internal/platform/listcache"
)

type mockCultureRepo struct {
	cultures map[uuid.UUID]*Culture
	views    []ListEntry
}

func newMockCultureRepo() *mockCultureRepo {
	return &mockCultureRepo{cultures: make(map[uuid.UUID]*Culture)}
}

func (m *mockCultureRepo) Create(_ context.Context, c *Culture) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	cp := *c
	m.cultures[c.ID] = &cp
	return nil
}

func (m *mockCultureRepo) GetByID(_ context.Context, id uuid.UUID) (*Culture, error) {
	c, ok := m.cultures[id]
	if !ok {
		return nil, httperr.NotFound("cultivo", id)
	}
	cp := *c
	return &cp, nil
}

func (m *mockCultureRepo) Update(_ context.Context, c *Culture) error {
	if _, ok := m.cultures[c.ID]; !ok {
		return httperr.NotFound("cultivo", c.ID)
	}
	c.UpdatedAt = time.Now()
	cp := *c
	m.cultures[c.ID] = &cp
	return nil
}

func (m *mockCultureRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	c, ok := m.cultures[id]
	if !ok || !c.Activo {
		return httperr.NotFound("cultivo", id)
	}
	c.Activo = false
	return nil
}

func (m *mockCultureRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Culture, int, error) {
	var out []*Culture
	for _, c := range m.cultures {
		if !c.Activo {
			continue
		}
		if f.PacienteID != nil && c.PacienteID != *f.PacienteID {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockCultureRepo) ListActiveByPatient(_ context.Context, patientID uuid.UUID) ([]*Culture, error) {
	var out []*Culture
	for _, c := range m.cultures {
		if c.Activo && c.PacienteID == patientID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return !before(out[i], out[j]) })
	return out, nil
}

func (m *mockCultureRepo) ListView(_ context.Context, f Filter) ([]ListEntry, error) {
	return m.views, nil
}

func newTestService() (*Service, *mockCultureRepo) {
	repo := newMockCultureRepo()
	cache := listcache.New(listcache.NewMemory(), time.Minute)
	svc := NewService(repo, cache)
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

// Create without a result, then record one: the round-trip the form
// relies on.
func TestCultureResultRoundTrip(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	in := validInput()
	c, err := svc.CreateCulture(ctx, in)
	if err != nil {
		t.Fatalf("CreateCulture failed: %v", err)
	}
	if c.Estado != EstadoPendiente || c.FechaRecibido != nil {
		t.Fatal("fresh culture should be pending with null fecha_recibido")
	}

	in.Resultado = "E. coli"
	in.Estado = EstadoPositivo
	updated, err := svc.UpdateCulture(ctx, c.ID, in)
	if err != nil {
		t.Fatalf("UpdateCulture failed: %v", err)
	}
	if updated.FechaRecibido == nil {
		t.Fatal("recording a result should auto-populate fecha_recibido")
	}
	if updated.FechaRecibido.Format("2006-01-02") != testNow.Format("2006-01-02") {
		t.Errorf("expected today's date, got %s", updated.FechaRecibido)
	}

	// Clearing the result moves the row back to pending.
	in.Resultado = ""
	in.Estado = ""
	reverted, err := svc.UpdateCulture(ctx, c.ID, in)
	if err != nil {
		t.Fatalf("UpdateCulture failed: %v", err)
	}
	if reverted.Estado != EstadoPendiente || reverted.FechaRecibido != nil {
		t.Error("cleared result should revert the culture to pending")
	}

	stored := repo.cultures[c.ID]
	if !stored.Activo {
		t.Error("updates must not change the soft-delete flag")
	}
}

func TestUpdateCultureRejectsResultWithoutEstado(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	c, err := svc.CreateCulture(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateCulture failed: %v", err)
	}

	in := validInput()
	in.Resultado = "E. coli"
	_, err = svc.UpdateCulture(ctx, c.ID, in)
	var ve *httperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("result without estado should be rejected, got %v", err)
	}
}

func TestDeleteCultureTwice(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	c, err := svc.CreateCulture(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateCulture failed: %v", err)
	}
	if err := svc.DeleteCulture(ctx, c.ID); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if repo.cultures[c.ID].Activo {
		t.Error("delete should flip activo to false, not remove the row")
	}
	if err := svc.DeleteCulture(ctx, c.ID); !errors.Is(err, httperr.ErrNotFound) {
		t.Fatalf("second delete should report not found, got %v", err)
	}
}

func TestLatestForPatientPrefersPending(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	pacienteID := uuid.New()

	received := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	resulted := &Culture{
		ID: uuid.New(), PacienteID: pacienteID, Nombre: "urocultivo",
		Estado: EstadoPositivo, FechaRecibido: &received, Activo: true,
	}
	pending := &Culture{
		ID: uuid.New(), PacienteID: pacienteID, Nombre: "hemocultivo",
		Estado: EstadoPendiente, Activo: true,
	}
	repo.cultures[resulted.ID] = resulted
	repo.cultures[pending.ID] = pending

	got, err := svc.LatestForPatient(ctx, pacienteID)
	if err != nil {
		t.Fatalf("LatestForPatient failed: %v", err)
	}
	if got == nil || got.ID != pending.ID {
		t.Fatalf("pending culture should surface first, got %+v", got)
	}
}

// The view flags each row with the pending rendering rule so clients do
// not re-derive it from estado.
func TestListViewFlagsPendingRows(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	repo.views = []ListEntry{
		{Culture: Culture{Estado: EstadoPendiente}, Paciente: "Pérez, Juan"},
		{Culture: Culture{Estado: ""}, Paciente: "García, Ana"},
		{Culture: Culture{Estado: EstadoPositivo}, Paciente: "Soto, Luis"},
	}

	entries, err := svc.ListView(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListView failed: %v", err)
	}
	if !entries[0].Pendiente || !entries[1].Pendiente {
		t.Error("pendiente and absent estados should flag as pending")
	}
	if entries[2].Pendiente {
		t.Error("resulted culture should not flag as pending")
	}
}

// Identical filters with no intervening mutation must yield identical
// ordered output; a mutation must refresh the view.
func TestListViewIdempotentAndInvalidated(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	cama := 1
	repo.views = []ListEntry{{Paciente: "Pérez, Juan", Cama: &cama}}

	first, err := svc.ListView(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListView failed: %v", err)
	}
	repo.views = append(repo.views, ListEntry{Paciente: "Soto, Luis"})

	// Cached: the repo change is not visible without a mutation.
	second, err := svc.ListView(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListView failed: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("unmutated view should be served from cache: %d vs %d", len(second), len(first))
	}

	if _, err := svc.CreateCulture(ctx, validInput()); err != nil {
		t.Fatalf("CreateCulture failed: %v", err)
	}
	third, err := svc.ListView(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListView failed: %v", err)
	}
	if len(third) != 2 {
		t.Fatalf("mutation should invalidate the cached view, got %d entries", len(third))
	}
}
