package handoff

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/uci-core/uci-server/internal/platform/export"
	"github.com/uci-core/uci-server/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/pases", h.ListPasses)
	g.POST("/pases", h.CreatePass)
	g.GET("/pases/export", h.ExportPasses)
	g.GET("/pases/:id", h.GetPass)
	g.PUT("/pases/:id", h.UpdatePass)
	g.GET("/pacientes/:id/pases", h.ListByPatient)
}

func (h *Handler) ListPasses(c echo.Context) error {
	pg := pagination.FromContext(c)

	var f Filter
	if raw := c.QueryParam("paciente_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid paciente_id")
		}
		f.PacienteID = &id
	}
	if raw := c.QueryParam("fecha"); raw != "" {
		fecha, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid fecha, expected YYYY-MM-DD")
		}
		f.Fecha = &fecha
	}

	passes, total, err := h.svc.ListPasses(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(passes, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPass(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPass(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreatePass(c echo.Context) error {
	var in PassInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.CreatePass(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdatePass(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in PassInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdatePass(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	passes, err := h.svc.ListByPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, passes)
}

// ExportPasses streams the day's pass roster as an xlsx workbook. The
// fecha query param selects the day; it defaults to today.
func (h *Handler) ExportPasses(c echo.Context) error {
	fecha := time.Now()
	if raw := c.QueryParam("fecha"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid fecha, expected YYYY-MM-DD")
		}
		fecha = parsed
	}

	rows, err := h.svc.ExportRoster(c.Request().Context(), fecha)
	if err != nil {
		return err
	}

	sheet := export.Sheet{
		Name: "Pases",
		Columns: []export.Column{
			{Header: "Paciente", Width: 28},
			{Header: "Diagnóstico principal", Width: 32},
			{Header: "Antecedentes", Width: 32},
			{Header: "GCS/RASS", Width: 14},
			{Header: "ATB", Width: 24},
			{Header: "VC/Cook", Width: 14},
			{Header: "Actualmente", Width: 40},
			{Header: "Pendientes", Width: 40},
			{Header: "Fecha", Width: 18},
		},
	}
	for _, r := range rows {
		sheet.Rows = append(sheet.Rows, []string{
			r.Paciente, r.Principal, r.Antecedentes, r.GcsRass, r.Atb,
			r.VcCook, r.Actualmente, r.Pendientes, export.FormatFecha(r.FechaCreacion),
		})
	}

	filename := fmt.Sprintf("pases_%s.xlsx", fecha.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)

	return export.WriteXLSX(c.Response(), sheet)
}
