package labs

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/uci-core/uci-server/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/cultivos", h.ListCultures)
	g.POST("/cultivos", h.CreateCulture)
	g.GET("/cultivos/vista", h.ListView)
	g.GET("/cultivos/:id", h.GetCulture)
	g.PUT("/cultivos/:id", h.UpdateCulture)
	g.DELETE("/cultivos/:id", h.DeleteCulture)
}

func bindFilter(c echo.Context) (Filter, error) {
	var f Filter
	if raw := c.QueryParam("paciente_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid paciente_id")
		}
		f.PacienteID = &id
	}
	if raw := c.QueryParam("fecha"); raw != "" {
		fecha, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid fecha, expected YYYY-MM-DD")
		}
		f.Fecha = &fecha
	}
	return f, nil
}

func (h *Handler) ListCultures(c echo.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	cultures, total, err := h.svc.ListCultures(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(cultures, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListView(c echo.Context) error {
	f, err := bindFilter(c)
	if err != nil {
		return err
	}
	entries, err := h.svc.ListView(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) GetCulture(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	culture, err := h.svc.GetCulture(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, culture)
}

func (h *Handler) CreateCulture(c echo.Context) error {
	var in CultureInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	culture, err := h.svc.CreateCulture(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, culture)
}

func (h *Handler) UpdateCulture(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in CultureInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	culture, err := h.svc.UpdateCulture(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, culture)
}

func (h *Handler) DeleteCulture(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteCulture(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
