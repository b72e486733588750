package httperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestNotFoundWrapsSentinel(t *testing.T) {
	err := NotFound("paciente", "abc")
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("NotFound should wrap ErrNotFound")
	}
}

func TestValidatorAccumulates(t *testing.T) {
	var v Validator
	if v.Err() != nil {
		t.Fatal("empty validator should yield nil")
	}
	v.Require("nombre", "obligatorio")
	v.Require("apellido", "obligatorio")

	err := v.Err()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Errorf("expected 2 fields, got %v", ve.Fields)
	}
}

func handle(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	ErrorHandler(zerolog.Nop())(err, c)
	return rec
}

func TestErrorHandlerStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", NotFound("cama", "x"), http.StatusNotFound},
		{"validation", NewValidation("nombre", "obligatorio"), http.StatusUnprocessableEntity},
		{"conflict", Conflict("la cama %d está ocupada", 3), http.StatusConflict},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid id"), http.StatusBadRequest},
		{"unknown", errors.New("pool exhausted"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := handle(t, tt.err)
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}

func TestErrorHandlerValidationBody(t *testing.T) {
	rec := handle(t, NewValidation("nombre", "el nombre es obligatorio"))

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Fields["nombre"] != "el nombre es obligatorio" {
		t.Errorf("field message missing, got %v", body.Fields)
	}
}

func TestErrorHandlerHidesInternalDetail(t *testing.T) {
	rec := handle(t, errors.New("dial tcp: connection refused"))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["error"] != "internal server error" {
		t.Errorf("internal detail must not leak, got %q", body["error"])
	}
}
