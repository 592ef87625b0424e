package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRequestTimeout_CompletesWithinDeadline(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/notes", nil), httptest.NewRecorder())

	var hasDeadline bool
	handler := func(c echo.Context) error {
		_, hasDeadline = c.Request().Context().Deadline()
		return c.String(http.StatusOK, "ok")
	}

	if err := RequestTimeout(5 * time.Second)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasDeadline {
		t.Error("expected request context to carry a deadline")
	}
}

func TestRequestTimeout_MapsDeadlineTo504(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/notes", nil), httptest.NewRecorder())

	handler := func(c echo.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return c.String(http.StatusOK, "ok")
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
	}

	err := RequestTimeout(20 * time.Millisecond)(handler)(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %v", err)
	}
}

func TestRequestTimeout_PassesOtherErrors(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/notes", nil), httptest.NewRecorder())
	want := echo.NewHTTPError(http.StatusNotFound, "Note not found")

	err := RequestTimeout(time.Second)(func(echo.Context) error { return want })(c)
	if err != want {
		t.Fatalf("got %v, want %v", err, want)
	}
}

func TestRequestTimeout_ZeroDisables(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/notes", nil), httptest.NewRecorder())

	err := RequestTimeout(0)(func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			t.Error("unexpected deadline")
		}
		return nil
	})(c)
	if err != nil {
		t.Fatal(err)
	}
}
