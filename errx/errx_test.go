package errx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testErrors  = NewRegistry("TEST")
	errNotFound = testErrors.Register("NOT_FOUND", TypeNotFound, http.StatusNotFound, "Thing not found")
)

func TestRegistry_New(t *testing.T) {
	err := testErrors.New(errNotFound)

	assert.Equal(t, Code("TEST_NOT_FOUND"), err.Code)
	assert.Equal(t, TypeNotFound, err.Type)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)

	err.WithDetail("id", "42")
	fresh := testErrors.New(errNotFound)
	assert.Nil(t, fresh.Details, "definitions must not share details")
}

func TestRegistry_UnknownCode(t *testing.T) {
	err := testErrors.New("NOPE")
	assert.Equal(t, Code("UNKNOWN_ERROR"), err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
}

func TestIsCodeThroughWrapping(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", testErrors.NewWithCause(errNotFound, cause))

	assert.True(t, IsCode(err, errNotFound))
	assert.True(t, IsType(err, TypeNotFound))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, testErrors.New(errNotFound)))
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestStatusOf_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("x")))
}

func TestPrint(t *testing.T) {
	err := testErrors.New(errNotFound).WithDetail("b", 2).WithDetail("a", 1)
	assert.Equal(t,
		"Error: [NOT_FOUND] TEST_NOT_FOUND: Thing not found, Details: {a: 1, b: 2}, HTTP Status: 404",
		Print(err))
	assert.Equal(t, "nil", Print(nil))
	assert.Equal(t, "Error: plain", Print(errors.New("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x", TypeInternal))

	w := Wrap(errors.New("io"), "read failed", TypeUnavailable)
	assert.Equal(t, Code("UNAVAILABLE_ERROR"), w.Code)
	assert.Contains(t, w.Error(), "read failed")
}

func TestToFiber(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: FiberErrorHandler})
	app.Get("/registered", func(c *fiber.Ctx) error {
		return testErrors.New(errNotFound)
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(http.StatusTeapot, "short and stout")
	})

	tests := []struct {
		path   string
		status int
		msg    string
	}{
		{"/registered", http.StatusNotFound, "Thing not found"},
		{"/fiber", http.StatusTeapot, "short and stout"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			raw, _ := io.ReadAll(resp.Body)
			var body map[string]any
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}
