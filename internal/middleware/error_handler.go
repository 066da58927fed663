package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"travelkita_app/internal/services"
)

// errorResponse is the JSON shape every failure resolves to. Nothing in the
// checkout engine is allowed to crash the page; validation problems carry
// the offending fields so the UI can highlight them.
type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// CustomErrorHandler maps domain errors onto HTTP responses for Echo.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	resp := errorResponse{Error: "Something went wrong. Please try again later."}

	var validationErr *services.ValidationError
	var indexErr *services.IndexError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &validationErr):
		code = http.StatusUnprocessableEntity
		resp.Error = validationErr.Message
		resp.Fields = validationErr.Fields
	case errors.As(err, &indexErr):
		code = http.StatusBadRequest
		resp.Error = indexErr.Error()
	case errors.Is(err, services.ErrSessionNotFound):
		code = http.StatusNotFound
		resp.Error = err.Error()
	case errors.Is(err, services.ErrPaymentInFlight),
		errors.Is(err, services.ErrSessionCompleted),
		errors.Is(err, services.ErrWrongStep),
		errors.Is(err, services.ErrBackNavigationDisabled):
		code = http.StatusConflict
		resp.Error = err.Error()
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			resp.Error = msg
		} else {
			resp.Error = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	if jsonErr := c.JSON(code, resp); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}
