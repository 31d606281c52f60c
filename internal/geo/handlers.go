package geo

import (
	"github.com/labstack/echo/v4"

	"github.com/talenter-ng/talenter/internal/apperr"
)

// HandleAutocomplete suggests places for the location picker.
func HandleAutocomplete(c echo.Context) error {
	predictions, err := Autocomplete(c.Request().Context(), c.QueryParam("input"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return apperr.OK(c, "Places", predictions)
}
