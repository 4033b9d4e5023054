package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// IsAsync returns true if the current request was made by the page script
// rather than a full-page navigation. The calendar form-select fragments use
// this to decide between returning a bare fragment and a full page.
func IsAsync(c echo.Context) bool {
	return c.Request().Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// RenderHTML writes an already-rendered HTML string to the response with the
// given status code. Calendar and holiday-table fragments are built as
// strings (they also travel inside /ajax/ JSON payloads), so page handlers
// and the /ajax/ handler share the same fragment builders.
func RenderHTML(c echo.Context, statusCode int, html string) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/html; charset=utf-8")
	c.Response().WriteHeader(statusCode)
	_, err := c.Response().Writer.Write([]byte(html))
	return err
}

// Redirect issues a See Other redirect, the standard answer to a validated
// report-navigation form post.
func Redirect(c echo.Context, location string) error {
	return c.Redirect(http.StatusSeeOther, location)
}
