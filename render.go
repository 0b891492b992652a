package tsengine

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

// renderXML writes v as an XML document with the given content type.
func renderXML(c echo.Context, contentType string, v interface{}) error {
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(v)
}
