package tsengine

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// bindJSON decodes the request body into dst. Type mismatches are reported
// against the offending field.
func bindJSON(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) && ute.Field != "" {
			return NewValidationError(ute.Field, "must be a "+ute.Type.String())
		}
		return NewValidationError("body", "must be a JSON object")
	}
	return nil
}

func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := bindJSON(c, dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, body := errorResponse(err)
	if code >= 500 {
		c.Logger().Errorf("server error: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		c.Logger().Errorf("write error response: %v", err)
	}
}

func errorResponse(err error) (int, errorBody) {
	var ve *ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody{Error: "validation failed", Fields: ve.Fields}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not found"}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorBody{Error: "unauthorized"}
	case errors.As(err, &he):
		switch {
		case he.Code >= 500:
			return he.Code, errorBody{Error: "internal error"}
		case he.Code == http.StatusNotFound:
			return he.Code, errorBody{Error: "not found"}
		case he.Code == http.StatusUnauthorized:
			return he.Code, errorBody{Error: "unauthorized"}
		}
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = strings.ToLower(http.StatusText(he.Code))
		}
		return he.Code, errorBody{Error: msg}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal error"}
}

func (a *App) handleHealth(c echo.Context) error {
	if err := a.Store.Ping(c.Request().Context()); err != nil {
		c.Logger().Errorf("health: %v", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleSite(c echo.Context) error {
	s, err := a.LoadSiteSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Public(a.Config))
}

func (a *App) handleFavicon(c echo.Context) error {
	st, ok, err := a.Store.GetSetting(c.Request().Context(), KeySiteIcon)
	if err != nil {
		return err
	}
	if !ok || st.Value == "" {
		return ErrNotFound
	}
	return c.Redirect(http.StatusFound, st.Value)
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: %s\n", BuildURL(a.Config.URL, "sitemap.xml"))
	return c.String(http.StatusOK, body)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return renderXML(c, "application/xml; charset=utf-8", buildSitemap(a.Config.URL, posts))
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return renderXML(c, "application/rss+xml; charset=utf-8", buildFeed(a.Config, posts))
}
