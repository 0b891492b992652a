package tsengine

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type settingRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

func (a *App) handleListSettings(c echo.Context) error {
	rows, err := a.Store.ListSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// handleGetSetting answers 404 for a key that has never been written.
func (a *App) handleGetSetting(c echo.Context) error {
	key := c.Param("key")
	if !IsSettingKey(key) {
		return ErrNotFound
	}
	st, ok, err := a.Store.GetSetting(c.Request().Context(), key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return c.JSON(http.StatusOK, st)
}

func (a *App) handleSaveSettings(c echo.Context) error {
	var req settingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if !IsSettingKey(req.Key) {
		return NewValidationError("key", "is not a recognized setting")
	}
	if err := a.validator.Value("value", req.Value, settingRules[req.Key]); err != nil {
		return err
	}
	st, err := a.Store.SetSetting(c.Request().Context(), req.Key, req.Value)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func (a *App) handleGetSEO(c echo.Context) error {
	s, err := a.LoadSiteSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.SEO)
}

func (a *App) handleSaveSEO(c echo.Context) error {
	var req SEOSettings
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return a.saveGroup(c, req.values())
}

func (a *App) handleGetSocial(c echo.Context) error {
	s, err := a.LoadSiteSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.Social)
}

func (a *App) handleSaveSocial(c echo.Context) error {
	var req SocialSettings
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return a.saveGroup(c, req.values())
}

func (a *App) handleGetWebhook(c echo.Context) error {
	s, err := a.LoadSiteSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, WebhookSettings{URL: s.WebhookURL})
}

func (a *App) handleSaveWebhook(c echo.Context) error {
	var req WebhookSettings
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return a.saveGroup(c, map[string]string{KeyWebhookURL: req.URL})
}

// saveGroup upserts one settings group atomically and answers with the
// full typed record.
func (a *App) saveGroup(c echo.Context, values map[string]string) error {
	ctx := c.Request().Context()
	if err := a.Store.SetSettings(ctx, values); err != nil {
		return err
	}
	s, err := a.LoadSiteSettings(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}
