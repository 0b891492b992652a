package tsengine

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/calculatetimeshare/tsengine/media"
)

const uploadsSubdir = "uploads"

type iconResponse struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

func (a *App) handleGetIcon(c echo.Context) error {
	st, _, err := a.Store.GetSetting(c.Request().Context(), KeySiteIcon)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, iconResponse{URL: st.Value})
}

func (a *App) handleUploadIcon(c echo.Context) error {
	file, err := c.FormFile("icon")
	if err != nil {
		return NewValidationError("icon", "is required")
	}
	if file.Size > media.MaxIconBytes {
		return NewValidationError("icon", "must be at most 5MB")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	icon, err := media.Process(src)
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return NewValidationError("icon", "must be at most 5MB")
	case errors.Is(err, media.ErrUnsupported):
		return NewValidationError("icon", "must be a PNG, JPEG, GIF, WebP or BMP image")
	case err != nil:
		return err
	}

	ctx := c.Request().Context()
	name := fmt.Sprintf("site-icon-%d.png", time.Now().Unix())
	url, err := a.iconStorage.Save(ctx, name, icon.Data)
	if err != nil {
		return fmt.Errorf("store icon: %w", err)
	}
	if _, err := a.Store.SetSetting(ctx, KeySiteIcon, url); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, iconResponse{URL: url, Width: icon.Width, Height: icon.Height})
}
