package tsengine

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// postInput is the full editable shape of a post.
type postInput struct {
	Title           string `json:"title" validate:"required,max=300"`
	Slug            string `json:"slug" validate:"required,max=200,slug"`
	Excerpt         string `json:"excerpt" validate:"required,max=1000"`
	Content         string `json:"content" validate:"required"`
	Category        string `json:"category" validate:"required,category"`
	FeaturedImage   string `json:"featuredImage" validate:"max=2048"`
	MetaTitle       string `json:"metaTitle" validate:"max=200"`
	MetaDescription string `json:"metaDescription" validate:"max=500"`
}

// postPatch carries a partial update; nil fields are left unchanged.
type postPatch struct {
	Title           *string `json:"title"`
	Slug            *string `json:"slug"`
	Excerpt         *string `json:"excerpt"`
	Content         *string `json:"content"`
	Category        *string `json:"category"`
	FeaturedImage   *string `json:"featuredImage"`
	MetaTitle       *string `json:"metaTitle"`
	MetaDescription *string `json:"metaDescription"`
}

func (in postInput) post() BlogPost {
	return BlogPost{
		Title:           in.Title,
		Slug:            in.Slug,
		Excerpt:         in.Excerpt,
		Content:         in.Content,
		Category:        in.Category,
		FeaturedImage:   in.FeaturedImage,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
	}
}

func inputFromPost(p BlogPost) postInput {
	return postInput{
		Title:           p.Title,
		Slug:            p.Slug,
		Excerpt:         p.Excerpt,
		Content:         p.Content,
		Category:        p.Category,
		FeaturedImage:   p.FeaturedImage,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
	}
}

func (p postPatch) apply(in *postInput) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&in.Title, p.Title)
	set(&in.Slug, p.Slug)
	set(&in.Excerpt, p.Excerpt)
	set(&in.Content, p.Content)
	set(&in.Category, p.Category)
	set(&in.FeaturedImage, p.FeaturedImage)
	set(&in.MetaTitle, p.MetaTitle)
	set(&in.MetaDescription, p.MetaDescription)
}

func (a *App) handleListPosts(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleGetPost(c echo.Context) error {
	post, err := a.Cache.GetPostBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleCreatePost(c echo.Context) error {
	var in postInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = Slugify(in.Title)
	}
	if err := c.Validate(&in); err != nil {
		return err
	}

	post, err := a.Store.CreatePost(c.Request().Context(), in.post())
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusCreated, post)
}

// handleUpdatePost merges the patch onto the stored post and validates the
// result as a whole.
func (a *App) handleUpdatePost(c echo.Context) error {
	var patch postPatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}
	ctx := c.Request().Context()
	id := c.Param("id")
	existing, err := a.Store.GetPost(ctx, id)
	if err != nil {
		return err
	}

	in := inputFromPost(existing)
	patch.apply(&in)
	if err := c.Validate(&in); err != nil {
		return err
	}

	p := in.post()
	p.ID = id
	post, err := a.Store.UpdatePost(ctx, p)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleDeletePost(c echo.Context) error {
	if err := a.Store.DeletePost(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.NoContent(http.StatusNoContent)
}
