package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/microblog/internal/middleware"
	"github.com/d60-Lab/microblog/internal/service"
)

type postForm struct {
	Text string `form:"text" binding:"required,max=280"`
}

// imageFile extracts the optional upload. A form without a file (or
// without a multipart body at all) simply means no image.
func imageFile(c *gin.Context) (*multipart.FileHeader, error) {
	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	return file, nil
}

func (h *Handler) CreateForm(c *gin.Context) {
	h.render(c, http.StatusOK, "create.html", gin.H{"Text": ""})
}

func (h *Handler) Create(c *gin.Context) {
	user := middleware.UserFrom(c)

	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		// Re-show the form with whatever text was submitted.
		h.render(c, http.StatusOK, "create.html", gin.H{
			"Errors": bindErrors(err),
			"Text":   c.PostForm("text"),
		})
		return
	}

	image, err := imageFile(c)
	if err != nil {
		h.serverError(c, err)
		return
	}

	_, err = h.posts.Create(c.Request.Context(), user, service.PostInput{Text: form.Text, Image: image})
	if err != nil {
		var fe service.FieldErrors
		if errors.As(err, &fe) {
			h.render(c, http.StatusOK, "create.html", gin.H{"Errors": fe, "Text": form.Text})
			return
		}
		h.serverError(c, err)
		return
	}

	setFlash(c, "success", "Post published successfully!")
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) EditForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFound(c)
		return
	}

	post, err := h.posts.GetOwned(c.Request.Context(), middleware.UserFrom(c), id)
	if err != nil {
		h.renderOwnershipError(c, err, "You can only edit your own posts.")
		return
	}
	h.render(c, http.StatusOK, "edit.html", gin.H{"Post": post, "Text": post.Text})
}

func (h *Handler) Edit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFound(c)
		return
	}
	user := middleware.UserFrom(c)

	// Ownership first: a forbidden caller never reaches validation.
	post, err := h.posts.GetOwned(c.Request.Context(), user, id)
	if err != nil {
		h.renderOwnershipError(c, err, "You can only edit your own posts.")
		return
	}

	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "edit.html", gin.H{
			"Post":   post,
			"Errors": bindErrors(err),
			"Text":   c.PostForm("text"),
		})
		return
	}

	image, err := imageFile(c)
	if err != nil {
		h.serverError(c, err)
		return
	}

	_, err = h.posts.Edit(c.Request.Context(), user, id, service.PostInput{Text: form.Text, Image: image})
	if err != nil {
		var fe service.FieldErrors
		if errors.As(err, &fe) {
			h.render(c, http.StatusOK, "edit.html", gin.H{"Post": post, "Errors": fe, "Text": form.Text})
			return
		}
		h.renderOwnershipError(c, err, "You can only edit your own posts.")
		return
	}

	setFlash(c, "success", "Post updated successfully!")
	c.Redirect(http.StatusFound, "/")
}

// DeleteConfirm renders the confirmation page. Retrieving it never
// deletes anything; only the POST below mutates.
func (h *Handler) DeleteConfirm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFound(c)
		return
	}

	post, err := h.posts.GetOwned(c.Request.Context(), middleware.UserFrom(c), id)
	if err != nil {
		h.renderOwnershipError(c, err, "You can only delete your own posts.")
		return
	}
	h.render(c, http.StatusOK, "delete_confirm.html", gin.H{"Post": post})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.notFound(c)
		return
	}

	if err := h.posts.Delete(c.Request.Context(), middleware.UserFrom(c), id); err != nil {
		h.renderOwnershipError(c, err, "You can only delete your own posts.")
		return
	}

	setFlash(c, "success", "Post deleted successfully!")
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) renderOwnershipError(c *gin.Context, err error, forbiddenMsg string) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		h.notFound(c)
	case errors.Is(err, service.ErrForbidden):
		h.forbidden(c, forbiddenMsg)
	default:
		h.serverError(c, err)
	}
}
