package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/d60-Lab/microblog/internal/middleware"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/internal/session"
	"github.com/d60-Lab/microblog/pkg/logger"
)

// flashCookie carries a one-shot notice across a redirect.
const flashCookie = "microblog_flash"

// Handler wires HTTP requests to the service layer. The admin API
// talks to the post repository directly: the admin browser bypasses
// ownership rules on purpose.
type Handler struct {
	posts    service.PostService
	auth     service.AuthService
	sessions *session.Store
	postRepo repository.PostRepository
}

func New(posts service.PostService, auth service.AuthService, sessions *session.Store, postRepo repository.PostRepository) *Handler {
	return &Handler{posts: posts, auth: auth, sessions: sessions, postRepo: postRepo}
}

// Flash is a one-shot notice shown after a redirect. Kind is one of
// success | info | error.
type Flash struct {
	Kind    string
	Message string
}

func setFlash(c *gin.Context, kind, message string) {
	c.SetCookie(flashCookie, kind+"|"+message, 60, "/", "", false, true)
}

func takeFlash(c *gin.Context) *Flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	kind, message, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}

// render wraps c.HTML, threading the current identity and any pending
// flash into every page.
func (h *Handler) render(c *gin.Context, status int, tmpl string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["User"] = middleware.UserFrom(c)
	data["Flash"] = takeFlash(c)
	c.HTML(status, tmpl, data)
}

func (h *Handler) notFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "error.html", gin.H{
		"Status":  http.StatusNotFound,
		"Message": "The post you are looking for does not exist.",
	})
}

func (h *Handler) forbidden(c *gin.Context, message string) {
	h.render(c, http.StatusForbidden, "error.html", gin.H{
		"Status":  http.StatusForbidden,
		"Message": message,
	})
}

func (h *Handler) serverError(c *gin.Context, err error) {
	logger.L().Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	h.render(c, http.StatusInternalServerError, "error.html", gin.H{
		"Status":  http.StatusInternalServerError,
		"Message": "Something went wrong. Please try again.",
	})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// bindErrors turns validator failures from gin's binding into the
// same FieldErrors shape the service layer produces.
func bindErrors(err error) service.FieldErrors {
	fe := service.FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe["form"] = "Invalid form submission."
		return fe
	}
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		if _, dup := fe[field]; dup {
			continue
		}
		switch e.Tag() {
		case "required":
			fe[field] = "This field is required."
		case "email":
			fe[field] = "Enter a valid email address."
		case "min":
			fe[field] = fmt.Sprintf("Must be at least %s characters.", e.Param())
		case "max":
			fe[field] = fmt.Sprintf("Must be at most %s characters.", e.Param())
		case "eqfield":
			fe[field] = "Passwords do not match."
		default:
			fe[field] = "Invalid value."
		}
	}
	return fe
}
