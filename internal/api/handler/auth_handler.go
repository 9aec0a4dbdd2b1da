package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/microblog/internal/middleware"
	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/internal/session"
)

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type registerForm struct {
	Username  string `form:"username" binding:"required,max=150"`
	Email     string `form:"email" binding:"required,email"`
	Password1 string `form:"password1" binding:"required,min=8"`
	Password2 string `form:"password2" binding:"required,eqfield=Password1"`
}

// redirectIfAuthed short-circuits login/register for signed-in users.
func redirectIfAuthed(c *gin.Context) bool {
	if middleware.UserFrom(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return true
	}
	return false
}

func (h *Handler) LoginForm(c *gin.Context) {
	if redirectIfAuthed(c) {
		return
	}
	h.render(c, http.StatusOK, "login.html", gin.H{"Username": ""})
}

func (h *Handler) Login(c *gin.Context) {
	if redirectIfAuthed(c) {
		return
	}

	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "login.html", gin.H{
			"Errors":   bindErrors(err),
			"Username": c.PostForm("username"),
		})
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// Deliberately generic: never reveal whether the username exists.
			h.render(c, http.StatusOK, "login.html", gin.H{
				"Error":    "Invalid username or password.",
				"Username": form.Username,
			})
			return
		}
		h.serverError(c, err)
		return
	}

	if err := h.startSession(c, user.ID); err != nil {
		h.serverError(c, err)
		return
	}
	setFlash(c, "success", fmt.Sprintf("Welcome back, %s!", user.Username))
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) RegisterForm(c *gin.Context) {
	if redirectIfAuthed(c) {
		return
	}
	h.render(c, http.StatusOK, "register.html", gin.H{"Username": "", "Email": ""})
}

func (h *Handler) Register(c *gin.Context) {
	if redirectIfAuthed(c) {
		return
	}

	reshow := func(fe service.FieldErrors) {
		h.render(c, http.StatusOK, "register.html", gin.H{
			"Errors":   fe,
			"Username": c.PostForm("username"),
			"Email":    c.PostForm("email"),
		})
	}

	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		reshow(bindErrors(err))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username:        form.Username,
		Email:           form.Email,
		Password:        form.Password1,
		PasswordConfirm: form.Password2,
	})
	if err != nil {
		var fe service.FieldErrors
		if errors.As(err, &fe) {
			reshow(fe)
			return
		}
		h.serverError(c, err)
		return
	}

	// Registration implies login.
	if err := h.startSession(c, user.ID); err != nil {
		h.serverError(c, err)
		return
	}
	setFlash(c, "success", fmt.Sprintf("Account created successfully! Welcome, %s!", user.Username))
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Logout(c *gin.Context) {
	if token, err := c.Cookie(session.CookieName); err == nil && token != "" {
		if err := h.sessions.End(c.Request.Context(), token); err != nil && !errors.Is(err, session.ErrInvalidToken) {
			h.serverError(c, err)
			return
		}
	}
	c.SetCookie(session.CookieName, "", -1, "/", "", false, true)
	setFlash(c, "info", "You have been logged out successfully.")
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) startSession(c *gin.Context, userID uint) error {
	token, err := h.sessions.Start(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	c.SetCookie(session.CookieName, token, int(h.sessions.TTL().Seconds()), "/", "", false, true)
	return nil
}
