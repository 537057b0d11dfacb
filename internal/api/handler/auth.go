package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	mw "github.com/scidsg/hushline/internal/api/middleware"
	"github.com/scidsg/hushline/internal/api/request"
	"github.com/scidsg/hushline/internal/api/response"
	"github.com/scidsg/hushline/internal/core"
	"github.com/scidsg/hushline/internal/model"
)

// Authenticator checks credentials and issues session tokens.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, *model.User, error)
	CSRFToken(claims *model.SessionClaims) string
}

// SessionCookie describes the cookie that carries the session token.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type Auth struct {
	views
	auth   Authenticator
	cookie SessionCookie
}

func NewAuth(auth Authenticator, pages Pages, cookie SessionCookie, flash response.Flash) *Auth {
	return &Auth{views: views{pages: pages, csrf: auth, flash: flash}, auth: auth, cookie: cookie}
}

func (h *Auth) LoginForm(w http.ResponseWriter, r *http.Request) {
	if mw.GetClaims(r.Context()) != nil {
		response.SeeOther(w, r, settingsPath)
		return
	}
	h.render(w, r, http.StatusOK, "login.html", nil)
}

func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	if err := request.ParseForm(w, r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	in, err := request.DecodeLogin(r)
	if err != nil {
		h.render(w, r, http.StatusBadRequest, "login.html", map[string]any{
			"login_username": in.Username,
			"flash":          "⛔️ Username and password are required.",
		})
		return
	}

	token, user, err := h.auth.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			zerolog.Ctx(r.Context()).Info().Str("username", in.Username).Msg("failed login")
			h.render(w, r, http.StatusUnauthorized, "login.html", map[string]any{
				"login_username": in.Username,
				"flash":          "⛔️ Invalid username or password.",
			})
			return
		}
		h.serverError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	zerolog.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("logged in")
	response.SeeOther(w, r, settingsPath)
}

func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	h.flash.Set(w, "👋 You have been logged out.")
	response.SeeOther(w, r, "/login")
}
