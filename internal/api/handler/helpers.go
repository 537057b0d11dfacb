package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	mw "github.com/scidsg/hushline/internal/api/middleware"
	"github.com/scidsg/hushline/internal/api/response"
	"github.com/scidsg/hushline/internal/core"
	"github.com/scidsg/hushline/internal/model"
)

// Pages renders a named HTML template.
type Pages interface {
	Render(name string, data map[string]any) ([]byte, error)
}

// CSRFTokens derives the form token for a session.
type CSRFTokens interface {
	CSRFToken(claims *model.SessionClaims) string
}

// views renders pages with the layout data every page shares.
type views struct {
	pages Pages
	csrf  CSRFTokens
	flash response.Flash
}

func (v views) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if claims := mw.GetClaims(r.Context()); claims != nil {
		data["username"] = claims.Username
		data["csrf_token"] = v.csrf.CSRFToken(claims)
	}
	if _, ok := data["flash"]; !ok {
		data["flash"] = v.flash.Pop(w, r)
	}
	if _, ok := data["errors"]; !ok {
		data["errors"] = core.FieldErrors{}
	}

	body, err := v.pages.Render(name, data)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	response.WriteHTML(w, status, body)
}

func (v views) serverError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	v.render(w, r, http.StatusInternalServerError, "error.html", map[string]any{
		"status":  "500",
		"message": "Something went wrong. Please try again.",
		"flash":   "",
	})
}

func (v views) notFound(w http.ResponseWriter, r *http.Request) {
	v.render(w, r, http.StatusNotFound, "error.html", map[string]any{
		"status":  "404",
		"message": "🫥 User not found.",
		"flash":   "",
	})
}

// userError maps an expected service failure to the flash message and field
// errors shown on a re-rendered form. ok is false for unexpected errors.
func userError(err error) (flash string, fields core.FieldErrors, ok bool) {
	if fe, isField := core.AsFieldErrors(err); isField {
		return "⛔️ Please correct the errors below.", fe, true
	}
	switch {
	case errors.Is(err, core.ErrPGPKeyRequired):
		return "⛔️ Email forwarding requires a configured PGP key.", core.FieldErrors{}, true
	case errors.Is(err, core.ErrInvalidPGPKey):
		return "⛔️ Invalid PGP key format or import failed.", core.FieldErrors{}, true
	case errors.Is(err, core.ErrSMTPVerification):
		return "⛔️ Unable to validate SMTP connection settings.", core.FieldErrors{}, true
	case errors.Is(err, core.ErrProtonKeyNotFound):
		return "⛔️ No PGP key found for the email address.", core.FieldErrors{}, true
	case errors.Is(err, core.ErrEncryptionFailed):
		return "⛔️ Failed to encrypt message with PGP key.", core.FieldErrors{}, true
	}
	return "", nil, false
}

func userID(ctx context.Context) string {
	if claims := mw.GetClaims(ctx); claims != nil {
		return claims.Subject
	}
	return ""
}
