package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/scidsg/hushline/internal/api/request"
	"github.com/scidsg/hushline/internal/api/response"
	"github.com/scidsg/hushline/internal/core"
	"github.com/scidsg/hushline/internal/model"
)

const settingsPath = "/settings/encryption"

const (
	flashForwardingUpdated = "👍 Email forwarding settings updated successfully."
	flashPGPKeyUpdated     = "👍 PGP key updated successfully."
	flashProtonImported    = "👍 PGP key imported from Proton."
)

// SettingsService is the backend of the Email & Encryption page.
type SettingsService interface {
	View(ctx context.Context, userID string) (*core.SettingsView, error)
	UpdatePGPKey(ctx context.Context, userID, armored string) error
	ImportProtonKey(ctx context.Context, userID, email string) error
	UpdateEmailForwarding(ctx context.Context, userID string, in core.ForwardingInput) error
}

type Settings struct {
	views
	svc SettingsService
}

func NewSettings(svc SettingsService, pages Pages, csrf CSRFTokens, flash response.Flash) *Settings {
	return &Settings{views: views{pages: pages, csrf: csrf, flash: flash}, svc: svc}
}

func (h *Settings) Show(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context(), userID(r.Context()))
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			h.flash.Set(w, "🫥 User not found. Please log in again.")
			response.SeeOther(w, r, "/login")
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "settings_encryption.html", settingsData(view))
}

func (h *Settings) UpdateForwarding(w http.ResponseWriter, r *http.Request) {
	if err := request.ParseForm(w, r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in := request.Forwarding(r)

	err := h.svc.UpdateEmailForwarding(r.Context(), userID(r.Context()), in)
	if err != nil {
		in.SMTPPassword = ""
		h.rerender(w, r, err, func(d map[string]any) { d["form"] = in })
		return
	}

	h.flash.Set(w, flashForwardingUpdated)
	response.SeeOther(w, r, settingsPath)
}

func (h *Settings) UpdatePGPKey(w http.ResponseWriter, r *http.Request) {
	if err := request.ParseForm(w, r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	armored := r.PostFormValue("pgp_key")

	if err := h.svc.UpdatePGPKey(r.Context(), userID(r.Context()), armored); err != nil {
		h.rerender(w, r, err, func(d map[string]any) { d["pgp_key"] = armored })
		return
	}

	h.flash.Set(w, flashPGPKeyUpdated)
	response.SeeOther(w, r, settingsPath)
}

func (h *Settings) ImportProtonKey(w http.ResponseWriter, r *http.Request) {
	if err := request.ParseForm(w, r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("proton_email")

	if err := h.svc.ImportProtonKey(r.Context(), userID(r.Context()), email); err != nil {
		h.rerender(w, r, err, func(d map[string]any) { d["proton_email"] = email })
		return
	}

	h.flash.Set(w, flashProtonImported)
	response.SeeOther(w, r, settingsPath)
}

// rerender shows the page again with status 400 for expected failures,
// keeping the submitted values that override sets.
func (h *Settings) rerender(w http.ResponseWriter, r *http.Request, err error, override func(map[string]any)) {
	flash, fields, ok := userError(err)
	if !ok {
		h.serverError(w, r, err)
		return
	}

	view, verr := h.svc.View(r.Context(), userID(r.Context()))
	if verr != nil {
		h.serverError(w, r, verr)
		return
	}

	data := settingsData(view)
	override(data)
	data["flash"] = flash
	data["errors"] = fields
	h.render(w, r, http.StatusBadRequest, "settings_encryption.html", data)
}

func settingsData(view *core.SettingsView) map[string]any {
	encryptions := make([]string, len(model.SMTPEncryptions))
	for i, e := range model.SMTPEncryptions {
		encryptions[i] = string(e)
	}
	form := view.Forwarding
	if form.SMTPEncryption == "" {
		form.SMTPEncryption = string(model.DefaultSMTPEncryption)
	}
	return map[string]any{
		"has_pgp_key":       view.HasPGPKey,
		"has_smtp_password": view.HasSMTPPassword,
		"pgp_key":           view.PGPKey,
		"pgp_fingerprint":   view.PGPFingerprint,
		"pgp_email":         view.PGPEmail,
		"proton_email":      "",
		"form":              form,
		"encryptions":       encryptions,
	}
}
