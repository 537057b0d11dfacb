package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scidsg/hushline/internal/api/request"
	"github.com/scidsg/hushline/internal/api/response"
	"github.com/scidsg/hushline/internal/core"
	"github.com/scidsg/hushline/internal/model"
)

// Recipients looks up the user a message is addressed to.
type Recipients interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// Submitter stores and forwards a message.
type Submitter interface {
	Submit(ctx context.Context, username, content string) (*core.SubmitResult, error)
}

type Message struct {
	views
	users    Recipients
	messages Submitter
}

func NewMessage(users Recipients, messages Submitter, pages Pages, csrf CSRFTokens, flash response.Flash) *Message {
	return &Message{views: views{pages: pages, csrf: csrf, flash: flash}, users: users, messages: messages}
}

func (h *Message) Form(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			h.notFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "submit.html", recipientData(user))
}

func (h *Message) Submit(w http.ResponseWriter, r *http.Request) {
	if err := request.ParseForm(w, r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	username := chi.URLParam(r, "username")
	content := r.PostFormValue("content")

	res, err := h.messages.Submit(r.Context(), username, content)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			h.notFound(w, r)
			return
		}
		flash, fields, ok := userError(err)
		if !ok {
			h.serverError(w, r, err)
			return
		}
		user, uerr := h.users.GetByUsername(r.Context(), username)
		if uerr != nil {
			h.serverError(w, r, uerr)
			return
		}
		data := recipientData(user)
		data["content"] = content
		data["flash"] = flash
		data["errors"] = fields
		h.render(w, r, http.StatusBadRequest, "submit.html", data)
		return
	}

	msg := "👍 Message submitted"
	if res.Emailed {
		msg += " and emailed"
	}
	data := recipientData(res.Recipient)
	data["flash"] = msg + "."
	h.render(w, r, http.StatusOK, "submitted.html", data)
}

func recipientData(user *model.User) map[string]any {
	return map[string]any{
		"recipient":          user.DisplayNameOrUsername(),
		"recipient_username": user.PrimaryUsername,
		"recipient_has_key":  user.HasPGPKey(),
		"content":            "",
	}
}
