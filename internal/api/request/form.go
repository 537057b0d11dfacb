package request

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/scidsg/hushline/internal/core"
)

// maxFormBytes bounds a form body. A pasted PGP key is the largest field.
const maxFormBytes = 256 << 10

var validate = validator.New()

// ParseForm reads an urlencoded or multipart body with a size limit.
func ParseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("invalid form: %w", err)
	}
	return nil
}

// checked reports whether a checkbox field was submitted. Browsers omit
// unchecked boxes, and the toggles post "y" or "on" when set.
func checked(r *http.Request, field string) bool {
	switch strings.ToLower(r.PostFormValue(field)) {
	case "", "0", "false", "off", "n":
		return false
	default:
		return true
	}
}

// Forwarding maps the email forwarding form.
func Forwarding(r *http.Request) core.ForwardingInput {
	return core.ForwardingInput{
		ForwardingEnabled: checked(r, "forwarding_enabled"),
		EmailAddress:      r.PostFormValue("email_address"),
		CustomSMTP:        checked(r, "custom_smtp_settings"),
		SMTPSender:        r.PostFormValue("smtp_sender"),
		SMTPUsername:      r.PostFormValue("smtp_username"),
		SMTPServer:        r.PostFormValue("smtp_server"),
		SMTPPort:          r.PostFormValue("smtp_port"),
		SMTPEncryption:    r.PostFormValue("smtp_encryption"),
		SMTPPassword:      r.PostFormValue("smtp_password"),
	}
}

type Login struct {
	Username string `validate:"required,max=80"`
	Password string `validate:"required,max=256"`
}

// DecodeLogin maps and validates the login form.
func DecodeLogin(r *http.Request) (Login, error) {
	in := Login{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	if err := validate.Struct(in); err != nil {
		return in, fmt.Errorf("validation error: %w", err)
	}
	return in, nil
}
