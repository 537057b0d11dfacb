package core

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/scidsg/hushline/internal/crypto"
	"github.com/scidsg/hushline/internal/model"
)

const userColumns = `id, primary_username, display_name, password_hash, pgp_key,
	forwarding_enabled, email_address, custom_smtp, smtp_sender, smtp_username,
	smtp_server, smtp_port, smtp_encryption, smtp_password, created_at, updated_at`

// MaxDisplayNameLength matches the display_name column.
const MaxDisplayNameLength = 80

var plainText = bluemonday.StrictPolicy()

// UserService reads and writes users. Contact details, SMTP settings and the
// PGP key are encrypted at rest with the field cipher.
type UserService struct {
	db     DB
	cipher *crypto.FieldCipher
}

func NewUserService(db DB, cipher *crypto.FieldCipher) *UserService {
	return &UserService{db: db, cipher: cipher}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := s.scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := s.scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE primary_username = $1`, username))
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return u, nil
}

func (s *UserService) Create(ctx context.Context, username, passwordHash string) (*model.User, error) {
	now := time.Now()
	u := &model.User{
		ID:              uuid.NewString(),
		PrimaryUsername: username,
		PasswordHash:    passwordHash,
		EmailForwarding: model.EmailForwarding{
			SMTP: model.SMTPSettings{Encryption: model.DefaultSMTPEncryption},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, primary_username, password_hash, smtp_encryption, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.PrimaryUsername, u.PasswordHash, string(u.EmailForwarding.SMTP.Encryption), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// UpdatePGPKey stores key. An empty key also turns forwarding off, since
// messages are only forwarded encrypted.
func (s *UserService) UpdatePGPKey(ctx context.Context, id, key string) error {
	enc, err := s.cipher.Encrypt(key)
	if err != nil {
		return fmt.Errorf("encrypt pgp key: %w", err)
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET pgp_key = $1,
		 forwarding_enabled = CASE WHEN $1 = '' THEN false ELSE forwarding_enabled END,
		 updated_at = now() WHERE id = $2`, enc, id)
	if err != nil {
		return fmt.Errorf("update user pgp key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user pgp key %s: %w", id, ErrUserNotFound)
	}
	return nil
}

func (s *UserService) UpdateEmailForwarding(ctx context.Context, id string, f model.EmailForwarding) error {
	values, err := s.encryptAll(f.EmailAddress, f.SMTP.Sender, f.SMTP.Username, f.SMTP.Server, f.SMTP.Password)
	if err != nil {
		return fmt.Errorf("encrypt forwarding settings: %w", err)
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET forwarding_enabled = $1, email_address = $2, custom_smtp = $3,
		 smtp_sender = $4, smtp_username = $5, smtp_server = $6, smtp_port = $7,
		 smtp_encryption = $8, smtp_password = $9, updated_at = now()
		 WHERE id = $10`,
		f.Enabled, values[0], f.CustomSMTP, values[1], values[2], values[3], f.SMTP.Port,
		string(f.SMTP.Encryption), values[4], id,
	)
	if err != nil {
		return fmt.Errorf("update user email forwarding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user email forwarding %s: %w", id, ErrUserNotFound)
	}
	return nil
}

// UpdateDisplayName stores name with any markup stripped. A blank name
// clears it so the primary username is shown instead.
func (s *UserService) UpdateDisplayName(ctx context.Context, id, name string) error {
	name = cleanDisplayName(name)
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return FieldErrors{"display_name": {fmt.Sprintf("Field cannot be longer than %d characters.", MaxDisplayNameLength)}}
	}

	var value *string
	if name != "" {
		value = &name
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET display_name = $1, updated_at = now() WHERE id = $2`, value, id)
	if err != nil {
		return fmt.Errorf("update user display name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user display name %s: %w", id, ErrUserNotFound)
	}
	return nil
}

func cleanDisplayName(name string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(name)))
}

func (s *UserService) scanUser(row pgx.Row) (*model.User, error) {
	var (
		u          model.User
		encryption string
		encrypted  [6]string
	)
	err := row.Scan(&u.ID, &u.PrimaryUsername, &u.DisplayName, &u.PasswordHash, &encrypted[0],
		&u.EmailForwarding.Enabled, &encrypted[1], &u.EmailForwarding.CustomSMTP, &encrypted[2], &encrypted[3],
		&encrypted[4], &u.EmailForwarding.SMTP.Port, &encryption, &encrypted[5], &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	plain, err := s.decryptAll(encrypted[:]...)
	if err != nil {
		return nil, fmt.Errorf("decrypt user fields: %w", err)
	}
	u.PGPKey = plain[0]
	u.EmailForwarding.EmailAddress = plain[1]
	u.EmailForwarding.SMTP.Sender = plain[2]
	u.EmailForwarding.SMTP.Username = plain[3]
	u.EmailForwarding.SMTP.Server = plain[4]
	u.EmailForwarding.SMTP.Password = plain[5]

	u.EmailForwarding.SMTP.Encryption, err = model.ParseSMTPEncryption(encryption)
	if err != nil {
		u.EmailForwarding.SMTP.Encryption = model.DefaultSMTPEncryption
	}
	return &u, nil
}

func (s *UserService) encryptAll(values ...string) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		enc, err := s.cipher.Encrypt(v)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

func (s *UserService) decryptAll(values ...string) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		dec, err := s.cipher.Decrypt(v)
		if err != nil {
			return nil, err
		}
		out[i] = dec
	}
	return out, nil
}
