package core

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scidsg/hushline/internal/crypto"
	"github.com/scidsg/hushline/internal/model"
	"github.com/scidsg/hushline/internal/pgp"
)

// MaxMessageLength bounds a submitted message, in characters.
const MaxMessageLength = 10000

// SubmitResult describes a stored message and whether it was emailed.
type SubmitResult struct {
	Message   *model.Message
	Recipient *model.User
	Emailed   bool
}

// MessageService accepts messages for a user, stores them encrypted and
// forwards them.
type MessageService struct {
	db        DB
	users     *UserService
	forwarder *ForwardingService
	cipher    *crypto.FieldCipher
}

func NewMessageService(db DB, users *UserService, forwarder *ForwardingService, cipher *crypto.FieldCipher) *MessageService {
	return &MessageService{db: db, users: users, forwarder: forwarder, cipher: cipher}
}

// Submit stores content for username. When the user has a PGP key the
// content is padded and encrypted to it first. A forwarding failure is
// logged and leaves the stored message in place.
func (s *MessageService) Submit(ctx context.Context, username, content string) (*SubmitResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, FieldErrors{"content": {msgRequired}}
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, FieldErrors{"content": {fmt.Sprintf("Field cannot be longer than %d characters.", MaxMessageLength)}}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	body := content
	if user.HasPGPKey() {
		encrypted, err := pgp.Encrypt(pgp.AddPadding(content, pgp.DefaultBlockSize), user.PGPKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
		}
		body = encrypted
	}

	stored, err := s.cipher.Encrypt(body)
	if err != nil {
		return nil, fmt.Errorf("encrypt message: %w", err)
	}

	msg := &model.Message{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Content:   body,
		CreatedAt: time.Now(),
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO messages (id, user_id, content, created_at) VALUES ($1, $2, $3, $4)`,
		msg.ID, msg.UserID, stored, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	emailed, err := s.forwarder.Forward(ctx, user, body)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", user.ID).Str("message_id", msg.ID).Msg("message stored but not forwarded")
	}

	return &SubmitResult{Message: msg, Recipient: user, Emailed: emailed}, nil
}
