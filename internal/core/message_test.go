package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type messageFixture struct {
	db     *mockDB
	sender *mockSender
	svc    *MessageService
}

func newMessageFixture(t *testing.T) *messageFixture {
	db := &mockDB{}
	sender := &mockSender{}
	cipher := testCipher(t)
	users := NewUserService(db, cipher)
	return &messageFixture{
		db:     db,
		sender: sender,
		svc:    NewMessageService(db, users, NewForwardingService(sender, defaultRelay), cipher),
	}
}

func TestSubmit_EncryptsAndForwards(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	u := forwardingUser(t)
	f.db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"newsroom"}).Return(userRow(t, testCipher(t), *u))

	var stored string
	f.db.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO messages")
	}), mock.Anything).Run(func(a mock.Arguments) {
		stored = a.Get(2).([]any)[2].(string)
	}).Return(inserted(), nil)
	f.sender.On("Send", ctx, defaultRelay, mock.Anything).Return(nil)

	res, err := f.svc.Submit(ctx, "newsroom", "  meet at the usual place  ")
	require.NoError(t, err)
	assert.True(t, res.Emailed)
	assert.Equal(t, u.ID, res.Message.UserID)
	assert.True(t, strings.HasPrefix(res.Message.Content, "-----BEGIN PGP MESSAGE-----"))
	assert.NotContains(t, stored, "BEGIN PGP MESSAGE", "stored content is field-encrypted")

	plain, err := testCipher(t).Decrypt(stored)
	require.NoError(t, err)
	assert.Equal(t, res.Message.Content, plain)
}

func TestSubmit_WithoutKeyStoresPlaintext(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	u := testUser()
	f.db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"newsroom"}).Return(userRow(t, testCipher(t), u))
	f.db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(inserted(), nil)

	res, err := f.svc.Submit(ctx, "newsroom", "hello")
	require.NoError(t, err)
	assert.False(t, res.Emailed)
	assert.Equal(t, "hello", res.Message.Content)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_ForwardingFailureKeepsMessage(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	u := forwardingUser(t)
	f.db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"newsroom"}).Return(userRow(t, testCipher(t), *u))
	f.db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(inserted(), nil)
	f.sender.On("Send", ctx, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	res, err := f.svc.Submit(ctx, "newsroom", "hello")
	require.NoError(t, err)
	assert.False(t, res.Emailed)
	f.db.AssertNumberOfCalls(t, "Exec", 1)
}

func TestSubmit_Validation(t *testing.T) {
	f := newMessageFixture(t)

	for _, content := range []string{"", "   ", strings.Repeat("x", MaxMessageLength+1)} {
		_, err := f.svc.Submit(context.Background(), "newsroom", content)
		fe, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Len(t, fe.Get("content"), 1)
	}
	f.db.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_UnknownRecipient(t *testing.T) {
	f := newMessageFixture(t)
	f.db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"ghost"}).Return(errRow(ErrUserNotFound))

	_, err := f.svc.Submit(context.Background(), "ghost", "hello")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
