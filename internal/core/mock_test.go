package core

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scidsg/hushline/internal/crypto"
	"github.com/scidsg/hushline/internal/mailer"
	"github.com/scidsg/hushline/internal/model"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

func errRow(err error) *mockRow {
	return &mockRow{scanFunc: func(...any) error { return err }}
}

// userRow returns a row that scans u in userColumns order, encrypting the
// protected fields with cipher the way they are stored.
func userRow(t *testing.T, cipher *crypto.FieldCipher, u model.User) *mockRow {
	t.Helper()
	enc := func(v string) string {
		out, err := cipher.Encrypt(v)
		require.NoError(t, err)
		return out
	}
	pgpKey := enc(u.PGPKey)
	email := enc(u.EmailForwarding.EmailAddress)
	sender := enc(u.EmailForwarding.SMTP.Sender)
	username := enc(u.EmailForwarding.SMTP.Username)
	server := enc(u.EmailForwarding.SMTP.Server)
	password := enc(u.EmailForwarding.SMTP.Password)

	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = u.ID
		*(dest[1].(*string)) = u.PrimaryUsername
		*(dest[2].(**string)) = u.DisplayName
		*(dest[3].(*string)) = u.PasswordHash
		*(dest[4].(*string)) = pgpKey
		*(dest[5].(*bool)) = u.EmailForwarding.Enabled
		*(dest[6].(*string)) = email
		*(dest[7].(*bool)) = u.EmailForwarding.CustomSMTP
		*(dest[8].(*string)) = sender
		*(dest[9].(*string)) = username
		*(dest[10].(*string)) = server
		*(dest[11].(*int)) = u.EmailForwarding.SMTP.Port
		*(dest[12].(*string)) = string(u.EmailForwarding.SMTP.Encryption)
		*(dest[13].(*string)) = password
		*(dest[14].(*time.Time)) = u.CreatedAt
		*(dest[15].(*time.Time)) = u.UpdatedAt
		return nil
	}}
}

// ---------- Mock Sender ----------

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, settings model.SMTPSettings, msg mailer.Message) error {
	return m.Called(ctx, settings, msg).Error(0)
}

func (m *mockSender) Verify(ctx context.Context, settings model.SMTPSettings) error {
	return m.Called(ctx, settings).Error(0)
}

// ---------- Mock KeyLookup ----------

type mockKeyLookup struct {
	mock.Mock
}

func (m *mockKeyLookup) Lookup(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

// ---------- Fixtures ----------

func testCipher(t *testing.T) *crypto.FieldCipher {
	t.Helper()
	c, err := crypto.NewFieldCipher(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	return c
}

func updated() pgconn.CommandTag { return pgconn.NewCommandTag("UPDATE 1") }

func inserted() pgconn.CommandTag { return pgconn.NewCommandTag("INSERT 0 1") }

func noneUpdated() pgconn.CommandTag { return pgconn.NewCommandTag("UPDATE 0") }

var (
	testKeyOnce   sync.Once
	testEntity    *openpgp.Entity
	testPublicKey string
)

// testKey generates one PGP key pair per test binary and returns the armored
// public half.
func testKey(t *testing.T) string {
	t.Helper()
	testKeyOnce.Do(func() {
		e, err := openpgp.NewEntity("Hush Line Tips", "", "tips@newsroom.example", nil)
		if err != nil {
			panic(err)
		}
		var buf bytes.Buffer
		w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
		if err != nil {
			panic(err)
		}
		if err := e.Serialize(w); err != nil {
			panic(err)
		}
		w.Close()
		testEntity = e
		testPublicKey = buf.String()
	})
	return testPublicKey
}

func testUser() model.User {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return model.User{
		ID:              "b0a8c9a2-6f3e-4a55-9cf4-2f1b8f3d0c11",
		PrimaryUsername: "newsroom",
		PasswordHash:    "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		EmailForwarding: model.EmailForwarding{
			SMTP: model.SMTPSettings{Encryption: model.DefaultSMTPEncryption},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
