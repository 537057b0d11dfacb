package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPEncryptionConstants(t *testing.T) {
	assert.Equal(t, SMTPEncryption("SSL"), SMTPEncryptionSSL)
	assert.Equal(t, SMTPEncryption("StartTLS"), SMTPEncryptionStartTLS)
	assert.Equal(t, SMTPEncryptionStartTLS, DefaultSMTPEncryption)
}

func TestParseSMTPEncryption(t *testing.T) {
	enc, err := ParseSMTPEncryption("SSL")
	require.NoError(t, err)
	assert.Equal(t, SMTPEncryptionSSL, enc)

	enc, err = ParseSMTPEncryption("")
	require.NoError(t, err)
	assert.Equal(t, SMTPEncryptionStartTLS, enc)

	_, err = ParseSMTPEncryption("ssl")
	require.Error(t, err)
}

func TestSMTPSettings_Complete(t *testing.T) {
	s := SMTPSettings{
		Sender:   "tips@example.com",
		Username: "tips",
		Server:   "smtp.example.com",
		Port:     587,
		Password: "hunter2",
	}
	assert.True(t, s.Complete())

	s.Username, s.Password = "", ""
	assert.True(t, s.Complete())

	s.Port = 0
	assert.False(t, s.Complete())

	s.Port = 587
	s.Sender = ""
	assert.False(t, s.Complete())
}

func TestSMTPSettings_Addr(t *testing.T) {
	s := SMTPSettings{Server: "smtp.example.com", Port: 465}
	assert.Equal(t, "smtp.example.com:465", s.Addr())
}

func TestUser_DisplayNameOrUsername(t *testing.T) {
	u := &User{PrimaryUsername: "alice"}
	assert.Equal(t, "alice", u.DisplayNameOrUsername())

	empty := ""
	u.DisplayName = &empty
	assert.Equal(t, "alice", u.DisplayNameOrUsername())

	name := "Alice Newsroom"
	u.DisplayName = &name
	assert.Equal(t, "Alice Newsroom", u.DisplayNameOrUsername())
}
