package main

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scidsg/hushline/internal/config"
)

func TestKeygen(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"keygen"})
	require.NoError(t, rootCmd.Execute())

	key, err := base64.StdEncoding.DecodeString(out.String())
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestUserCreate_RejectsShortPassword(t *testing.T) {
	rootCmd.SetArgs([]string{"user", "create", "--username", "newsroom", "--password", "short"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 18 characters")
}

func TestUserCreate_RequiresFlags(t *testing.T) {
	rootCmd.SetArgs([]string{"user", "create"})
	assert.Error(t, rootCmd.Execute())
}

func TestUserCreate_RequiresEncryptionKey(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "postgres://hushline@127.0.0.1:1/hushline")
	t.Setenv("ENCRYPTION_KEY", "")

	rootCmd.SetArgs([]string{"user", "create", "--username", "newsroom", "--password", "correct horse battery staple"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENCRYPTION_KEY is required")
}

func TestFieldCipher(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	cipher, err := fieldCipher(&config.Config{EncryptionKey: key})
	require.NoError(t, err)

	enc, err := cipher.Encrypt("tips@newsroom.example")
	require.NoError(t, err)
	dec, err := cipher.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "tips@newsroom.example", dec)

	_, err = fieldCipher(&config.Config{EncryptionKey: "c2hvcnQ="})
	assert.ErrorContains(t, err, "32 bytes")
}
