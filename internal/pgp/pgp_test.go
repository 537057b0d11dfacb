package pgp

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testKeyOnce    sync.Once
	testEntity     *openpgp.Entity
	testPublicKey  string
	testPrivateKey string
)

// testKey generates one RSA key pair per test binary.
func testKey(t *testing.T) (*openpgp.Entity, string) {
	t.Helper()
	testKeyOnce.Do(func() {
		e, err := openpgp.NewEntity("Newsroom Tips", "", "tips@newsroom.example", nil)
		if err != nil {
			panic(err)
		}
		testEntity = e

		var pub bytes.Buffer
		w, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
		if err != nil {
			panic(err)
		}
		if err := e.Serialize(w); err != nil {
			panic(err)
		}
		w.Close()
		testPublicKey = pub.String()

		var priv bytes.Buffer
		w, err = armor.Encode(&priv, openpgp.PrivateKeyType, nil)
		if err != nil {
			panic(err)
		}
		if err := e.SerializePrivate(w, nil); err != nil {
			panic(err)
		}
		w.Close()
		testPrivateKey = priv.String()
	})
	return testEntity, testPublicKey
}

func decrypt(t *testing.T, entity *openpgp.Entity, armored string) string {
	t.Helper()
	block, err := armor.Decode(strings.NewReader(armored))
	require.NoError(t, err)
	assert.Equal(t, "PGP MESSAGE", block.Type)

	md, err := openpgp.ReadMessage(block.Body, openpgp.EntityList{entity}, nil, nil)
	require.NoError(t, err)
	body, err := io.ReadAll(md.UnverifiedBody)
	require.NoError(t, err)
	return string(body)
}

func TestParsePublicKey_Valid(t *testing.T) {
	entity, armored := testKey(t)

	key, err := ParsePublicKey("\n\n" + armored + "\n  ")
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(armored), key.Armored())
	assert.Equal(t, "tips@newsroom.example", key.PrimaryEmail())
	assert.Equal(t, strings.ToUpper(fmt.Sprintf("%x", entity.PrimaryKey.Fingerprint)), key.Fingerprint())
}

func TestParsePublicKey_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"   \n",
		"not a key",
		"-----BEGIN PGP PUBLIC KEY BLOCK-----\n\nAAAA\n-----END PGP PUBLIC KEY BLOCK-----",
	} {
		_, err := ParsePublicKey(input)
		assert.ErrorIs(t, err, ErrInvalidKey, input)
	}
}

func TestParsePublicKey_RejectsPrivateKey(t *testing.T) {
	testKey(t)

	_, err := ParsePublicKey(testPrivateKey)
	assert.ErrorIs(t, err, ErrPrivateKey)
}

func TestEncrypt_RoundTrip(t *testing.T) {
	entity, armored := testKey(t)

	ciphertext, err := Encrypt("the documents are in the usual place", armored)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ciphertext, messageHeader))
	assert.NotContains(t, ciphertext, "usual place")

	assert.Equal(t, "the documents are in the usual place", decrypt(t, entity, ciphertext))
}

func TestEncrypt_AlreadyEncrypted(t *testing.T) {
	_, armored := testKey(t)

	ciphertext, err := Encrypt("hello", armored)
	require.NoError(t, err)

	again, err := Encrypt(ciphertext, armored)
	require.NoError(t, err)
	assert.Equal(t, ciphertext, again)
}

func TestEncrypt_InvalidKey(t *testing.T) {
	_, err := Encrypt("hello", "garbage")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestIsEncrypted(t *testing.T) {
	assert.True(t, IsEncrypted("-----BEGIN PGP MESSAGE-----\n..."))
	assert.True(t, IsEncrypted("  \n-----BEGIN PGP MESSAGE-----"))
	assert.False(t, IsEncrypted("plain text"))
}
