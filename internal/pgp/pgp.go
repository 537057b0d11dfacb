// Package pgp validates recipients' public keys and encrypts outgoing
// message bodies to them.
package pgp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

const messageHeader = "-----BEGIN PGP MESSAGE-----"

var (
	ErrInvalidKey    = errors.New("invalid PGP public key")
	ErrPrivateKey    = errors.New("a private key was provided, paste the public key instead")
	ErrNoEncryptable = errors.New("PGP key has no encryption-capable subkey")
)

// PublicKey is a parsed, validated armored public key.
type PublicKey struct {
	armored  string
	entities openpgp.EntityList
}

// ParsePublicKey parses an ASCII-armored public key block and checks that it
// can be used to encrypt.
func ParsePublicKey(armored string) (*PublicKey, error) {
	armored = strings.TrimSpace(armored)
	if armored == "" {
		return nil, ErrInvalidKey
	}

	entities, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armored))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(entities) == 0 {
		return nil, ErrInvalidKey
	}

	now := time.Now()
	for _, e := range entities {
		if e.PrivateKey != nil {
			return nil, ErrPrivateKey
		}
		if _, ok := e.EncryptionKey(now); !ok {
			return nil, ErrNoEncryptable
		}
	}

	return &PublicKey{armored: armored, entities: entities}, nil
}

// Armored returns the trimmed armored text the key was parsed from.
func (k *PublicKey) Armored() string {
	return k.armored
}

// Fingerprint returns the upper-case hex fingerprint of the first primary key.
func (k *PublicKey) Fingerprint() string {
	return strings.ToUpper(fmt.Sprintf("%x", k.entities[0].PrimaryKey.Fingerprint))
}

// PrimaryEmail returns the email of the first key's primary identity, or ""
// when the identity carries none.
func (k *PublicKey) PrimaryEmail() string {
	if id := k.entities[0].PrimaryIdentity(); id != nil && id.UserId != nil {
		return id.UserId.Email
	}
	return ""
}

// Encrypt encrypts message to every key in the block and returns the armored
// ciphertext.
func (k *PublicKey) Encrypt(message string) (string, error) {
	var buf bytes.Buffer
	armorWriter, err := armor.Encode(&buf, "PGP MESSAGE", nil)
	if err != nil {
		return "", fmt.Errorf("armor encode: %w", err)
	}

	plaintext, err := openpgp.Encrypt(armorWriter, k.entities, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	if _, err := io.WriteString(plaintext, message); err != nil {
		return "", fmt.Errorf("write plaintext: %w", err)
	}
	if err := plaintext.Close(); err != nil {
		return "", fmt.Errorf("close plaintext: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return "", fmt.Errorf("close armor: %w", err)
	}

	return buf.String(), nil
}

// Encrypt parses armoredKey and encrypts message to it. A message that is
// already an armored PGP message is returned unchanged.
func Encrypt(message, armoredKey string) (string, error) {
	if IsEncrypted(message) {
		return message, nil
	}
	key, err := ParsePublicKey(armoredKey)
	if err != nil {
		return "", err
	}
	return key.Encrypt(message)
}

// IsEncrypted reports whether s is already an armored PGP message.
func IsEncrypted(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), messageHeader)
}
