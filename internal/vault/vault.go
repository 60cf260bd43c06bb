// Package vault provides symmetric encryption of tenant credentials at rest
// using a versioned envelope format.
//
// When a master passphrase is configured, secrets are encrypted with
// AES-256-GCM under a PBKDF2-derived key (version 1 envelopes). Without a
// passphrase the vault degrades to a base64 passthrough (version 0), intended
// for development only.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/haasonsaas/leadflow/pkg/models"
)

// ErrDecryptionFailed indicates a corrupted or tampered envelope. It is never
// retried; the stored credential must be re-saved through the admin path.
var ErrDecryptionFailed = errors.New("vault: decryption failed")

const (
	// versionPlaintext marks a base64 passthrough envelope (no master key).
	versionPlaintext = 0

	// versionGCM marks an AES-256-GCM envelope.
	versionGCM = 1

	// keySalt is the fixed application salt for PBKDF2 key derivation.
	// Changing it invalidates every version-1 envelope ever written.
	keySalt = "leadflow-encryption-salt-v1"

	pbkdf2Iterations = 100_000
	keyLen           = 32
	nonceLen         = 12
	tagLen           = 16
)

// Vault encrypts and decrypts credential envelopes. The zero value is not
// usable; construct with New.
type Vault struct {
	// key is the derived AES key, nil when no passphrase is configured.
	key []byte
}

// New creates a vault. An empty passphrase yields a passthrough vault that
// writes version-0 envelopes.
func New(passphrase string) *Vault {
	if passphrase == "" {
		return &Vault{}
	}
	// PBKDF2 is deliberately slow; derive once and keep the key.
	key := pbkdf2.Key([]byte(passphrase), []byte(keySalt), pbkdf2Iterations, keyLen, sha256.New)
	return &Vault{key: key}
}

// Configured reports whether a master passphrase is set.
func (v *Vault) Configured() bool {
	return len(v.key) > 0
}

// Encrypt seals plaintext into an envelope. Without a configured passphrase
// the plaintext is stored as base64 with version 0.
func (v *Vault) Encrypt(plaintext string) (models.EncryptedSecret, error) {
	if !v.Configured() || plaintext == "" {
		return models.EncryptedSecret{
			Cipher:  base64.StdEncoding.EncodeToString([]byte(plaintext)),
			Version: versionPlaintext,
		}, nil
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return models.EncryptedSecret{}, fmt.Errorf("vault: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return models.EncryptedSecret{}, fmt.Errorf("vault: create gcm: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return models.EncryptedSecret{}, fmt.Errorf("vault: generate nonce: %w", err)
	}

	// Seal appends the auth tag to the ciphertext; the envelope stores them
	// separately.
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagLen]
	tag := sealed[len(sealed)-tagLen:]

	return models.EncryptedSecret{
		Cipher:  base64.StdEncoding.EncodeToString(ciphertext),
		IV:      base64.StdEncoding.EncodeToString(nonce),
		Tag:     base64.StdEncoding.EncodeToString(tag),
		Version: versionGCM,
	}, nil
}

// Decrypt opens an envelope and returns the plaintext. Dispatch is on the
// envelope's own version field: a version-0 envelope decodes as base64 even
// when a passphrase is configured. Records written before a key was set
// therefore stay unencrypted until re-saved.
func (v *Vault) Decrypt(secret models.EncryptedSecret) (string, error) {
	if secret.Cipher == "" {
		return "", nil
	}

	switch secret.Version {
	case versionPlaintext:
		plain, err := base64.StdEncoding.DecodeString(secret.Cipher)
		if err != nil {
			return "", fmt.Errorf("%w: invalid base64 in version-0 envelope", ErrDecryptionFailed)
		}
		return string(plain), nil

	case versionGCM:
		if !v.Configured() {
			return "", fmt.Errorf("%w: no master passphrase configured", ErrDecryptionFailed)
		}
		return v.decryptGCM(secret)

	default:
		return "", fmt.Errorf("%w: unknown envelope version %d", ErrDecryptionFailed, secret.Version)
	}
}

func (v *Vault) decryptGCM(secret models.EncryptedSecret) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(secret.Cipher)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext encoding", ErrDecryptionFailed)
	}
	nonce, err := base64.StdEncoding.DecodeString(secret.IV)
	if err != nil || len(nonce) != nonceLen {
		return "", fmt.Errorf("%w: invalid nonce", ErrDecryptionFailed)
	}
	tag, err := base64.StdEncoding.DecodeString(secret.Tag)
	if err != nil || len(tag) != tagLen {
		return "", fmt.Errorf("%w: invalid auth tag", ErrDecryptionFailed)
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("vault: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("vault: create gcm: %w", err)
	}

	plain, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: auth tag mismatch", ErrDecryptionFailed)
	}
	return string(plain), nil
}
