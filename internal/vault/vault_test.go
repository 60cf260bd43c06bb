package vault

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/haasonsaas/leadflow/pkg/models"
)

func TestRoundTrip_WithPassphrase(t *testing.T) {
	v := New("correct horse battery staple")

	plaintexts := []string{"sk-live-abc123", "a", "key with spaces and ünïcode"}
	for _, want := range plaintexts {
		secret, err := v.Encrypt(want)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", want, err)
		}
		if secret.Version != 1 {
			t.Errorf("expected version 1, got %d", secret.Version)
		}
		if secret.IV == "" || secret.Tag == "" {
			t.Error("expected iv and tag to be present")
		}

		got, err := v.Decrypt(secret)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != want {
			t.Errorf("round trip: got %q, want %q", got, want)
		}
	}
}

func TestRoundTrip_WithoutPassphrase(t *testing.T) {
	v := New("")

	secret, err := v.Encrypt("sk-live-abc123")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if secret.Version != 0 {
		t.Errorf("expected version 0, got %d", secret.Version)
	}
	if secret.IV != "" || secret.Tag != "" {
		t.Error("expected no iv or tag for version 0")
	}

	got, err := v.Decrypt(secret)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "sk-live-abc123" {
		t.Errorf("got %q, want %q", got, "sk-live-abc123")
	}
}

func TestDecrypt_Version0_IgnoresConfiguredKey(t *testing.T) {
	// A version-0 envelope must decode as plain base64 even when a
	// passphrase is configured.
	v := New("some-master-key")

	secret := models.EncryptedSecret{
		Cipher:  base64.StdEncoding.EncodeToString([]byte("legacy-plaintext-key")),
		Version: 0,
	}

	got, err := v.Decrypt(secret)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "legacy-plaintext-key" {
		t.Errorf("got %q, want %q", got, "legacy-plaintext-key")
	}
}

func TestDecrypt_TamperedTag(t *testing.T) {
	v := New("master")

	secret, err := v.Encrypt("sensitive")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	tag, _ := base64.StdEncoding.DecodeString(secret.Tag)
	tag[0] ^= 0xff
	secret.Tag = base64.StdEncoding.EncodeToString(tag)

	if _, err := v.Decrypt(secret); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	v := New("master")

	secret, err := v.Encrypt("sensitive")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	ct, _ := base64.StdEncoding.DecodeString(secret.Cipher)
	ct[0] ^= 0xff
	secret.Cipher = base64.StdEncoding.EncodeToString(ct)

	if _, err := v.Decrypt(secret); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecrypt_MalformedEnvelope(t *testing.T) {
	v := New("master")

	cases := []struct {
		name   string
		secret models.EncryptedSecret
	}{
		{"bad base64 cipher", models.EncryptedSecret{Cipher: "!!!not-base64", IV: "AAAAAAAAAAAAAAAA", Tag: "AAAAAAAAAAAAAAAAAAAAAA==", Version: 1}},
		{"missing iv", models.EncryptedSecret{Cipher: "AAAA", Version: 1}},
		{"unknown version", models.EncryptedSecret{Cipher: "AAAA", Version: 7}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.Decrypt(tc.secret); !errors.Is(err, ErrDecryptionFailed) {
				t.Errorf("expected ErrDecryptionFailed, got %v", err)
			}
		})
	}
}

func TestDecrypt_Version1_WithoutPassphrase(t *testing.T) {
	enc := New("master")
	secret, err := enc.Encrypt("sensitive")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	dec := New("")
	if _, err := dec.Decrypt(secret); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecrypt_EmptyCipher(t *testing.T) {
	v := New("master")
	got, err := v.Decrypt(models.EncryptedSecret{})
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty plaintext, got %q", got)
	}
}
