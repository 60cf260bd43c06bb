package models

// EncryptedSecret is the envelope for a credential stored at rest.
//
// Version 0 means the cipher field is a base64 passthrough of the plaintext,
// written when no master passphrase is configured (dev mode). Version 1 means
// AES-256-GCM with a PBKDF2-derived key; IV and Tag are required to decrypt.
// Envelopes are immutable: a key rotation writes a new envelope rather than
// mutating ciphertext in place.
type EncryptedSecret struct {
	// Cipher is base64-encoded ciphertext (or plaintext for version 0).
	Cipher string `json:"cipher"`

	// IV is the base64-encoded 96-bit GCM nonce. Empty for version 0.
	IV string `json:"iv,omitempty"`

	// Tag is the base64-encoded GCM auth tag. Empty for version 0.
	Tag string `json:"tag,omitempty"`

	// Version selects the envelope format: 0 = plaintext passthrough,
	// 1 = AES-256-GCM.
	Version int `json:"ver"`
}

// IsZero reports whether the envelope holds no secret at all.
func (s EncryptedSecret) IsZero() bool {
	return s.Cipher == "" && s.IV == "" && s.Tag == ""
}
