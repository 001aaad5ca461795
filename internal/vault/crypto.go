package vault

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gtank/cryptopasta"
)

// Entries are sealed with AES-GCM and signed, stored as
// "base64(ciphertext).base64(signature)". The key file is one
// base64 line of 64 random bytes: the first 32 encrypt, the last 32 sign.

const keyBytes = 64

type keyring struct {
	enc *[32]byte
	sig *[32]byte
}

// WriteNewKey generates a fresh key file at path. Creation is exclusive so
// an existing key can never be clobbered, and the file is readable only by
// its owner.
func WriteNewKey(path string) error {
	raw := make([]byte, keyBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return fmt.Errorf("generating key: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating key file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(base64.RawURLEncoding.EncodeToString(raw) + "\n"); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return f.Sync()
}

// loadKey reads a key file and splits it into its two halves.
func loadKey(path string) (*keyring, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("key file is not valid base64: %w", err)
	}
	if len(raw) != keyBytes {
		return nil, fmt.Errorf("key file holds %d bytes, want %d", len(raw), keyBytes)
	}

	kr := &keyring{enc: &[32]byte{}, sig: &[32]byte{}}
	copy(kr.enc[:], raw[:32])
	copy(kr.sig[:], raw[32:])
	return kr, nil
}

// seal encrypts and signs one password entry.
func (k *keyring) seal(plaintext []byte) (string, error) {
	ciphertext, err := cryptopasta.Encrypt(plaintext, k.enc)
	if err != nil {
		return "", fmt.Errorf("encrypting entry: %w", err)
	}
	signature := cryptopasta.GenerateHMAC(ciphertext, k.sig)
	return base64.RawURLEncoding.EncodeToString(ciphertext) + "." +
		base64.RawURLEncoding.EncodeToString(signature), nil
}

// open is the inverse of seal. A bad signature or an undecryptable entry is
// an error; entries are never passed through as plaintext.
func (k *keyring) open(entry string) ([]byte, error) {
	bits := strings.SplitN(entry, ".", 2)
	if len(bits) != 2 {
		return nil, errors.New("entry is not in ciphertext.signature form")
	}

	ciphertext, err := base64.RawURLEncoding.DecodeString(bits[0])
	if err != nil {
		return nil, fmt.Errorf("decoding entry: %w", err)
	}
	signature, err := base64.RawURLEncoding.DecodeString(bits[1])
	if err != nil {
		return nil, fmt.Errorf("decoding signature: %w", err)
	}

	if !cryptopasta.CheckHMAC(ciphertext, signature, k.sig) {
		return nil, errors.New("signature check failed")
	}

	plaintext, err := cryptopasta.Decrypt(ciphertext, k.enc)
	if err != nil {
		return nil, fmt.Errorf("decrypting entry: %w", err)
	}
	return plaintext, nil
}
