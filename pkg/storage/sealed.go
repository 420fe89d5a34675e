package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

const (
	sealedPrefix = "sealed:v1:"

	// KeySealSalt holds the random salt the sealing key is derived with. It is
	// stored in clear text next to the sealed values.
	KeySealSalt = "sealSalt"

	saltSize      = 16
	argonTime     = 2
	argonMemoryKB = 19 * 1024
	argonThreads  = 1
)

// SealedKV encrypts values with XChaCha20-Poly1305 before handing them to the
// wrapped store. Keys stay in clear text. Values written before sealing was
// enabled are returned as-is and re-sealed on the next write.
type SealedKV struct {
	inner KV
	key   []byte
}

// NewSealedKV derives a 256-bit key from the passphrase with Argon2id. The
// salt is read from inner, or generated and stored there on first use.
func NewSealedKV(ctx context.Context, inner KV, passphrase string) (*SealedKV, error) {
	if passphrase == "" {
		return nil, errors.New("encryption key required")
	}
	salt, err := loadSalt(ctx, inner)
	if err != nil {
		return nil, err
	}
	key := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemoryKB, argonThreads, chacha20poly1305.KeySize)
	return &SealedKV{inner: inner, key: key}, nil
}

func loadSalt(ctx context.Context, inner KV) ([]byte, error) {
	encoded, err := inner.Get(ctx, KeySealSalt)
	switch {
	case err == nil:
		salt, err := base64.RawStdEncoding.DecodeString(encoded)
		if err != nil || len(salt) < saltSize {
			return nil, fmt.Errorf("stored seal salt is malformed")
		}
		return salt, nil
	case !errors.Is(err, appErrors.ErrCacheMiss):
		return nil, fmt.Errorf("read seal salt: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate seal salt: %w", err)
	}
	if err := inner.Set(ctx, KeySealSalt, base64.RawStdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("store seal salt: %w", err)
	}
	return salt, nil
}

func (s *SealedKV) Get(ctx context.Context, key string) (string, error) {
	raw, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(raw, sealedPrefix) {
		return raw, nil
	}
	return s.open(strings.TrimPrefix(raw, sealedPrefix))
}

func (s *SealedKV) Set(ctx context.Context, key, value string) error {
	sealed, err := s.seal(value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, sealedPrefix+sealed)
}

func (s *SealedKV) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *SealedKV) Close() error {
	return s.inner.Close()
}

func (s *SealedKV) seal(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(out), nil
}

func (s *SealedKV) open(encoded string) (string, error) {
	data, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(data) < aead.NonceSize() {
		return "", errors.New("sealed value too short")
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}
	return string(plain), nil
}
