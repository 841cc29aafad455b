package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	AlgorithmAESGCM  = "aes-gcm"
	AlgorithmXChaCha = "xchacha20poly1305"
	AlgorithmNone    = "none"

	KeySize = 32
)

const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var ErrCiphertextTooShort = errors.New("ciphertext is too short to contain nonce")

// TextEncryptor encrypts short secrets for storage.
type TextEncryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// aeadEncryptor stores base64(nonce || sealed).
type aeadEncryptor struct {
	aead cipher.AEAD
}

// NewAESGCMEncryptor returns an AES-256-GCM encryptor. key must be 32 bytes.
func NewAESGCMEncryptor(key []byte) (TextEncryptor, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid encryption key length: must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &aeadEncryptor{aead: gcm}, nil
}

// NewXChaChaEncryptor returns an XChaCha20-Poly1305 encryptor. key must be 32 bytes.
func NewXChaChaEncryptor(key []byte) (TextEncryptor, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create XChaCha20-Poly1305: %w", err)
	}
	return &aeadEncryptor{aead: aead}, nil
}

func (e *aeadEncryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (e *aeadEncryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return "", ErrCiphertextTooShort
	}
	plaintext, err := e.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

type noopEncryptor struct{}

// NoopEncryptor stores secrets as given. Development only.
func NoopEncryptor() TextEncryptor { return noopEncryptor{} }

func (noopEncryptor) Encrypt(plaintext string) (string, error) { return plaintext, nil }

func (noopEncryptor) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

// DeriveKey stretches a passphrase into a 32 byte key with scrypt.
func DeriveKey(passphrase, salt string) ([]byte, error) {
	if passphrase == "" || salt == "" {
		return nil, errors.New("passphrase and salt are required")
	}
	key, err := scrypt.Key([]byte(passphrase), []byte(salt), scryptN, scryptR, scryptP, KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// ParseHexKey decodes a 64 character hex key.
func ParseHexKey(keyHex string) ([]byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key from hex: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid encryption key length: must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// NewTextEncryptor builds the encryptor for algorithm. key is ignored for AlgorithmNone.
func NewTextEncryptor(algorithm string, key []byte) (TextEncryptor, error) {
	switch algorithm {
	case AlgorithmAESGCM, "":
		return NewAESGCMEncryptor(key)
	case AlgorithmXChaCha:
		return NewXChaChaEncryptor(key)
	case AlgorithmNone:
		return NoopEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption algorithm: %s", algorithm)
	}
}
