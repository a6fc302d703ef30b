// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package secrets implements the EncryptionService contract: AEAD
// encryption of provider tokens at rest, so RepositoryDescriptor.Token is
// opaque to everything but this package.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	klaskerrors "github.com/klask-search/klask/internal/errors"
)

// Service encrypts and decrypts opaque tokens with a single symmetric key.
type Service struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
}

// New builds a Service from keyString. A key that is not already exactly
// chacha20poly1305.KeySize (32) bytes is stretched to that length by
// hashing it with SHA-256, so operators can supply any passphrase.
func New(keyString string) (*Service, error) {
	key := deriveKey(keyString)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, klaskerrors.WrapWithMessage(err, "build cipher")
	}
	return &Service{aead: aead}, nil
}

func deriveKey(keyString string) []byte {
	if len(keyString) == chacha20poly1305.KeySize {
		return []byte(keyString)
	}
	sum := sha256.Sum256([]byte(keyString))
	return sum[:chacha20poly1305.KeySize]
}

// Encrypt returns a base64-encoded nonce||ciphertext suitable for storage.
func (s *Service) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", klaskerrors.WrapWithMessage(err, "generate nonce")
	}

	ciphertext := s.aead.Seal(nil, nonce, []byte(plaintext), nil)
	combined := append(nonce, ciphertext...)
	return base64.StdEncoding.EncodeToString(combined), nil
}

// Decrypt reverses Encrypt.
func (s *Service) Decrypt(encoded string) (string, error) {
	combined, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", klaskerrors.WrapWithMessage(err, "decode base64")
	}

	nonceSize := s.aead.NonceSize()
	if len(combined) < nonceSize {
		return "", fmt.Errorf("invalid encrypted data: too short")
	}

	nonce, ciphertext := combined[:nonceSize], combined[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", klaskerrors.WrapWithMessage(err, "decrypt")
	}
	return string(plaintext), nil
}
