package security

import (
	"errors"

	"github.com/matthewhartstonge/argon2"
)

var ErrEmptyPassword = errors.New("password must not be empty")

// PasswordHasher hashes and verifies passwords with argon2id.
type PasswordHasher struct {
	config argon2.Config
}

// HashConfig holds the argon2 cost parameters.
type HashConfig struct {
	TimeCost    uint32
	MemoryCost  uint32
	Parallelism uint8
}

// NewPasswordHasher creates a PasswordHasher. Zero cost values fall back to the argon2 defaults.
func NewPasswordHasher(cfg HashConfig) *PasswordHasher {
	config := argon2.DefaultConfig()
	if cfg.TimeCost > 0 {
		config.TimeCost = cfg.TimeCost
	}
	if cfg.MemoryCost > 0 {
		config.MemoryCost = cfg.MemoryCost
	}
	if cfg.Parallelism > 0 {
		config.Parallelism = cfg.Parallelism
	}

	return &PasswordHasher{config: config}
}

// HashPassword returns the encoded argon2id hash of password. The salt is random per call.
func (h *PasswordHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	encoded, err := h.config.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether password matches the encoded hash.
func (h *PasswordHasher) VerifyPassword(password, encodedHash string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
}
