package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	sealVersion     = "v1."
	minSecretLength = 32
)

var (
	// ErrInvalidSeal is returned when a sealed value cannot be opened.
	ErrInvalidSeal = errors.New("invalid sealed session")
	// ErrShortSecret is returned for secrets below the minimum length.
	ErrShortSecret = fmt.Errorf("session secret must be at least %d chars", minSecretLength)
)

// Data is the sealed session payload. An empty ID means an anonymous session.
type Data struct {
	ID       string `json:"id,omitempty"`
	IssuedAt int64  `json:"iat,omitempty"`
}

// Anonymous reports whether the session carries no user id.
func (d Data) Anonymous() bool {
	return d.ID == ""
}

// Options configure the session cookie.
type Options struct {
	Name   string
	Secret string
	MaxAge time.Duration
	Secure bool
}

// Manager seals session data into cookie values.
type Manager struct {
	name   string
	maxAge time.Duration
	secure bool
	aead   cipher.AEAD
	now    func() time.Time
}

// NewManager derives the sealing key from opts.Secret.
func NewManager(opts Options) (*Manager, error) {
	if len(opts.Secret) < minSecretLength {
		return nil, ErrShortSecret
	}
	if opts.Name == "" {
		return nil, errors.New("session cookie name is required")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(opts.Secret), nil, []byte("surveyhub session"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init session cipher: %w", err)
	}

	return &Manager{
		name:   opts.Name,
		maxAge: opts.MaxAge,
		secure: opts.Secure,
		aead:   aead,
		now:    time.Now,
	}, nil
}

// CookieName returns the configured cookie name.
func (m *Manager) CookieName() string {
	return m.name
}

// Seal encrypts and authenticates d.
func (m *Manager) Seal(d Data) (string, error) {
	plaintext, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, m.aead.NonceSize(), m.aead.NonceSize()+len(plaintext)+m.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := m.aead.Seal(nonce, nonce, plaintext, []byte(m.name))
	return sealVersion + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Unseal reverses Seal. Any tampering yields ErrInvalidSeal.
func (m *Manager) Unseal(value string) (Data, error) {
	var d Data
	if !strings.HasPrefix(value, sealVersion) {
		return d, ErrInvalidSeal
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, sealVersion))
	if err != nil || len(raw) < m.aead.NonceSize() {
		return d, ErrInvalidSeal
	}
	nonce, ciphertext := raw[:m.aead.NonceSize()], raw[m.aead.NonceSize():]
	plaintext, err := m.aead.Open(nil, nonce, ciphertext, []byte(m.name))
	if err != nil {
		return d, ErrInvalidSeal
	}
	if err := json.Unmarshal(plaintext, &d); err != nil {
		return Data{}, ErrInvalidSeal
	}
	return d, nil
}
