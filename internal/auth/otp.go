package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/scrypt"
)

const (
	// OTPLength is the number of digits in a one-time code.
	OTPLength = 6

	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
)

var otpUpperBound = big.NewInt(1_000_000)

// OTPService issues and checks numeric one-time codes. Only digests are
// ever handed to storage.
type OTPService struct {
	rand io.Reader
}

// NewOTPService returns an OTPService backed by crypto/rand.
func NewOTPService() *OTPService {
	return &OTPService{rand: rand.Reader}
}

// Issue returns a fresh zero-padded 6-digit code.
func (s *OTPService) Issue() (string, error) {
	n, err := rand.Int(s.rand, otpUpperBound)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}

// Hash derives the stored digest of code, salted with identifier.
func (s *OTPService) Hash(code, identifier string) (string, error) {
	key, err := scrypt.Key([]byte(code), []byte(identifier), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Verify reports whether candidate hashes to digest, in constant time.
func (s *OTPService) Verify(candidate, identifier, digest string) bool {
	got, err := s.Hash(candidate, identifier)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(digest)) == 1
}
