package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"
	"unicode"
)

const (
	otpDigits      = 6
	minPhoneDigits = 9
)

var otpSpace = big.NewInt(1_000_000)

// GenerateOTP draws a uniformly random 6-digit code from r, zero-padded.
// A nil r means crypto/rand.
func GenerateOTP(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	n, err := rand.Int(r, otpSpace)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// HashOTP is the stored form of a code.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// NormalizePhone strips every non-digit character. Fewer than nine digits
// left is a validation error.
func NormalizePhone(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", invalid("Phone number is required")
	}
	var b strings.Builder
	for _, r := range raw {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	phone := b.String()
	if len(phone) < minPhoneDigits {
		return "", invalid("Invalid phone number format")
	}
	return phone, nil
}
