package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateSecureToken creates a cryptographically secure random token.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// LocalUID builds the synthetic identity subject for email/password
// accounts, e.g. "email_1717171717171_c41d9f2c". The random suffix
// keeps two registrations in the same millisecond off the uid unique
// index.
func LocalUID() string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("email_%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("email_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}
