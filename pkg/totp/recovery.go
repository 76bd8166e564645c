package totp

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"strings"
)

// RecoveryCodeSize is the entropy of one recovery code in bytes.
const RecoveryCodeSize = 8

// GenerateRecoveryCodes returns count backup codes drawn from the engine's
// random source. Each code is 16 uppercase hex digits in groups of four,
// e.g. "3F2A-9C01-77B4-E0D5". Store only HashRecoveryCode of each.
func (e *Engine) GenerateRecoveryCodes(count int) ([]string, error) {
	if count < 1 {
		return nil, errors.Join(ErrInvalidParameter, ErrInvalidRecoveryCodeCount)
	}

	codes := make([]string, count)
	buf := make([]byte, RecoveryCodeSize)
	for i := range codes {
		if _, err := io.ReadFull(e.random, buf); err != nil {
			return nil, errors.Join(ErrFailedToGenerateRecoveryCode, err)
		}
		raw := strings.ToUpper(hex.EncodeToString(buf))
		codes[i] = raw[0:4] + "-" + raw[4:8] + "-" + raw[8:12] + "-" + raw[12:16]
	}
	return codes, nil
}

// normalizeRecoveryCode drops separators and case so users can type codes
// loosely.
func normalizeRecoveryCode(code string) string {
	return strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(code)))
}

// HashRecoveryCode returns the hex SHA-256 of the normalized code.
func HashRecoveryCode(code string) string {
	sum := sha256.Sum256([]byte(normalizeRecoveryCode(code)))
	return hex.EncodeToString(sum[:])
}

// VerifyRecoveryCode reports whether code hashes to hashedCode, comparing
// in constant time.
func VerifyRecoveryCode(code, hashedCode string) bool {
	return subtle.ConstantTimeCompare([]byte(HashRecoveryCode(code)), []byte(hashedCode)) == 1
}
