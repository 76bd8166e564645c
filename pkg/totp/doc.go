// Package totp implements the RFC 4226 / RFC 6238 one-time password engine used
// by the two-factor service: secret generation, code computation, drift-tolerant
// verification, provisioning URIs and AES-256-GCM helpers for secrets at rest.
//
// The package carries no per-user state and performs no I/O. Randomness and the
// clock are injected through Engine options so tests stay deterministic.
//
// # Architecture
//
//   • params.go – Algorithm (SHA1, SHA256, SHA512) and Params with validation.
//
//   • engine.go – Engine plus the pure functions ComputeCode, VerifyCode and
//     Counter. Verification walks the whole look-around window with constant-time
//     comparisons and never returns early, so a near miss and a far miss take the
//     same time and produce the same result.
//
//   • uri.go – otpauth:// provisioning URIs for Google Authenticator, 1Password and
//     compatible apps.
//
//   • aes256.go – EncryptSecret/DecryptSecret and DeriveUserKey (HKDF-SHA256) for
//     storing secrets encrypted under a per-user subkey.
//
//   • config.go – env-tag aware Config (TOTP_DIGITS, TOTP_PERIOD, TOTP_ALGORITHM,
//     TOTP_SKEW, TOTP_SECRET_SIZE, TOTP_ISSUER, TOTP_ENCRYPTION_KEY).
//
// # Usage
//
//	engine, err := totp.NewEngine()
//	if err != nil {
//	    return err
//	}
//
//	secret, _ := engine.GenerateSecret()
//	uri, _ := engine.ProvisioningURI(secret, "alice@example.com", "Acme")
//
//	ok, err := engine.Verify(secret, submittedCode)
//
// # Error Handling
//
// Parameter problems (digits outside 6..8, unsupported algorithm, undecodable
// secret) are reported with errors wrapping ErrInvalidParameter. A code that does
// not match is not an error: Verify returns false with a nil error.
//
// # See Also
//
//   • RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   • RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
package totp
