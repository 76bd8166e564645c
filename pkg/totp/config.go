package totp

// Config holds environment-driven engine settings.
// Load it with config.Load and convert with Params.
type Config struct {
	Digits        int    `env:"TOTP_DIGITS" envDefault:"6"`
	Period        int    `env:"TOTP_PERIOD" envDefault:"30"`
	Algorithm     string `env:"TOTP_ALGORITHM" envDefault:"SHA1"`
	Skew          int    `env:"TOTP_SKEW" envDefault:"1"`
	SecretSize    int    `env:"TOTP_SECRET_SIZE" envDefault:"20"`
	Issuer        string `env:"TOTP_ISSUER"`
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY"` // Base64 32-byte key; secrets stored in plaintext when empty
}

// Params converts the config into validated engine parameters.
func (c Config) Params() (Params, error) {
	alg := DefaultAlgorithm
	if c.Algorithm != "" {
		var err error
		if alg, err = ParseAlgorithm(c.Algorithm); err != nil {
			return Params{}, err
		}
	}

	p := Params{
		Digits:     c.Digits,
		Period:     c.Period,
		Algorithm:  alg,
		Skew:       c.Skew,
		SecretSize: c.SecretSize,
	}.WithDefaults()

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// EncryptionKeyBytes decodes EncryptionKey. It returns nil, nil when unset.
func (c Config) EncryptionKeyBytes() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	return DecodeEncryptionKey(c.EncryptionKey)
}
