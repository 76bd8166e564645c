// Package config loads typed configuration from environment variables.
//
// Component configs are plain structs tagged for github.com/caarlos0/env/v11:
//
//	type Config struct {
//	    Digits int `env:"TOTP_DIGITS" envDefault:"6"`
//	}
//
//	cfg := config.MustLoad[totp.Config]()
//
// The first Load reads ./.env through github.com/joho/godotenv; real
// environment variables always win over values from the file. Call
// LoadEnvFiles explicitly before any Load to read other files instead.
//
// Load caches the parsed value per type, so repeated calls are cheap and
// consistent. Nested configs get their own variable prefix through the
// envPrefix struct tag.
package config
