package totp

import (
	"fmt"
	"net/url"
	"strconv"
)

// URIParams contains the parameters for provisioning URI generation.
type URIParams struct {
	Secret      string    // Base32-encoded TOTP secret key (required)
	AccountName string    // User identifier like email (required)
	Issuer      string    // Service name displayed in authenticator apps (required)
	Algorithm   Algorithm // Defaults to SHA1
	Digits      int       // Defaults to 6
	Period      int       // Defaults to 30
}

// Validate ensures all required URI parameters are present and valid.
func (p URIParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if err := ValidateSecret(p.Secret); err != nil {
		return err
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// ProvisioningURI creates an otpauth:// URI for authenticator apps.
// The format follows https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func ProvisioningURI(p URIParams) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}

	label := fmt.Sprintf("%s:%s", url.PathEscape(p.Issuer), url.PathEscape(p.AccountName))

	query := url.Values{}
	query.Set("secret", NormalizeSecret(p.Secret))
	query.Set("issuer", p.Issuer)
	query.Set("algorithm", p.Algorithm.String())
	query.Set("digits", strconv.Itoa(p.Digits))
	query.Set("period", strconv.Itoa(p.Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

// ProvisioningURI builds the URI for secret using the engine parameters.
func (e *Engine) ProvisioningURI(secret, accountName, issuer string) (string, error) {
	return ProvisioningURI(URIParams{
		Secret:      secret,
		AccountName: accountName,
		Issuer:      issuer,
		Algorithm:   e.params.Algorithm,
		Digits:      e.params.Digits,
		Period:      e.params.Period,
	})
}
