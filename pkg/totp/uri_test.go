package totp_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpguard/pkg/totp"
)

func TestProvisioningURI(t *testing.T) {
	t.Parallel()

	uri, err := totp.ProvisioningURI(totp.URIParams{
		Secret:      "jbsw y3dp ehpk 3pxp",
		AccountName: "alice@example.com",
		Issuer:      "Acme Corp",
	})
	require.NoError(t, err)

	u, err := url.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "totp", u.Host)
	assert.Equal(t, "/Acme Corp:alice@example.com", u.Path)

	q := u.Query()
	assert.Equal(t, "JBSWY3DPEHPK3PXP", q.Get("secret"))
	assert.Equal(t, "Acme Corp", q.Get("issuer"))
	assert.Equal(t, "SHA1", q.Get("algorithm"))
	assert.Equal(t, "6", q.Get("digits"))
	assert.Equal(t, "30", q.Get("period"))
}

func TestProvisioningURI_ParsesWithReferenceLibrary(t *testing.T) {
	t.Parallel()
	e := totp.MustNewEngine(totp.WithParams(totp.Params{
		Digits:    8,
		Period:    60,
		Algorithm: totp.AlgorithmSHA256,
	}))
	secret, err := e.GenerateSecret()
	require.NoError(t, err)

	uri, err := e.ProvisioningURI(secret, "bob@example.com", "Acme")
	require.NoError(t, err)

	key, err := otp.NewKeyFromURL(uri)
	require.NoError(t, err)
	assert.Equal(t, "totp", key.Type())
	assert.Equal(t, secret, key.Secret())
	assert.Equal(t, "Acme", key.Issuer())
	assert.Equal(t, "bob@example.com", key.AccountName())
	assert.Equal(t, uint64(60), key.Period())
	assert.Equal(t, otp.DigitsEight, key.Digits())
	assert.Equal(t, otp.AlgorithmSHA256, key.Algorithm())

	// A code computed from the URI contents matches the engine.
	at := time.Unix(1_700_000_000, 0)
	want, err := e.GenerateAt(secret, at)
	require.NoError(t, err)
	got, err := totp.ComputeCode(key.Secret(), totp.Counter(at, int(key.Period())), key.Digits().Length(), totp.AlgorithmSHA256)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestProvisioningURI_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		params totp.URIParams
		target error
	}{
		{name: "missing secret", params: totp.URIParams{AccountName: "a", Issuer: "b"}, target: totp.ErrMissingSecret},
		{name: "bad secret", params: totp.URIParams{Secret: "!!", AccountName: "a", Issuer: "b"}, target: totp.ErrInvalidSecret},
		{name: "missing account", params: totp.URIParams{Secret: "JBSWY3DPEHPK3PXP", Issuer: "b"}, target: totp.ErrMissingAccountName},
		{name: "missing issuer", params: totp.URIParams{Secret: "JBSWY3DPEHPK3PXP", AccountName: "a"}, target: totp.ErrMissingIssuer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			uri, err := totp.ProvisioningURI(tt.params)
			assert.ErrorIs(t, err, tt.target)
			assert.Empty(t, uri)
		})
	}
}
