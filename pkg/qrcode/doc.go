// Package qrcode renders otpauth provisioning URIs as QR images so users can
// enroll by scanning them with an authenticator app.
//
//	uri, _ := totp.ProvisioningURI(params)
//	src, err := qrcode.DataURI(uri, qrcode.WithSize(200))
//
// WriteFile produces the same image on disk for operator tooling.
package qrcode
