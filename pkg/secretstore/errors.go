package secretstore

import "errors"

var (
	ErrNotFound      = errors.New("secret record not found")
	ErrConflict      = errors.New("pending enrollment changed concurrently")
	ErrUnavailable   = errors.New("secret store unavailable")
	ErrEmptyUserID   = errors.New("empty user id")
	ErrEmptyPending  = errors.New("empty pending id or secret")
	ErrCorruptSecret = errors.New("stored secret cannot be decrypted")
)
