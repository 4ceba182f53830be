package apperr

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrBadStatus = errors.New("bad http status")
)
