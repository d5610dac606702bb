package services

import "errors"

// ErrInvalidArgument marks a request with a missing or malformed required
// field; handlers translate it to 400.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNotFound marks a direct lookup that matched nothing; handlers translate
// it to 404. Bulk operations report zero affected instead of returning it.
var ErrNotFound = errors.New("not found")
