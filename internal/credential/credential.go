package credential

import "errors"

// ErrNotFound is returned when the owner has not stored a bank access token.
var ErrNotFound = errors.New("access credential not found")
