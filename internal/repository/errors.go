package repository

import "errors"

// 0 rows for a lookup by key.
var ErrNotFound = errors.New("not found")
