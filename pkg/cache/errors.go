package cache

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when a cache backend cannot be reached or
// prepared.
var ErrUnavailable = errors.New("cache backend unavailable")

func unavailable(backend string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, backend, err)
}
