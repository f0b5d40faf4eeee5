package web

import (
	"errors"
	"strconv"
)

// ErrInvalidID is returned for path ids that are not positive integers.
var ErrInvalidID = errors.New("id must be a positive integer")

// ParseID parses a positive integer path parameter.
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id < 1 {
		return 0, ErrInvalidID
	}
	return uint(id), nil
}
