package fixture

import "errors"

var (
	// ErrAccountNotFound: an account id could not be resolved and the
	// store is not in permissive mode.
	ErrAccountNotFound = errors.New("ErrAccountNotFound")

	// ErrInvalidFixture: a fixture snapshot file is malformed.
	ErrInvalidFixture = errors.New("ErrInvalidFixture")
)
