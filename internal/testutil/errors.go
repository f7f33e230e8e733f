package testutil

import "errors"

// ErrSimulated is returned by fakes that are told to fail.
var ErrSimulated = errors.New("testutil: simulated failure")
