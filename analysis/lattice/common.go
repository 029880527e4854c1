package lattice

import (
	"errors"
	"fmt"
)

var (
	errInternal     = errors.New("internal error")
	errMissingDeref = func(v ValueId) error {
		return fmt.Errorf("%w: no deref entry for live value id %v", errInternal, v)
	}
	errPatternMatch = func(v interface{}) error {
		return fmt.Errorf("invalid pattern match: %v %T", v, v)
	}
)
