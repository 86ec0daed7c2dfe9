package pgcheck

import "fmt"

// AssertionError reports observed data or behavior that did not match.
type AssertionError struct {
	Check    string
	Expected string
	Observed string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, observed %s", e.Check, e.Expected, e.Observed)
}

// Assertf returns an *AssertionError when ok is false.
func Assertf(ok bool, check, expected, observed string, args ...any) error {
	if ok {
		return nil
	}
	return &AssertionError{Check: check, Expected: expected, Observed: fmt.Sprintf(observed, args...)}
}
