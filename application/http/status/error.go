package status

import (
	"fmt"
	"strings"
)

// UnexpectedError reports a response whose status is not among the
// accepted ones.
type UnexpectedError struct {
	Got      uint
	Expected []uint
}

func NewUnexpectedError(got uint, expected ...uint) UnexpectedError {
	return UnexpectedError{Got: got, Expected: expected}
}

func (e UnexpectedError) Error() string {
	want := make([]string, 0, len(e.Expected))
	for _, code := range e.Expected {
		want = append(want, Describe(code))
	}

	return fmt.Sprintf("unexpected status %s, want %s", Describe(e.Got), strings.Join(want, " or "))
}

// Expect returns an [UnexpectedError] unless got is one of expected.
func Expect(got uint, expected ...uint) error {
	for _, code := range expected {
		if code == got {
			return nil
		}
	}
	return NewUnexpectedError(got, expected...)
}
