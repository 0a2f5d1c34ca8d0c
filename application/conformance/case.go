package conformance

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
)

var (
	// ErrSkip marks a case that could not judge the target.
	ErrSkip = errors.New("skipped")

	// ErrExpectation marks a well-formed response that breaks a requirement
	// of its case.
	ErrExpectation = errors.New("expectation failed")
)

// Case is one check against a target.
type Case struct {
	ID          string
	Description string
	Run         func(ctx context.Context, s *Session) error
}

type Catalogue []Case

// Select returns the cases whose ID matches pattern, keeping their order.
// A nil pattern selects everything.
func (c Catalogue) Select(pattern *regexp.Regexp) Catalogue {
	if pattern == nil {
		return c
	}

	selected := make(Catalogue, 0, len(c))
	for _, tc := range c {
		if pattern.MatchString(tc.ID) {
			selected = append(selected, tc)
		}
	}
	return selected
}

func (c Catalogue) IDs() []string {
	ids := make([]string, len(c))
	for idx, tc := range c {
		ids[idx] = tc.ID
	}
	return ids
}

func skipf(format string, args ...any) error {
	return errors.Wrapf(ErrSkip, format, args...)
}

func expectationf(format string, args ...any) error {
	return errors.Wrapf(ErrExpectation, format, args...)
}
