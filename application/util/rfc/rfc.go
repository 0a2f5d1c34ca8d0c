// Package rfc describes conformance violations against the RFC productions
// the parsers enforce.
package rfc

import (
	"fmt"
	"strings"
)

// Section identifies a cited part of an RFC.
type Section string

const (
	RFC3986Sec1              Section = "RFC 3986 §1"
	RFC3986Sec2_1            Section = "RFC 3986 §2.1"
	RFC3986Sec3_1            Section = "RFC 3986 §3.1"
	RFC3986Sec3_2_1          Section = "RFC 3986 §3.2.1"
	RFC3986Sec3_2_2          Section = "RFC 3986 §3.2.2"
	RFC3986Sec3_2_3          Section = "RFC 3986 §3.2.3"
	RFC3986Sec3_3            Section = "RFC 3986 §3.3"
	RFC7230Sec2_6            Section = "RFC 7230 §2.6"
	RFC7230Sec3_1_2          Section = "RFC 7230 §3.1.2"
	RFC7230Sec3_3_1          Section = "RFC 7230 §3.3.1"
	RFC7230Sec3_3_2          Section = "RFC 7230 §3.3.2"
	RFC7230Sec3_3_2NoContent Section = "RFC 7230 §3.3.2/3.3.3.1"
	RFC7230Sec3_3_3          Section = "RFC 7230 §3.3.3"
	RFC7230Sec3_3_3_1        Section = "RFC 7230 §3.3.3.1"
	RFC7230Sec3_5            Section = "RFC 7230 §3.5"
	RFC7230Sec4_1            Section = "RFC 7230 §4.1"
	RFC7230Sec4_1_2          Section = "RFC 7230 §4.1.2"
	RFC7230AppB              Section = "RFC 7230 Appendix B"
	RFC7230AppB1             Section = "RFC 7230 Appendix B.1"
	RFC7231Sec4_3_6          Section = "RFC 7231 §4.3.6"
	RFC7231Sec4_3_7          Section = "RFC 7231 §4.3.7"
	RFC7231Sec6              Section = "RFC 7231 §6"
)

// NoPosition marks a violation that is not tied to a single index.
const NoPosition = -1

// Violation is a grammar or conformance defect found in wire data.
type Violation struct {
	Section  Section
	Fragment string // offending substring
	Position int    // index into the parsed input, or NoPosition
	Reason   string

	// State names the parser state that detected the violation.
	// Empty for parsers without states.
	State string
}

var _ error = (*Violation)(nil)

func New(section Section, fragment string, position int, reason string) *Violation {
	return &Violation{
		Section:  section,
		Fragment: fragment,
		Position: position,
		Reason:   reason,
	}
}

func Newf(section Section, fragment string, position int, format string, args ...any) *Violation {
	return New(section, fragment, position, fmt.Sprintf(format, args...))
}

func (v *Violation) Error() string {
	b := new(strings.Builder)
	b.WriteString(string(v.Section))
	b.WriteString(" violated")
	if v.State != "" {
		b.WriteString(" in ")
		b.WriteString(v.State)
	}
	b.WriteString(": ")
	b.WriteString(v.Reason)
	if v.Fragment != "" {
		fmt.Fprintf(b, " (%q", v.Fragment)
		if v.Position != NoPosition {
			fmt.Fprintf(b, " at %d", v.Position)
		}
		b.WriteByte(')')
	} else if v.Position != NoPosition {
		fmt.Fprintf(b, " (at %d)", v.Position)
	}
	return b.String()
}

// InState returns v annotated with the parser state that detected it.
func (v *Violation) InState(state fmt.Stringer) *Violation {
	v.State = state.String()
	return v
}

// Shift moves the position by offset, for violations found in a substring.
func (v *Violation) Shift(offset int) *Violation {
	if v.Position != NoPosition {
		v.Position += offset
	}
	return v
}
