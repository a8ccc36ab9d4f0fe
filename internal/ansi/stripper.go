package ansi

import (
	"strings"
)

// Stripper removes ANSI escape sequences from device output that arrives in
// arbitrary chunks. Parse state is kept between calls so a sequence split
// across two reads is still removed cleanly.
type Stripper struct {
	state int
}

const (
	stateNormal  = iota // plain text
	stateEscape         // saw ESC, next byte selects the sequence kind
	stateCSI            // inside ESC [ ... , ends on a final byte 0x40-0x7e
	stateOSC            // inside ESC ] ... , ends on BEL or ESC \
	stateOSCEsc         // saw ESC inside an OSC string, checking for ST
	stateCharset        // ESC ( or ESC ) , one designator byte follows
)

// NewStripper creates a streaming ANSI stripper.
func NewStripper() *Stripper {
	return &Stripper{state: stateNormal}
}

// Strip processes one chunk and returns it with ANSI sequences removed.
func (s *Stripper) Strip(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	for _, char := range text {
		switch s.state {
		case stateNormal:
			if char == '\x1b' {
				s.state = stateEscape
			} else {
				result.WriteRune(char)
			}

		case stateEscape:
			switch char {
			case '[':
				s.state = stateCSI
			case ']':
				s.state = stateOSC
			case '(', ')':
				s.state = stateCharset
			default:
				// single-character escape (RIS, IND, keypad modes, ...)
				s.state = stateNormal
			}

		case stateCSI:
			// parameter and intermediate bytes accumulate silently until
			// the final byte
			if char >= '@' && char <= '~' {
				s.state = stateNormal
			}

		case stateOSC:
			if char == '\x07' {
				s.state = stateNormal
			} else if char == '\x1b' {
				s.state = stateOSCEsc
			}

		case stateOSCEsc:
			if char == '\\' {
				s.state = stateNormal
			} else {
				s.state = stateOSC
			}

		case stateCharset:
			s.state = stateNormal
		}
	}

	return result.String()
}

// Reset clears the parse state, for reuse across connections.
func (s *Stripper) Reset() {
	s.state = stateNormal
}

// StripString strips ANSI sequences from a complete string.
func StripString(text string) string {
	return NewStripper().Strip(text)
}
