package ansi

// Clean normalizes raw device output before prompt matching or response
// parsing: ANSI sequences are stripped, carriage returns and stray control
// bytes are dropped, and each backspace erases the previously retained
// character. Newlines and tabs survive.
func Clean(text string) string {
	stripped := StripString(text)
	out := make([]rune, 0, len(stripped))

	for _, r := range stripped {
		switch {
		case r == '\b':
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case r == '\n' || r == '\t':
			out = append(out, r)
		case r == '\r' || r < 0x20 || r == 0x7f:
			// dropped
		default:
			out = append(out, r)
		}
	}

	return string(out)
}
