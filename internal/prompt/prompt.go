// Package prompt classifies cleaned device output: is the device showing a
// login prompt, a password prompt, a command prompt, a rejection message, or
// a pagination stop? All functions are pure and keep no state.
package prompt

import (
	"strings"
)

// More is the literal pagination marker OLT firmware inserts between pages
// of long output.
const More = "--More--"

// Command prompt literals, most specific first. The shorter prompts are
// textual suffixes of the longer ones, so match order is the correctness
// condition: a buffer ending in "(config)#" must never classify as "#".
var terminals = []string{
	"(config-if)#",
	"(config)#",
	"#",
	">",
}

// Rejection phrases devices print on failed authentication.
var failures = []string{
	"login incorrect",
	"login invalid",
	"authentication failed",
	"access denied",
	"bad password",
}

// Terminal reports whether the buffer ends at a command prompt, returning
// the matched prompt literal. Trailing spaces and tabs after the prompt are
// tolerated.
func Terminal(buf string) (string, bool) {
	s := strings.TrimRight(buf, " \t")
	for _, p := range terminals {
		if strings.HasSuffix(s, p) {
			return p, true
		}
	}
	return "", false
}

// LoginSuccess reports whether the buffer ends at any prompt that counts as
// a successful login. Beyond the command prompt set this accepts "$", which
// some firmware drops to before the first privilege escalation.
func LoginSuccess(buf string) (string, bool) {
	if p, ok := Terminal(buf); ok {
		return p, true
	}
	s := strings.TrimRight(buf, " \t")
	if strings.HasSuffix(s, "$") {
		return "$", true
	}
	return "", false
}

// Username reports whether the device is asking for a login name.
func Username(buf string) bool {
	line := strings.ToLower(strings.TrimSpace(lastLine(buf)))
	return strings.HasSuffix(line, "login:") || strings.HasSuffix(line, "username:")
}

// Password reports whether the device is asking for a password. This covers
// both the login exchange and the re-authentication prompt that follows
// privilege-escalating commands.
func Password(buf string) bool {
	line := strings.ToLower(strings.TrimSpace(lastLine(buf)))
	return strings.HasSuffix(line, "password:")
}

// LoginFailure reports whether the buffer contains one of the fixed
// rejection phrases.
func LoginFailure(buf string) bool {
	s := strings.ToLower(buf)
	for _, phrase := range failures {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}

// HasMore reports whether the buffer contains the pagination marker.
func HasMore(buf string) bool {
	return strings.Contains(buf, More)
}

// lastLine returns the text after the final newline: the line the cursor is
// sitting on. Prompts never end in a newline, so this is where they live.
func lastLine(buf string) string {
	if i := strings.LastIndexByte(buf, '\n'); i >= 0 {
		return buf[i+1:]
	}
	return buf
}
