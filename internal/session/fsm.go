package session

import (
	"oltd/internal/prompt"
)

// State is the engine's position in the connection lifecycle. Once a
// connection exists, inbound socket data is the sole external stimulus;
// operations only open states (Send moves Ready to AwaitingResponse), data
// moves them forward.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateReady
	StateAwaitingResponse
	StateAwaitingPagination
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateAwaitingPagination:
		return "awaiting_pagination"
	default:
		return "unknown"
	}
}

// Stimulus names what a cleaned buffer shows, classified for the state the
// session is in.
type Stimulus int

const (
	StimNone Stimulus = iota
	StimUsernamePrompt
	StimPasswordPrompt
	StimSuccessPrompt
	StimFailurePhrase
	StimTerminalPrompt
	StimMoreMarker
)

func (s Stimulus) String() string {
	switch s {
	case StimNone:
		return "none"
	case StimUsernamePrompt:
		return "username_prompt"
	case StimPasswordPrompt:
		return "password_prompt"
	case StimSuccessPrompt:
		return "success_prompt"
	case StimFailurePhrase:
		return "failure_phrase"
	case StimTerminalPrompt:
		return "terminal_prompt"
	case StimMoreMarker:
		return "more_marker"
	default:
		return "unknown"
	}
}

// classifyBuffer reduces the cleaned buffer to a stimulus. Evaluation order
// within each state is fixed: during authentication a username prompt is
// checked before a password prompt before a success prompt before a
// rejection phrase; while a command is outstanding the terminal prompt wins
// over the pagination marker, which wins over a password prompt. Pure.
func classifyBuffer(state State, buf string) Stimulus {
	if buf == "" {
		return StimNone
	}

	switch state {
	case StateAuthenticating:
		switch {
		case prompt.Username(buf):
			return StimUsernamePrompt
		case prompt.Password(buf):
			return StimPasswordPrompt
		case hasLoginSuccess(buf):
			return StimSuccessPrompt
		case prompt.LoginFailure(buf):
			return StimFailurePhrase
		}

	case StateAwaitingResponse, StateAwaitingPagination:
		switch {
		case hasTerminal(buf):
			return StimTerminalPrompt
		case prompt.HasMore(buf):
			return StimMoreMarker
		case prompt.Password(buf):
			return StimPasswordPrompt
		}
	}

	return StimNone
}

// transition yields the next state for a stimulus observed in a state, and
// whether the pair is legal. Side effects are the engine's business; this
// table only governs the state space, so illegal pairs stay auditable. Pure.
func transition(state State, stim Stimulus) (State, bool) {
	switch state {
	case StateAuthenticating:
		switch stim {
		case StimUsernamePrompt, StimPasswordPrompt:
			return StateAuthenticating, true
		case StimSuccessPrompt:
			return StateReady, true
		case StimFailurePhrase:
			return StateDisconnected, true
		}

	case StateReady:
		// unsolicited device chatter between commands is legal and inert
		return StateReady, true

	case StateAwaitingResponse:
		switch stim {
		case StimPasswordPrompt:
			return StateAwaitingResponse, true
		case StimTerminalPrompt:
			return StateReady, true
		case StimMoreMarker:
			return StateAwaitingPagination, true
		}

	case StateAwaitingPagination:
		switch stim {
		case StimTerminalPrompt:
			return StateReady, true
		case StimMoreMarker:
			return StateAwaitingPagination, true
		}
	}

	return state, false
}

func hasTerminal(buf string) bool {
	_, ok := prompt.Terminal(buf)
	return ok
}

func hasLoginSuccess(buf string) bool {
	_, ok := prompt.LoginSuccess(buf)
	return ok
}
