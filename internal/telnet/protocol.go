package telnet

// Telnet command bytes (RFC 854).
const (
	IAC  = 0xFF // Interpret As Command
	DONT = 0xFE
	DO   = 0xFD
	WONT = 0xFC
	WILL = 0xFB
	SB   = 0xFA // Subnegotiation Begin
	SE   = 0xF0 // Subnegotiation End
)

// Filter removes telnet command sequences from an inbound stream and refuses
// every option the device tries to negotiate. OLT terminals are expected to
// emit plain text after connect; the filter exists so stray negotiation
// bytes never reach the accumulation buffer. Parse state survives across
// chunks, so a sequence split between two reads is still removed.
type Filter struct {
	writer func([]byte) error
	state  int
	cmd    byte
}

const (
	filterData   = iota // plain stream bytes
	filterIAC           // saw IAC
	filterOption        // saw IAC DO/DONT/WILL/WONT, option byte follows
	filterSub           // inside subnegotiation, waiting for IAC SE
	filterSubIAC        // saw IAC inside subnegotiation
)

// NewFilter creates a filter. Refusal responses are sent through writer as
// negotiation requests arrive.
func NewFilter(writer func([]byte) error) *Filter {
	return &Filter{writer: writer}
}

// Process returns data with telnet command sequences removed.
func (f *Filter) Process(data []byte) []byte {
	result := make([]byte, 0, len(data))

	for _, b := range data {
		switch f.state {
		case filterData:
			if b == IAC {
				f.state = filterIAC
			} else {
				result = append(result, b)
			}

		case filterIAC:
			switch b {
			case IAC:
				// escaped 0xFF is a literal data byte
				result = append(result, IAC)
				f.state = filterData
			case DO, DONT, WILL, WONT:
				f.cmd = b
				f.state = filterOption
			case SB:
				f.state = filterSub
			default:
				// two-byte command, dropped
				f.state = filterData
			}

		case filterOption:
			f.refuse(f.cmd, b)
			f.state = filterData

		case filterSub:
			if b == IAC {
				f.state = filterSubIAC
			}

		case filterSubIAC:
			switch b {
			case SE:
				f.state = filterData
			case IAC:
				// escaped IAC inside subnegotiation, still skipping
				f.state = filterSub
			default:
				f.state = filterSub
			}
		}
	}

	return result
}

// refuse answers DO with WONT and WILL with DONT. DONT and WONT are already
// negative and get no reply, which keeps a misbehaving peer from looping.
// A write failure here is ignored: the same dead transport fails the main
// read path immediately after.
func (f *Filter) refuse(cmd, option byte) {
	switch cmd {
	case DO:
		_ = f.writer([]byte{IAC, WONT, option})
	case WILL:
		_ = f.writer([]byte{IAC, DONT, option})
	}
}
