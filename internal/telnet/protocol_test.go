package telnet

import (
	"bytes"
	"testing"
)

func newCapturingFilter() (*Filter, *[][]byte) {
	var sent [][]byte
	f := NewFilter(func(p []byte) error {
		buf := make([]byte, len(p))
		copy(buf, p)
		sent = append(sent, buf)
		return nil
	})
	return f, &sent
}

func TestFilter_PlainTextPassthrough(t *testing.T) {
	f, sent := newCapturingFilter()

	out := f.Process([]byte("OLT> show version\r\n"))
	if string(out) != "OLT> show version\r\n" {
		t.Errorf("Process() = %q, want passthrough", out)
	}
	if len(*sent) != 0 {
		t.Errorf("expected no negotiation traffic, got %d writes", len(*sent))
	}
}

func TestFilter_RefusesNegotiation(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		data  string
		reply []byte
	}{
		{
			name:  "do echo refused with wont",
			input: []byte{IAC, DO, 0x01, 'o', 'k'},
			data:  "ok",
			reply: []byte{IAC, WONT, 0x01},
		},
		{
			name:  "will echo refused with dont",
			input: []byte{IAC, WILL, 0x01, 'o', 'k'},
			data:  "ok",
			reply: []byte{IAC, DONT, 0x01},
		},
		{
			name:  "wont gets no reply",
			input: []byte{IAC, WONT, 0x18, 'o', 'k'},
			data:  "ok",
			reply: nil,
		},
		{
			name:  "dont gets no reply",
			input: []byte{IAC, DONT, 0x1f, 'o', 'k'},
			data:  "ok",
			reply: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, sent := newCapturingFilter()

			out := f.Process(tt.input)
			if string(out) != tt.data {
				t.Errorf("data = %q, want %q", out, tt.data)
			}

			if tt.reply == nil {
				if len(*sent) != 0 {
					t.Errorf("expected no reply, got %v", *sent)
				}
				return
			}
			if len(*sent) != 1 || !bytes.Equal((*sent)[0], tt.reply) {
				t.Errorf("reply = %v, want %v", *sent, tt.reply)
			}
		})
	}
}

func TestFilter_EscapedIAC(t *testing.T) {
	f, _ := newCapturingFilter()

	out := f.Process([]byte{'a', IAC, IAC, 'b'})
	want := []byte{'a', 0xFF, 'b'}
	if !bytes.Equal(out, want) {
		t.Errorf("Process() = %v, want %v", out, want)
	}
}

func TestFilter_SkipsSubnegotiation(t *testing.T) {
	f, _ := newCapturingFilter()

	input := append([]byte{'x', IAC, SB, 0x18, 0x00, 'v', 't', IAC, SE}, []byte("y")...)
	out := f.Process(input)
	if string(out) != "xy" {
		t.Errorf("Process() = %q, want %q", out, "xy")
	}
}

func TestFilter_SequenceSplitAcrossChunks(t *testing.T) {
	tests := []struct {
		name   string
		chunks [][]byte
		data   string
		refuse [][]byte
	}{
		{
			name:   "iac at chunk boundary",
			chunks: [][]byte{{'a', IAC}, {DO, 0x01, 'b'}},
			data:   "ab",
			refuse: [][]byte{{IAC, WONT, 0x01}},
		},
		{
			name:   "option byte in next chunk",
			chunks: [][]byte{{IAC, WILL}, {0x03}, {'c'}},
			data:   "c",
			refuse: [][]byte{{IAC, DONT, 0x03}},
		},
		{
			name:   "subnegotiation split before terminator",
			chunks: [][]byte{{IAC, SB, 0x1f, 0x00}, {0x50, IAC}, {SE, 'd'}},
			data:   "d",
			refuse: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, sent := newCapturingFilter()

			var out []byte
			for _, chunk := range tt.chunks {
				out = append(out, f.Process(chunk)...)
			}

			if string(out) != tt.data {
				t.Errorf("data = %q, want %q", out, tt.data)
			}
			if len(*sent) != len(tt.refuse) {
				t.Fatalf("refusals = %v, want %v", *sent, tt.refuse)
			}
			for i := range tt.refuse {
				if !bytes.Equal((*sent)[i], tt.refuse[i]) {
					t.Errorf("refusal[%d] = %v, want %v", i, (*sent)[i], tt.refuse[i])
				}
			}
		})
	}
}
