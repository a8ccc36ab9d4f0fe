package ansi

import (
	"testing"
)

func TestStripper_BasicStripping(t *testing.T) {
	stripper := NewStripper()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no ansi sequences",
			input:    "OLT> show version",
			expected: "OLT> show version",
		},
		{
			name:     "simple color sequence",
			input:    "\x1b[31mlink down\x1b[0m",
			expected: "link down",
		},
		{
			name:     "cursor and erase controls around a prompt",
			input:    "\x1b[2J\x1b[HOLT(config)# ",
			expected: "OLT(config)# ",
		},
		{
			name:     "osc title terminated by bel",
			input:    "\x1b]0;olt-7\x07OLT# ",
			expected: "OLT# ",
		},
		{
			name:     "osc terminated by string terminator",
			input:    "\x1b]0;olt-7\x1b\\OLT# ",
			expected: "OLT# ",
		},
		{
			name:     "charset designation",
			input:    "\x1b(Bready",
			expected: "ready",
		},
		{
			name:     "multiple sequences",
			input:    "\x1b[1mGPON0/1\x1b[0m is \x1b[32mup\x1b[0m",
			expected: "GPON0/1 is up",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stripper.Strip(tt.input)
			if result != tt.expected {
				t.Errorf("Strip() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestStripper_ChunkSplitting(t *testing.T) {
	tests := []struct {
		name     string
		chunks   []string
		expected string
	}{
		{
			name:     "csi sequence split across chunks",
			chunks:   []string{"\x1b", "[31m", "alarm", "\x1b[0m"},
			expected: "alarm",
		},
		{
			name:     "split inside parameters",
			chunks:   []string{"\x1b[", "31mONU ", "1/1/1 offline", "\x1b[0m"},
			expected: "ONU 1/1/1 offline",
		},
		{
			name:     "escape at end of chunk",
			chunks:   []string{"status \x1b", "[1mup\x1b[0m"},
			expected: "status up",
		},
		{
			name:     "osc split before terminator",
			chunks:   []string{"\x1b]0;olt", "-7\x07OLT> "},
			expected: "OLT> ",
		},
		{
			name:     "many small fragments",
			chunks:   []string{"\x1b[3", "1m--", "More", "--\x1b[", "0m"},
			expected: "--More--",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stripper := NewStripper()
			var result string

			for _, chunk := range tt.chunks {
				result += stripper.Strip(chunk)
			}

			if result != tt.expected {
				t.Errorf("Final result = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestStripper_Reset(t *testing.T) {
	stripper := NewStripper()

	result1 := stripper.Strip("\x1b[31")
	if result1 != "" {
		t.Errorf("Partial sequence should not produce output, got %q", result1)
	}

	stripper.Reset()

	result2 := stripper.Strip("OLT# ")
	if result2 != "OLT# " {
		t.Errorf("After reset, plain text should pass through, got %q", result2)
	}
}

func TestStripString(t *testing.T) {
	input := "\x1b[31mAuthentication failed\x1b[0m"
	expected := "Authentication failed"

	result := StripString(input)
	if result != expected {
		t.Errorf("StripString() = %q, want %q", result, expected)
	}
}
