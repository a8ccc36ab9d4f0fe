package classify

import "strings"

// Field order of the fixed MAC address table layout.
var macTableFields = []string{"vlan", "macAddress", "type", "port", "state"}

// ExtractMACTable parses mac address-table output. The data region starts
// after the first separator row; each entry line is whitespace-split into
// vlan, macAddress, type, port, state. A port of "GPON" absorbs the next
// token so split interface names like "GPON 0/1" stay one value.
func ExtractMACTable(text string) (*Table, bool) {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if isSeparatorLine(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, false
	}

	t := &Table{Fields: macTableFields}
	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if line == "" || isSeparatorLine(line) || isMACTableNoise(line) {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < 4 {
			continue
		}

		row := map[string]string{
			"vlan":       tokens[0],
			"macAddress": tokens[1],
			"type":       tokens[2],
		}
		port, rest := tokens[3], tokens[4:]
		if strings.EqualFold(port, "gpon") && len(rest) > 0 {
			port += " " + rest[0]
			rest = rest[1:]
		}
		row["port"] = port
		row["state"] = strings.Join(rest, " ")
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 {
		return nil, false
	}
	return t, true
}

// isMACTableNoise matches the header repeats and footers firmware prints
// around the entry region.
func isMACTableNoise(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range []string{"vlan", "mac address", "total"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
