package classify

import (
	"regexp"
	"strings"
)

var (
	ifaceStatusRe = regexp.MustCompile(`(?i)^(\S+)\s+is\s+(administratively down|up|down)`)
	lineProtoRe   = regexp.MustCompile(`(?i)line protocol is\s+(up|down)`)
	macAddressRe  = regexp.MustCompile(`(?i)\b([0-9a-f]{4}\.[0-9a-f]{4}\.[0-9a-f]{4}|[0-9a-f]{2}(?::[0-9a-f]{2}){5})\b`)
	packetsRe     = regexp.MustCompile(`(?i)([\d,]+)\s+packets\s+(input|output)`)
	pktErrorsRe   = regexp.MustCompile(`(?i)([\d,]+)\s+(input|output)\s+errors`)
)

// ExtractInterfaceInfo scans show-interface output for its fixed textual
// markers: the "<name> is up/down" status line, "Hardware is", a
// "Description:" line, the first MAC address, and packet and error counters.
// Counters go into a statistics sub-record with the thousands separators
// stripped. Lines that match nothing are ignored.
func ExtractInterfaceInfo(text string) map[string]any {
	rec := map[string]any{}
	stats := map[string]any{}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case rec["interface"] == nil && ifaceStatusRe.MatchString(line):
			m := ifaceStatusRe.FindStringSubmatch(line)
			rec["interface"] = m[1]
			rec["status"] = strings.ToLower(m[2])
			if pm := lineProtoRe.FindStringSubmatch(line); pm != nil {
				rec["lineProtocol"] = strings.ToLower(pm[1])
			}

		case strings.Contains(line, "Hardware is"):
			hw := line[strings.Index(line, "Hardware is")+len("Hardware is"):]
			if comma := strings.Index(hw, ","); comma >= 0 {
				hw = hw[:comma]
			}
			rec["hardware"] = strings.TrimSpace(hw)

		case strings.HasPrefix(line, "Description:"):
			rec["description"] = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))

		default:
			if m := packetsRe.FindStringSubmatch(line); m != nil {
				stats[strings.ToLower(m[2])+"Packets"] = plainNumber(m[1])
			}
			if m := pktErrorsRe.FindStringSubmatch(line); m != nil {
				stats[strings.ToLower(m[2])+"Errors"] = plainNumber(m[1])
			}
		}

		if rec["macAddress"] == nil {
			if mac := macAddressRe.FindString(line); mac != "" {
				rec["macAddress"] = mac
			}
		}
	}

	if len(stats) > 0 {
		rec["statistics"] = stats
	}
	return rec
}

func plainNumber(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
