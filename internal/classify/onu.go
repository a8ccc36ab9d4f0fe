package classify

import (
	"regexp"
	"strings"
)

var (
	bannerRe    = regexp.MustCompile(`^[-=]{3,}\s*(.*?)\s*[-=]{3,}$`)
	hasLetterRe = regexp.MustCompile(`[A-Za-z]`)
)

// ExtractONUInfo parses detail-record output: banner lines such as
// "===== Optical Info =====" open a named section, and each section holds
// "Key: Value" pairs. Pairs before the first banner land at the top level.
// Keys are normalized to lower snake case; values keep their text. Returns
// an empty map when nothing parses.
func ExtractONUInfo(text string) map[string]any {
	rec := map[string]any{}
	var section map[string]any

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := bannerRe.FindStringSubmatch(line); m != nil && m[1] != "" {
			section = map[string]any{}
			rec[normalizeKey(m[1])] = section
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		if section != nil {
			section[key] = value
		} else {
			rec[key] = value
		}
	}

	// A banner with no pairs under it carries no information.
	for k, v := range rec {
		if m, isSection := v.(map[string]any); isSection && len(m) == 0 {
			delete(rec, k)
		}
	}
	return rec
}

// splitKeyValue splits on the first colon. The key must contain a letter so
// timestamps and counters are not mistaken for pairs.
func splitKeyValue(line string) (string, string, bool) {
	key, value, found := strings.Cut(line, ":")
	if !found || !hasLetterRe.MatchString(key) {
		return "", "", false
	}
	return normalizeKey(key), strings.TrimSpace(value), true
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}
