package classify

import (
	"regexp"
	"strings"
)

var sectionHeaderRe = regexp.MustCompile(`^(interface|router|line)\s+\S`)

// GlobalSection collects configuration lines that precede any section header.
const GlobalSection = "global"

// ConfigLine is one configuration line tagged with the section it belongs to.
type ConfigLine struct {
	Section string `json:"section"`
	Line    string `json:"line"`
}

// RunningConfig is configuration output segmented into named sections. The
// full header line names its section, the header itself is the section's
// first line, and Lines keeps the flat device order across sections.
type RunningConfig struct {
	Order    []string            `json:"order"`
	Sections map[string][]string `json:"sections"`
	Lines    []ConfigLine        `json:"lines"`
}

// ExtractRunningConfig splits configuration text into sections keyed by
// "interface ...", "router ..." and "line ..." headers, with everything
// before the first header in the global section. Blank lines and "!"
// dividers are dropped. Returns nil when no configuration lines remain.
func ExtractRunningConfig(text string) *RunningConfig {
	rc := &RunningConfig{Sections: map[string][]string{}}
	current := GlobalSection

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "!" {
			continue
		}
		if sectionHeaderRe.MatchString(line) {
			current = line
		}
		rc.add(current, line)
	}

	if len(rc.Lines) == 0 {
		return nil
	}
	return rc
}

func (rc *RunningConfig) add(section, line string) {
	if _, seen := rc.Sections[section]; !seen {
		rc.Order = append(rc.Order, section)
	}
	rc.Sections[section] = append(rc.Sections[section], line)
	rc.Lines = append(rc.Lines, ConfigLine{Section: section, Line: line})
}
