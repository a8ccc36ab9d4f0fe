package classify

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var fieldGapRe = regexp.MustCompile(`\s{2,}`)

// hasTableMarkers reports whether the text carries the usual firmware table
// furniture: a separator row of dashes or equals signs.
func hasTableMarkers(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if isSeparatorLine(line) {
			return true
		}
	}
	return false
}

// isSeparatorLine matches rows drawn entirely from '-', '=' and whitespace
// with at least one run of three.
func isSeparatorLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.Trim(trimmed, "-= \t") != "" {
		return false
	}
	run := 0
	for _, r := range trimmed {
		if r == '-' || r == '=' {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

// ExtractTable recovers tabular structure from monospace output. The primary
// strategy keys off a header line above a separator row: the header is split
// on runs of two or more spaces, the start offset of each field name becomes
// a column boundary, and every data line below the separator is sliced at
// those offsets. When no separator row exists it falls back to alignment
// detection over the leading lines.
func ExtractTable(text string) (*Table, bool) {
	lines := strings.Split(text, "\n")

	sep := -1
	for i, line := range lines {
		if isSeparatorLine(line) {
			sep = i
			break
		}
	}
	if sep > 0 {
		header := -1
		for i := 0; i < sep; i++ {
			if len(strings.Fields(lines[i])) > 1 && !isSeparatorLine(lines[i]) {
				header = i
				break
			}
		}
		if header >= 0 {
			if t, ok := sliceBelowSeparator(lines, header, sep); ok {
				return t, true
			}
		}
	}

	return extractByAlignment(lines)
}

func sliceBelowSeparator(lines []string, header, sep int) (*Table, bool) {
	fields, offsets := headerColumns(lines[header])
	if len(fields) < 2 {
		return nil, false
	}

	t := &Table{Fields: fields}
	for _, line := range lines[sep+1:] {
		if strings.TrimSpace(line) == "" || isSeparatorLine(line) {
			continue
		}
		row := sliceRow(line, fields, offsets)
		if row != nil {
			t.Rows = append(t.Rows, row)
		}
	}
	if len(t.Rows) == 0 {
		return nil, false
	}
	return t, true
}

// headerColumns splits a header on gaps of two or more spaces and records
// where each field name starts. Offsets double as column boundaries when
// slicing data rows.
func headerColumns(header string) ([]string, []int) {
	var fields []string
	var offsets []int
	pos := 0
	for _, name := range fieldGapRe.Split(strings.TrimRight(header, " \t"), -1) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		idx := strings.Index(header[pos:], name)
		if idx < 0 {
			continue
		}
		offsets = append(offsets, pos+idx)
		pos += idx + len(name)
		fields = append(fields, name)
	}
	return fields, offsets
}

// sliceRow cuts one data line at the column offsets. Returns nil when every
// cell comes out empty.
func sliceRow(line string, fields []string, offsets []int) map[string]string {
	row := make(map[string]string, len(fields))
	empty := true
	for i, field := range fields {
		start := offsets[i]
		end := len(line)
		if i+1 < len(offsets) && offsets[i+1] < end {
			end = offsets[i+1]
		}
		if start > len(line) {
			start = len(line)
		}
		cell := strings.TrimSpace(line[start:end])
		if cell != "" {
			empty = false
		}
		row[field] = cell
	}
	if empty {
		return nil
	}
	return row
}

// extractByAlignment handles tables without a separator row. It samples the
// first ten non-empty lines, takes the most column-rich pattern of non-space
// run starts as the boundaries, and uses the first sampled line that does not
// start with a digit as the header.
func extractByAlignment(lines []string) (*Table, bool) {
	var sample []int
	for i, line := range lines {
		if strings.TrimSpace(line) != "" && !isSeparatorLine(line) {
			sample = append(sample, i)
			if len(sample) == 10 {
				break
			}
		}
	}
	if len(sample) < 2 {
		return nil, false
	}

	var offsets []int
	for _, i := range sample {
		if starts := runStarts(lines[i]); len(starts) > len(offsets) {
			offsets = starts
		}
	}
	if len(offsets) < 2 {
		return nil, false
	}

	header := -1
	for _, i := range sample {
		first := rune(strings.TrimSpace(lines[i])[0])
		if !unicode.IsDigit(first) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, false
	}

	fields := make([]string, len(offsets))
	for i, cell := range sliceAt(lines[header], offsets) {
		if cell == "" {
			cell = fmt.Sprintf("col%d", i+1)
		}
		fields[i] = cell
	}

	t := &Table{Fields: fields}
	for i, line := range lines {
		if i == header || strings.TrimSpace(line) == "" || isSeparatorLine(line) {
			continue
		}
		cells := sliceAt(line, offsets)
		row := make(map[string]string, len(fields))
		empty := true
		for j, field := range fields {
			row[field] = cells[j]
			if cells[j] != "" {
				empty = false
			}
		}
		if !empty {
			t.Rows = append(t.Rows, row)
		}
	}
	if len(t.Rows) == 0 {
		return nil, false
	}
	return t, true
}

// runStarts lists the offsets where a run of non-space characters begins.
func runStarts(line string) []int {
	var starts []int
	inRun := false
	for i := 0; i < len(line); i++ {
		space := line[i] == ' ' || line[i] == '\t'
		if !space && !inRun {
			starts = append(starts, i)
		}
		inRun = !space
	}
	return starts
}

func sliceAt(line string, offsets []int) []string {
	cells := make([]string, len(offsets))
	for i, start := range offsets {
		end := len(line)
		if i+1 < len(offsets) && offsets[i+1] < end {
			end = offsets[i+1]
		}
		if start > len(line) {
			start = len(line)
		}
		cells[i] = strings.TrimSpace(line[start:end])
	}
	return cells
}
