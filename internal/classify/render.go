package classify

import (
	"fmt"
	"sort"
	"strings"
)

// RenderTable draws a table with fixed-width columns: header, a dashed rule
// per column, then the rows. Column width is the widest of the field name
// and its values; columns are separated by two spaces.
func RenderTable(t *Table) string {
	widths := make([]int, len(t.Fields))
	for i, f := range t.Fields {
		widths[i] = len(f)
	}
	for _, row := range t.Rows {
		for i, f := range t.Fields {
			if n := len(row[f]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	writeCells := func(cells []string) {
		line := make([]string, len(cells))
		for i, c := range cells {
			line[i] = c + strings.Repeat(" ", widths[i]-len(c))
		}
		b.WriteString(strings.TrimRight(strings.Join(line, "  "), " "))
		b.WriteByte('\n')
	}

	writeCells(t.Fields)
	rule := make([]string, len(t.Fields))
	for i := range t.Fields {
		rule[i] = strings.Repeat("-", widths[i])
	}
	writeCells(rule)
	for _, row := range t.Rows {
		cells := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			cells[i] = row[f]
		}
		writeCells(cells)
	}
	return b.String()
}

// RenderRecord renders a nested record as indented "key: value" lines.
// Scalars print before nested records and keys sort alphabetically within
// each group, so output is stable.
func RenderRecord(rec map[string]any) string {
	var b strings.Builder
	writeRecord(&b, rec, 0)
	return b.String()
}

// RenderSectionedRecord renders a record whose nested maps are top-level
// sections: scalar pairs first, then one "=== name ===" block per section.
func RenderSectionedRecord(rec map[string]any) string {
	var b strings.Builder
	for _, k := range scalarKeys(rec) {
		fmt.Fprintf(&b, "%s: %v\n", k, rec[k])
	}
	for _, k := range nestedKeys(rec) {
		fmt.Fprintf(&b, "=== %s ===\n", k)
		writeRecord(&b, rec[k].(map[string]any), 1)
	}
	return b.String()
}

// RenderConfigSections renders configuration as "=== section ===" blocks in
// device order. A section's own header line is implied by the block title
// and not repeated.
func RenderConfigSections(rc *RunningConfig) string {
	var b strings.Builder
	for i, name := range rc.Order {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "=== %s ===\n", name)
		for _, line := range rc.Sections[name] {
			if line == name {
				continue
			}
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func writeRecord(b *strings.Builder, rec map[string]any, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, k := range scalarKeys(rec) {
		fmt.Fprintf(b, "%s%s: %v\n", indent, k, rec[k])
	}
	for _, k := range nestedKeys(rec) {
		fmt.Fprintf(b, "%s%s:\n", indent, k)
		writeRecord(b, rec[k].(map[string]any), depth+1)
	}
}

func scalarKeys(rec map[string]any) []string {
	var keys []string
	for k, v := range rec {
		if _, nested := v.(map[string]any); !nested {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func nestedKeys(rec map[string]any) []string {
	var keys []string
	for k, v := range rec {
		if _, nested := v.(map[string]any); nested {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
