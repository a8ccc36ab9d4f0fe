package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSeparatorLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"----------", true},
		{"==========", true},
		{"  ---- ----  ----", true},
		{"-=- -=- -=-", true},
		{"--", false},
		{"-- -- --", false},
		{"", false},
		{"   ", false},
		{"---- total ----", false},
		{"GPON 0/1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isSeparatorLine(tt.line), "line %q", tt.line)
	}
}

func TestHeaderColumns(t *testing.T) {
	fields, offsets := headerColumns("Port      Status    Speed")
	assert.Equal(t, []string{"Port", "Status", "Speed"}, fields)
	assert.Equal(t, []int{0, 10, 20}, offsets)
}

func TestExtractTableWithSeparator(t *testing.T) {
	raw := "Port      Status    ONUs\n" +
		"--------  --------  ----\n" +
		"GPON 0/1  up        12\n" +
		"GPON 0/2  down      0\n" +
		"GPON 0/3  up        7\n"

	table, ok := ExtractTable(raw)
	require.True(t, ok)
	assert.Equal(t, []string{"Port", "Status", "ONUs"}, table.Fields)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "GPON 0/2", table.Rows[1]["Port"])
	assert.Equal(t, "down", table.Rows[1]["Status"])
	assert.Equal(t, "0", table.Rows[1]["ONUs"])
}

func TestExtractTableShortRows(t *testing.T) {
	raw := "Name      Value\n" +
		"---------------\n" +
		"uptime    5 days\n" +
		"location\n"

	table, ok := ExtractTable(raw)
	require.True(t, ok)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "location", table.Rows[1]["Name"])
	assert.Equal(t, "", table.Rows[1]["Value"])
}

func TestExtractTableSkipsBlankAndSeparatorRows(t *testing.T) {
	raw := "ID    State\n" +
		"-----------\n" +
		"1     active\n" +
		"\n" +
		"-----------\n" +
		"2     offline\n"

	table, ok := ExtractTable(raw)
	require.True(t, ok)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "offline", table.Rows[1]["State"])
}

func TestExtractTableAlignmentFallback(t *testing.T) {
	raw := "Slot  Card        Ports\n" +
		"1     GPON-8      8\n" +
		"2     GPON-8      8\n" +
		"3     UPLINK-4    4\n"

	table, ok := ExtractTable(raw)
	require.True(t, ok)
	assert.Equal(t, []string{"Slot", "Card", "Ports"}, table.Fields)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "UPLINK-4", table.Rows[2]["Card"])
	assert.Equal(t, "4", table.Rows[2]["Ports"])
}

func TestExtractTableRejectsProse(t *testing.T) {
	_, ok := ExtractTable("System restarted.\n")
	assert.False(t, ok)

	_, ok = ExtractTable("")
	assert.False(t, ok)
}

func TestRunStarts(t *testing.T) {
	assert.Equal(t, []int{0, 6, 12}, runStarts("Slot  Card  Ports"))
	assert.Equal(t, []int{2}, runStarts("  x"))
	assert.Nil(t, runStarts("   "))
}
