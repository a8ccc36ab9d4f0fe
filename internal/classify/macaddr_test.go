package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const macTableOutput = "Mac Address Table\n" +
	"-------------------------------------------\n" +
	"Vlan    Mac Address       Type      Ports     State\n" +
	"----    -----------       ----      -----     -----\n" +
	" 100    0023.a7b1.0201    DYNAMIC   GPON 0/1  active\n" +
	" 100    0023.a7b1.0202    DYNAMIC   GPON 0/2  active\n" +
	" 200    0819.a6ff.1044    STATIC    uplink1   active\n" +
	"Total Mac Addresses for this criterion: 3\n"

func TestExtractMACTable(t *testing.T) {
	table, ok := ExtractMACTable(macTableOutput)
	require.True(t, ok)
	assert.Equal(t, []string{"vlan", "macAddress", "type", "port", "state"}, table.Fields)
	require.Len(t, table.Rows, 3)

	for i, row := range table.Rows {
		for _, field := range table.Fields {
			assert.NotEmpty(t, row[field], "row %d field %s", i, field)
		}
	}

	assert.Equal(t, "100", table.Rows[0]["vlan"])
	assert.Equal(t, "0023.a7b1.0201", table.Rows[0]["macAddress"])
	assert.Equal(t, "DYNAMIC", table.Rows[0]["type"])
	assert.Equal(t, "GPON 0/1", table.Rows[0]["port"], "split port names must stay one value")
	assert.Equal(t, "active", table.Rows[0]["state"])

	assert.Equal(t, "GPON 0/2", table.Rows[1]["port"])
	assert.Equal(t, "uplink1", table.Rows[2]["port"])
	assert.Equal(t, "STATIC", table.Rows[2]["type"])
}

func TestExtractMACTableSkipsHeaderRepeats(t *testing.T) {
	raw := "Vlan    Mac Address       Type      Ports\n" +
		"----    -----------       ----      -----\n" +
		" 100    0023.a7b1.0201    DYNAMIC   uplink1  active\n" +
		"Vlan    Mac Address       Type      Ports\n" +
		" 200    0023.a7b1.0202    DYNAMIC   uplink2  active\n"

	table, ok := ExtractMACTable(raw)
	require.True(t, ok)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "100", table.Rows[0]["vlan"])
	assert.Equal(t, "200", table.Rows[1]["vlan"])
}

func TestExtractMACTableNoSeparator(t *testing.T) {
	_, ok := ExtractMACTable("no entries found\n")
	assert.False(t, ok)
}

func TestExtractMACTableShortLines(t *testing.T) {
	raw := "----\n" +
		"oops\n" +
		" 100    0023.a7b1.0201    DYNAMIC   uplink1  active\n"

	table, ok := ExtractMACTable(raw)
	require.True(t, ok)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "uplink1", table.Rows[0]["port"])
	assert.Equal(t, "active", table.Rows[0]["state"])
}
