package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	table := &Table{
		Fields: []string{"port", "state"},
		Rows: []map[string]string{
			{"port": "GPON 0/1", "state": "up"},
			{"port": "up0", "state": "down"},
		},
	}

	want := "port      state\n" +
		"--------  -----\n" +
		"GPON 0/1  up\n" +
		"up0       down\n"
	assert.Equal(t, want, RenderTable(table))
}

// A rendered table fed back through the extractor must reproduce the same
// field names and row values.
func TestRenderTableRoundTrip(t *testing.T) {
	table := &Table{
		Fields: []string{"vlan", "macAddress", "type", "port", "state"},
		Rows: []map[string]string{
			{"vlan": "100", "macAddress": "0023.a7b1.0201", "type": "DYNAMIC", "port": "GPON 0/1", "state": "active"},
			{"vlan": "100", "macAddress": "0023.a7b1.0202", "type": "DYNAMIC", "port": "GPON 0/2", "state": "active"},
			{"vlan": "200", "macAddress": "0819.a6ff.1044", "type": "STATIC", "port": "uplink1", "state": "active"},
		},
	}

	got, ok := ExtractTable(RenderTable(table))
	require.True(t, ok)
	assert.Equal(t, table.Fields, got.Fields)
	assert.Equal(t, table.Rows, got.Rows)
}

func TestRenderRecord(t *testing.T) {
	rec := map[string]any{
		"interface": "GPON0/1",
		"status":    "up",
		"statistics": map[string]any{
			"inputPackets": "1204377",
			"inputErrors":  "3",
		},
	}

	want := "interface: GPON0/1\n" +
		"status: up\n" +
		"statistics:\n" +
		"  inputErrors: 3\n" +
		"  inputPackets: 1204377\n"
	assert.Equal(t, want, RenderRecord(rec))
}

func TestRenderSectionedRecord(t *testing.T) {
	rec := map[string]any{
		"onu_id": "1",
		"optical_info": map[string]any{
			"rx_power": "-18.4 dBm",
		},
		"service_status": map[string]any{
			"run_state": "online",
		},
	}

	got := RenderSectionedRecord(rec)
	want := "onu_id: 1\n" +
		"=== optical_info ===\n" +
		"  rx_power: -18.4 dBm\n" +
		"=== service_status ===\n" +
		"  run_state: online\n"
	assert.Equal(t, want, got)
}

func TestRenderConfigSections(t *testing.T) {
	rc := ExtractRunningConfig("hostname x\ninterface gpon 0/1\n shutdown\n")
	require.NotNil(t, rc)

	got := RenderConfigSections(rc)
	assert.True(t, strings.HasPrefix(got, "=== global ===\n  hostname x\n"))
	assert.Contains(t, got, "=== interface gpon 0/1 ===\n  shutdown\n")

	// The header line names the block and is not repeated inside it.
	assert.NotContains(t, got, "  interface gpon 0/1\n")
}
