package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runningConfigOutput = "hostname olt-lab-1\n" +
	"!\n" +
	"interface gpon 0/1\n" +
	" description feeds building A\n" +
	" onu 1 type bridge\n" +
	"!\n" +
	"interface gpon 0/2\n" +
	" shutdown\n" +
	"!\n" +
	"router ospf 1\n" +
	" network 10.0.0.0 0.0.0.255 area 0\n" +
	"!\n" +
	"line vty 0 4\n" +
	" login local\n" +
	"end\n"

func TestExtractRunningConfig(t *testing.T) {
	rc := ExtractRunningConfig(runningConfigOutput)
	require.NotNil(t, rc)

	assert.Equal(t, []string{
		GlobalSection,
		"interface gpon 0/1",
		"interface gpon 0/2",
		"router ospf 1",
		"line vty 0 4",
	}, rc.Order)

	assert.Equal(t, []string{"hostname olt-lab-1"}, rc.Sections[GlobalSection])
	assert.Equal(t, []string{
		"interface gpon 0/1",
		"description feeds building A",
		"onu 1 type bridge",
	}, rc.Sections["interface gpon 0/1"])
	assert.Equal(t, []string{"router ospf 1", "network 10.0.0.0 0.0.0.255 area 0"},
		rc.Sections["router ospf 1"])
}

func TestExtractRunningConfigFlatLines(t *testing.T) {
	rc := ExtractRunningConfig(runningConfigOutput)
	require.NotNil(t, rc)

	// Flat view preserves device order across section boundaries.
	var lines []string
	for _, cl := range rc.Lines {
		lines = append(lines, cl.Line)
	}
	assert.Equal(t, "hostname olt-lab-1", lines[0])
	assert.Equal(t, "interface gpon 0/1", lines[1])
	assert.Equal(t, "description feeds building A", lines[2])

	assert.Equal(t, GlobalSection, rc.Lines[0].Section)
	assert.Equal(t, "interface gpon 0/1", rc.Lines[1].Section)
	assert.Equal(t, "line vty 0 4", rc.Lines[len(rc.Lines)-1].Section)
}

func TestExtractRunningConfigDropsDividers(t *testing.T) {
	rc := ExtractRunningConfig("!\n\n!\nhostname x\n!\n")
	require.NotNil(t, rc)
	assert.Len(t, rc.Lines, 1)
}

func TestExtractRunningConfigEmpty(t *testing.T) {
	assert.Nil(t, ExtractRunningConfig(""))
	assert.Nil(t, ExtractRunningConfig("!\n!\n"))
}

func TestExtractRunningConfigHeaderNeedsArgument(t *testing.T) {
	rc := ExtractRunningConfig("interface\nrouter-id 1.1.1.1\n")
	require.NotNil(t, rc)

	// A bare keyword or a hyphenated directive does not open a section.
	assert.Equal(t, []string{GlobalSection}, rc.Order)
}
