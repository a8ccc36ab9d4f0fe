// Package classify turns raw command output into structured data where the
// heuristics recognize a shape: fixed tables, interface records, running
// configuration sections, ONU detail records. Structure is advisory — every
// response keeps its raw text and a rendered display form, and extraction
// failures degrade to plain text instead of failing the command.
package classify

import (
	"strings"

	"oltd/internal/log"
)

// Shape names for the recognized response forms.
const (
	ShapeText      = "text"
	ShapeTable     = "table"
	ShapeMACTable  = "mac_table"
	ShapeInterface = "interface"
	ShapeRunConfig = "running_config"
	ShapeONU       = "onu"
)

// Table is structured tabular output: ordered field names plus one
// field-to-value map per row.
type Table struct {
	Fields []string            `json:"fields"`
	Rows   []map[string]string `json:"rows"`
}

// Response pairs the raw text of a command with a rendered display form and
// whatever structure was recovered. Structured is a *Table, a nested record,
// or nil.
type Response struct {
	Raw        string `json:"raw"`
	Formatted  string `json:"formatted"`
	Shape      string `json:"shape"`
	Structured any    `json:"structured,omitempty"`
}

// Classify decides the structured shape of a command response. Dispatch is
// by command pattern, most specific first. A panicking extractor must never
// fail the command: the recovery path returns the raw text untouched.
func Classify(command, raw string) (resp Response) {
	resp = textResponse(raw)
	defer func() {
		if r := recover(); r != nil {
			log.Warn("response extraction failed, returning raw text",
				"command", command, "panic", r)
			resp = textResponse(raw)
		}
	}()

	cmd := strings.ToLower(strings.TrimSpace(command))
	switch {
	case isMACTableCommand(cmd):
		if t, ok := ExtractMACTable(raw); ok {
			return Response{Raw: raw, Formatted: RenderTable(t), Shape: ShapeMACTable, Structured: t}
		}
		if t, ok := ExtractTable(raw); ok {
			return Response{Raw: raw, Formatted: RenderTable(t), Shape: ShapeTable, Structured: t}
		}

	case isInterfaceCommand(cmd):
		if rec := ExtractInterfaceInfo(raw); len(rec) > 0 {
			return Response{Raw: raw, Formatted: RenderRecord(rec), Shape: ShapeInterface, Structured: rec}
		}

	case isRunningConfigCommand(cmd):
		if rc := ExtractRunningConfig(raw); rc != nil {
			return Response{Raw: raw, Formatted: RenderConfigSections(rc), Shape: ShapeRunConfig, Structured: rc}
		}

	case isONUCommand(cmd):
		if hasTableMarkers(raw) {
			if t, ok := ExtractTable(raw); ok {
				return Response{Raw: raw, Formatted: RenderTable(t), Shape: ShapeTable, Structured: t}
			}
		}
		if rec := ExtractONUInfo(raw); len(rec) > 0 {
			return Response{Raw: raw, Formatted: RenderSectionedRecord(rec), Shape: ShapeONU, Structured: rec}
		}

	case strings.HasPrefix(cmd, "show") && strings.Contains(cmd, "table"):
		if t, ok := ExtractTable(raw); ok {
			return Response{Raw: raw, Formatted: RenderTable(t), Shape: ShapeTable, Structured: t}
		}

	case strings.HasPrefix(cmd, "show"):
		if hasTableMarkers(raw) {
			if t, ok := ExtractTable(raw); ok {
				return Response{Raw: raw, Formatted: RenderTable(t), Shape: ShapeTable, Structured: t}
			}
		}
	}

	return textResponse(raw)
}

func textResponse(raw string) Response {
	return Response{Raw: raw, Formatted: raw, Shape: ShapeText}
}

func isMACTableCommand(cmd string) bool {
	return strings.Contains(cmd, "mac address-table") || strings.Contains(cmd, "mac-address-table")
}

func isInterfaceCommand(cmd string) bool {
	return strings.HasPrefix(cmd, "show") && strings.Contains(cmd, "interface")
}

func isRunningConfigCommand(cmd string) bool {
	return strings.Contains(cmd, "running-config") || cmd == "show run"
}

func isONUCommand(cmd string) bool {
	return strings.HasPrefix(cmd, "show") && strings.Contains(cmd, "onu")
}
