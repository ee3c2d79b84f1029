package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWriter(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   Format
	}{
		{"json format", "json", FormatJSON},
		{"yaml format", "yaml", FormatYAML},
		{"table format", "table", FormatTable},
		{"unknown defaults to table", "unknown", FormatTable},
		{"empty defaults to table", "", FormatTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(tt.format)
			if w.format != tt.want {
				t.Errorf("NewWriter(%q).format = %v, want %v", tt.format, w.format, tt.want)
			}
		})
	}
}

func TestWriter_PrintJSON(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{format: FormatJSON, out: &buf}

	data := map[string]string{"metric": "cpu.usage", "source": "host-1"}
	if err := w.Print(data); err != nil {
		t.Fatalf("Print() error = %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["metric"] != "cpu.usage" {
		t.Errorf("decoded metric = %q, want cpu.usage", decoded["metric"])
	}
}

func TestWriter_PrintYAML(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{format: FormatYAML, out: &buf}

	if err := w.Print(map[string]string{"metric": "cpu.usage"}); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "metric: cpu.usage") {
		t.Errorf("YAML output = %q, want metric: cpu.usage", got)
	}
}

func TestWriter_PrintTable(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{format: FormatTable, out: &buf}

	err := w.Print(Table{
		Headers: []string{"NAME", "VALUE"},
		Rows: [][]string{
			{"cpu.usage", "95.0"},
			{"memory.usage", "61.5"},
		},
	})
	if err != nil {
		t.Fatalf("Print() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{"NAME", "VALUE", "cpu.usage", "61.5"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestWriter_TableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{format: FormatTable, out: &buf}

	if err := w.Print(map[string]int{"count": 3}); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"count": 3`) {
		t.Errorf("fallback output = %q, want JSON", buf.String())
	}
}
