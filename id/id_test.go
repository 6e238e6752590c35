package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/beclab/flowrelay/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"RunID", id.NewRunID, "run_"},
		{"FlowID", id.NewFlowID, "flow_"},
		{"MessageID", id.NewMessageID, "msg_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"RunID", id.NewRunID, id.ParseRunID},
		{"FlowID", id.NewFlowID, id.ParseFlowID},
		{"MessageID", id.NewMessageID, id.ParseMessageID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossPrefixRejection(t *testing.T) {
	flowID := id.NewFlowID().String()
	if _, err := id.ParseRunID(flowID); err == nil {
		t.Errorf("expected error parsing %q as run ID", flowID)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero value should be nil")
	}
	if i.String() != "" {
		t.Errorf("nil ID String() = %q, want empty", i.String())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	original := id.NewRunID()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded id.ID
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", decoded.String(), original.String())
	}
}
