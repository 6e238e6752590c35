package relay

import "testing"

func TestClassifyReason_LegacyMarkers(t *testing.T) {
	tests := []struct {
		name   string
		reason string
		kind   FailureKind
		node   string
	}{
		{
			name:   "run limit carries node",
			reason: "nodeX -- has run more than the maximum number of times",
			kind:   FailureNodeRunLimit,
			node:   "nodeX",
		},
		{
			name:   "input timeout",
			reason: "workflow wait user input timeout",
			kind:   FailureInputTimeout,
		},
		{
			name:   "bad node params",
			reason: "classifier-3 -- node params is error",
			kind:   FailureNodeParams,
			node:   "classifier-3",
		},
		{
			name:   "version changed",
			reason: "llm-1 -- workflow node is update",
			kind:   FailureVersionChanged,
			node:   "llm-1",
		},
		{
			name:   "user stop",
			reason: "workflow stop by user",
			kind:   FailureUserStopped,
		},
		{
			name:   "busy",
			reason: reasonBusy,
			kind:   FailureWorkerBusy,
		},
		{
			name:   "stale",
			reason: reasonStale,
			kind:   FailureOrphaned,
		},
		{
			name:   "unknown text",
			reason: "panic: runtime error",
			kind:   FailureOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, node := classifyReason(tt.reason)
			if kind != tt.kind {
				t.Errorf("kind = %q, want %q", kind, tt.kind)
			}
			if node != tt.node {
				t.Errorf("node = %q, want %q", node, tt.node)
			}
		})
	}
}

func TestClassifyReason_Structured(t *testing.T) {
	reason := FormatReason(FailureNodeRunLimit, "agent-7", "loop detected")
	kind, node := classifyReason(reason)
	if kind != FailureNodeRunLimit {
		t.Errorf("kind = %q, want %q", kind, FailureNodeRunLimit)
	}
	if node != "agent-7" {
		t.Errorf("node = %q, want agent-7", node)
	}
}

func TestClassifyReason_StructuredTakesPriorityOverMarkers(t *testing.T) {
	// A structured detail may quote legacy marker text; the JSON envelope
	// must still win.
	reason := FormatReason(FailureNodeParams, "n1", "saw: stop by user")
	kind, _ := classifyReason(reason)
	if kind != FailureNodeParams {
		t.Errorf("kind = %q, want %q", kind, FailureNodeParams)
	}
}

func TestFailureMessage_NamesNode(t *testing.T) {
	msg := failureMessage(FailureNodeRunLimit, "nodeX", "")
	want := "node nodeX has run more than the maximum number of times"
	if msg != want {
		t.Errorf("msg = %q, want %q", msg, want)
	}
}

func TestFailureMessage_OtherEchoesReason(t *testing.T) {
	if got := failureMessage(FailureOther, "", "disk full"); got != "disk full" {
		t.Errorf("msg = %q, want the raw reason", got)
	}
}
