package relay

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FailureKind is the machine-readable classification of a run failure,
// carried on the trailing error event of a drain for client-side handling.
type FailureKind string

const (
	// FailureMissingState — status key absent or expired before first read.
	FailureMissingState FailureKind = "missing_state"
	// FailureNodeRunLimit — a node exceeded its maximum run count.
	FailureNodeRunLimit FailureKind = "node_run_limit"
	// FailureInputTimeout — the worker gave up waiting for user input.
	FailureInputTimeout FailureKind = "input_wait_timeout"
	// FailureNodeParams — a node's parameters failed validation.
	FailureNodeParams FailureKind = "node_params_invalid"
	// FailureVersionChanged — the workflow definition changed mid-run.
	FailureVersionChanged FailureKind = "version_changed"
	// FailureWorkerBusy — the short liveness window elapsed without the
	// worker confirming the run.
	FailureWorkerBusy FailureKind = "worker_saturated"
	// FailureOrphaned — the long staleness ceiling elapsed.
	FailureOrphaned FailureKind = "orphaned"
	// FailureUserStopped — the user stopped the run. Never surfaced as an
	// error event.
	FailureUserStopped FailureKind = "user_stopped"
	// FailureOther — unclassified worker failure reason.
	FailureOther FailureKind = "other"
)

// Failure reasons this layer writes into the status register itself.
const (
	reasonBusy  = "workflow task execute busy"
	reasonStale = "workflow status not update over 1 day"
)

// failureMarkers maps legacy free-text reason markers to failure kinds, in
// priority order; the first containing match wins. The legacy source format
// is "<node> -- <detail>" and is kept only as a fallback decode path — new
// workers should write a structured reason (see Reason).
var failureMarkers = []struct {
	marker string
	kind   FailureKind
}{
	{"-- has run more than the maximum number of times", FailureNodeRunLimit},
	{"workflow wait user input timeout", FailureInputTimeout},
	{"-- node params is error", FailureNodeParams},
	{"-- workflow node is update", FailureVersionChanged},
	{"stop by user", FailureUserStopped},
	{reasonBusy, FailureWorkerBusy},
	{reasonStale, FailureOrphaned},
}

// Reason is the versioned structured failure payload workers may write as
// the status reason. It is tried before the legacy marker scan.
type Reason struct {
	V      int    `json:"v"`
	Kind   string `json:"kind"`
	Node   string `json:"node,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// FormatReason encodes a structured failure reason for the status register.
func FormatReason(kind FailureKind, node, detail string) string {
	raw, err := json.Marshal(Reason{V: 1, Kind: string(kind), Node: node, Detail: detail})
	if err != nil {
		// Reason has no unmarshalable fields; unreachable.
		return detail
	}
	return string(raw)
}

// classifyReason maps a worker-reported failure reason to a kind and the
// offending node name, if one was carried.
func classifyReason(reason string) (FailureKind, string) {
	var structured Reason
	if err := json.Unmarshal([]byte(reason), &structured); err == nil && structured.V >= 1 {
		return FailureKind(structured.Kind), structured.Node
	}

	for _, m := range failureMarkers {
		if !strings.Contains(reason, m.marker) {
			continue
		}
		node := ""
		if strings.HasPrefix(m.marker, "--") {
			node, _, _ = strings.Cut(reason, "--")
			node = strings.TrimSpace(node)
		}
		return m.kind, node
	}
	return FailureOther, ""
}

// failureMessage builds the human-readable text for an error event.
func failureMessage(kind FailureKind, node, reason string) string {
	switch kind {
	case FailureMissingState:
		return "workflow status not found"
	case FailureNodeRunLimit:
		return fmt.Sprintf("node %s has run more than the maximum number of times", node)
	case FailureInputTimeout:
		return "workflow wait user input timeout"
	case FailureNodeParams:
		return fmt.Sprintf("node %s params are invalid", node)
	case FailureVersionChanged:
		return fmt.Sprintf("workflow was updated while node %s was running", node)
	case FailureWorkerBusy:
		return "workflow task execute busy"
	case FailureOrphaned:
		return "workflow status not update over 1 day"
	default:
		return reason
	}
}
