// Package event defines the outbound run events relayed from the worker to
// the consumer, and the ordered single-consumer channel contract they travel
// through.
package event

import "encoding/json"

// Category discriminates the payload shape of an outbound event.
type Category string

// Category constants for all outbound event kinds.
const (
	CategoryNodeStart        Category = "node_start"
	CategoryNodeEnd          Category = "node_end"
	CategoryUserInput        Category = "user_input"
	CategoryGuideWord        Category = "guide_word"
	CategoryGuideQuestion    Category = "guide_question"
	CategoryOutputMsg        Category = "output_msg"
	CategoryOutputWithChoice Category = "output_with_choice"
	CategoryOutputWithInput  Category = "output_with_input"
	CategoryStreamChunk      Category = "stream_chunk"
	CategoryStreamEnd        Category = "stream_end"
	// CategoryQuestion is the user's answer persisted back into the
	// transcript after a free-text input submission.
	CategoryQuestion Category = "question"
	CategoryError    Category = "error"
)

// Event is one outbound run event. Payload is the category-specific record;
// MessageID is set once the corresponding chat message has been persisted.
type Event struct {
	Category  Category        `json:"category"`
	FlowID    string          `json:"flow_id,omitempty"`
	ChatID    string          `json:"chat_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	Payload   json.RawMessage `json:"message,omitempty"`
	Files     []string        `json:"files,omitempty"`
	Extra     string          `json:"extra,omitempty"`
}

// New builds an event with a marshaled payload. A payload that cannot be
// marshaled is a programming error on the producer side, so New panics.
func New(category Category, payload any) *Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic("event: marshal payload: " + err.Error())
	}
	return &Event{Category: category, Payload: raw}
}

// ──────────────────────────────────────────────────
// Payload shapes
// ──────────────────────────────────────────────────

// NodeData is the payload of node_start and node_end events.
type NodeData struct {
	NodeID string `json:"node_id"`
	Name   string `json:"name,omitempty"`
}

// InputSchema describes what a paused input node expects from the user.
// Tab selects the input kind: "form_input" for a declared field list,
// anything else for a single free-text/file field addressed by Key.
type InputSchema struct {
	Tab    string      `json:"tab,omitempty"`
	Key    string      `json:"key,omitempty"`
	Fields []FormField `json:"value,omitempty"`
}

// FormField is one declared field of a form-input schema. Label is the
// user-visible name; the legacy wire field for it is "value".
type FormField struct {
	Key   string `json:"key"`
	Label string `json:"value"`
}

// UserInputData is the payload of a user_input event: the worker paused and
// asks the consumer side for a resumption payload.
type UserInputData struct {
	NodeID string      `json:"node_id"`
	Schema InputSchema `json:"input_schema"`
}

// GuideData is the payload of guide_word and guide_question events.
type GuideData struct {
	NodeID string `json:"node_id,omitempty"`
	Guide  string `json:"guide"`
}

// OutputData is the payload of output_msg events.
type OutputData struct {
	NodeID string   `json:"node_id"`
	Key    string   `json:"key,omitempty"`
	Msg    string   `json:"msg"`
	Files  []string `json:"files,omitempty"`
}

// StreamChunkData is the payload of stream_chunk events. Chunks are not
// persisted to the transcript; the stream_end event carries the full text.
type StreamChunkData struct {
	NodeID string `json:"node_id"`
	Key    string `json:"key,omitempty"`
	Chunk  string `json:"msg"`
}

// StreamEndData is the payload of a stream_end event.
type StreamEndData struct {
	NodeID string   `json:"node_id"`
	Key    string   `json:"key,omitempty"`
	Msg    string   `json:"msg"`
	Files  []string `json:"files,omitempty"`
}

// Choice is one selectable option of an output_with_choice event.
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ChoiceData is the payload of output_with_choice events. HisValue records
// the user's eventual selection when the message is patched.
type ChoiceData struct {
	NodeID   string   `json:"node_id"`
	Key      string   `json:"key"`
	Msg      string   `json:"msg,omitempty"`
	Options  []Choice `json:"options,omitempty"`
	HisValue any      `json:"hisValue,omitempty"`
}

// InputReplyData is the payload of output_with_input events: an output
// message carrying a single inline reply field. HisValue records the user's
// eventual answer when the message is patched.
type InputReplyData struct {
	NodeID   string `json:"node_id"`
	Key      string `json:"key"`
	Msg      string `json:"msg,omitempty"`
	HisValue any    `json:"hisValue,omitempty"`
}

// QuestionData is the payload of a question event.
type QuestionData struct {
	Msg string `json:"msg"`
}

// ErrorData is the payload of an error event. Kind is the machine-readable
// failure kind for client-side handling; Node names the offending node when
// the failure reason carried one.
type ErrorData struct {
	Kind string `json:"kind"`
	Node string `json:"node,omitempty"`
	Msg  string `json:"msg"`
}
