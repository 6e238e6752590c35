package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/beclab/flowrelay/chat"
	"github.com/beclab/flowrelay/event"
	"github.com/beclab/flowrelay/mailbox"
	"github.com/beclab/flowrelay/run"
)

// inputKind is the closed set of merge behaviours for patching an
// "awaiting input" transcript message with the user's submission.
type inputKind int

const (
	// kindValue substitutes the submitted value into the message's recorded
	// hisValue field (choice selections and inline reply fields).
	kindValue inputKind = iota
	// kindForm concatenates label:value lines for every declared form field.
	kindForm
	// kindFreeText uses the dialog field's text plus any uploaded file names.
	kindFreeText
)

// formInputTab is the schema tab value marking a declared form field list.
const formInputTab = "form_input"

// inputKindOf derives the merge variant from the paused message's category
// and, for user_input messages, its recorded input schema.
func inputKindOf(msg *chat.Message) (inputKind, error) {
	switch msg.Category {
	case event.CategoryOutputWithChoice, event.CategoryOutputWithInput:
		return kindValue, nil
	case event.CategoryUserInput:
		var data event.UserInputData
		if err := json.Unmarshal(msg.Payload, &data); err != nil {
			return 0, fmt.Errorf("flowrelay/relay: decode input schema: %w", err)
		}
		if data.Schema.Tab == formInputTab {
			return kindForm, nil
		}
		return kindFreeText, nil
	default:
		return 0, fmt.Errorf("flowrelay/relay: message category %q accepts no input", msg.Category)
	}
}

// patchMessage merges the submitted payload into the previously persisted
// "awaiting input" message so the transcript reflects what was actually
// submitted, not a placeholder. Value substitutions update the message in
// place; form and free-text submissions are persisted as a new question
// message.
func (c *Coordinator) patchMessage(ctx context.Context, r run.Run, payload mailbox.Payload, messageID, messageText string) error {
	msg, err := c.messages.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}

	kind, err := inputKindOf(msg)
	if err != nil {
		return err
	}

	switch kind {
	case kindValue:
		return c.mergeValue(ctx, msg, payload)
	case kindForm:
		text := messageText
		if text == "" {
			text, err = mergeForm(msg, payload)
			if err != nil {
				return err
			}
		}
		return c.saveQuestion(ctx, r, text)
	default: // kindFreeText
		text := messageText
		if text == "" {
			text, err = mergeFreeText(msg, payload)
			if err != nil {
				return err
			}
		}
		return c.saveQuestion(ctx, r, text)
	}
}

// mergeValue sets the message body's hisValue to the submitted value for
// the recorded node and key, preserving every other field.
func (c *Coordinator) mergeValue(ctx context.Context, msg *chat.Message, payload mailbox.Payload) error {
	var body map[string]any
	if err := json.Unmarshal(msg.Payload, &body); err != nil {
		return fmt.Errorf("flowrelay/relay: decode message body: %w", err)
	}
	nodeID, _ := body["node_id"].(string)
	key, _ := body["key"].(string)
	body["hisValue"] = payload.Node(nodeID)[key]

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("flowrelay/relay: encode message body: %w", err)
	}
	msg.Payload = raw
	return c.messages.UpdateMessage(ctx, msg)
}

// mergeForm concatenates label:value lines for every declared field, in
// declared order. Fields the user left out render with an empty value.
func mergeForm(msg *chat.Message, payload mailbox.Payload) (string, error) {
	var data event.UserInputData
	if err := json.Unmarshal(msg.Payload, &data); err != nil {
		return "", fmt.Errorf("flowrelay/relay: decode input schema: %w", err)
	}

	values := payload.Node(data.NodeID)
	var b strings.Builder
	for _, f := range data.Schema.Fields {
		fmt.Fprintf(&b, "%s:%s\n", f.Label, stringValue(values[f.Key]))
	}
	return b.String(), nil
}

// mergeFreeText returns the dialog field's text plus the base name of every
// uploaded file reference.
func mergeFreeText(msg *chat.Message, payload mailbox.Payload) (string, error) {
	var data event.UserInputData
	if err := json.Unmarshal(msg.Payload, &data); err != nil {
		return "", fmt.Errorf("flowrelay/relay: decode input schema: %w", err)
	}

	values := payload.Node(data.NodeID)
	text := stringValue(values[data.Schema.Key])
	if files, ok := values["dialog_files_content"].([]any); ok {
		for _, f := range files {
			ref, ok := f.(string)
			if !ok {
				continue
			}
			text += "\n" + fileBaseName(ref)
		}
	}
	return text, nil
}

// saveQuestion persists the user's answer as a new question message.
func (c *Coordinator) saveQuestion(ctx context.Context, r run.Run, text string) error {
	raw, err := json.Marshal(event.QuestionData{Msg: text})
	if err != nil {
		return fmt.Errorf("flowrelay/relay: encode question: %w", err)
	}
	return c.messages.CreateMessage(ctx, &chat.Message{
		ChatID:   r.ChatID,
		FlowID:   r.FlowID.String(),
		UserID:   r.UserID,
		Category: event.CategoryQuestion,
		Payload:  raw,
		IsBot:    false,
	})
}

// fileBaseName extracts the display name from a file reference, dropping
// any directory components and URL query string.
func fileBaseName(ref string) string {
	name, _, _ := strings.Cut(path.Base(ref), "?")
	return name
}

// stringValue renders a submitted value for transcript text. Missing values
// render empty rather than "<nil>".
func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
