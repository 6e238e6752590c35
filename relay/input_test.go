package relay

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/beclab/flowrelay/chat"
	"github.com/beclab/flowrelay/event"
	"github.com/beclab/flowrelay/id"
	"github.com/beclab/flowrelay/mailbox"
	"github.com/beclab/flowrelay/run"
	"github.com/beclab/flowrelay/store/memory"
)

func newInputFixture(t *testing.T) (*Coordinator, *memory.Store, *chat.MemoryStore, run.Run) {
	t.Helper()
	s := memory.New()
	msgs := chat.NewMemoryStore()
	c := New(s, WithMessageStore(msgs), WithSessionStore(msgs))
	r := run.Run{
		Token:  id.NewRunID(),
		FlowID: id.NewFlowID(),
		ChatID: "chat-1",
		UserID: "user-1",
	}
	return c, s, msgs, r
}

func createMessage(t *testing.T, msgs *chat.MemoryStore, category event.Category, body any) string {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	msg := &chat.Message{
		ChatID:   "chat-1",
		Category: category,
		Payload:  raw,
		IsBot:    true,
	}
	if err := msgs.CreateMessage(context.Background(), msg); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	return msg.ID
}

func TestSubmitInput_ChoicePatchesHisValue(t *testing.T) {
	c, s, msgs, r := newInputFixture(t)
	ctx := context.Background()

	msgID := createMessage(t, msgs, event.CategoryOutputWithChoice, event.ChoiceData{
		NodeID: "node-1",
		Key:    "decision",
		Options: []event.Choice{
			{ID: "approve", Label: "Approve"},
			{ID: "reject", Label: "Reject"},
		},
	})

	payload := mailbox.Payload{"node-1": {"decision": "approve"}}
	if err := c.SubmitInput(ctx, r, payload, msgID, ""); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}

	msg, err := msgs.GetMessage(ctx, msgID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(msg.Payload, &body); err != nil {
		t.Fatalf("decode patched body: %v", err)
	}
	if body["hisValue"] != "approve" {
		t.Errorf("hisValue = %v, want approve", body["hisValue"])
	}

	// The payload still lands in the mailbox for the worker.
	got, err := s.Withdraw(ctx, r.Token)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if got.Node("node-1")["decision"] != "approve" {
		t.Errorf("mailbox payload = %v, want the submitted value", got)
	}
}

func TestSubmitInput_FormConcatenatesDeclaredOrder(t *testing.T) {
	c, _, msgs, r := newInputFixture(t)
	ctx := context.Background()

	msgID := createMessage(t, msgs, event.CategoryUserInput, event.UserInputData{
		NodeID: "node-1",
		Schema: event.InputSchema{
			Tab: formInputTab,
			Fields: []event.FormField{
				{Key: "name", Label: "Name"},
				{Key: "age", Label: "Age"},
				{Key: "city", Label: "City"},
			},
		},
	})

	payload := mailbox.Payload{"node-1": {"name": "Ada", "age": "36"}}
	if err := c.SubmitInput(ctx, r, payload, msgID, ""); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}

	question := lastQuestion(t, msgs)
	want := "Name:Ada\nAge:36\nCity:\n"
	if question != want {
		t.Errorf("question = %q, want %q", question, want)
	}
}

func TestSubmitInput_FreeTextAppendsFileNames(t *testing.T) {
	c, _, msgs, r := newInputFixture(t)
	ctx := context.Background()

	msgID := createMessage(t, msgs, event.CategoryUserInput, event.UserInputData{
		NodeID: "node-1",
		Schema: event.InputSchema{Key: "dialog"},
	})

	payload := mailbox.Payload{"node-1": {
		"dialog": "please summarize these",
		"dialog_files_content": []any{
			"https://files.example.com/bucket/report.pdf?sig=abc123",
			"/uploads/notes.txt",
		},
	}}
	if err := c.SubmitInput(ctx, r, payload, msgID, ""); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}

	question := lastQuestion(t, msgs)
	want := "please summarize these\nreport.pdf\nnotes.txt"
	if question != want {
		t.Errorf("question = %q, want %q", question, want)
	}
}

func TestSubmitInput_ExplicitTextOverridesMerge(t *testing.T) {
	c, _, msgs, r := newInputFixture(t)
	ctx := context.Background()

	msgID := createMessage(t, msgs, event.CategoryUserInput, event.UserInputData{
		NodeID: "node-1",
		Schema: event.InputSchema{Key: "dialog"},
	})

	payload := mailbox.Payload{"node-1": {"dialog": "merged"}}
	if err := c.SubmitInput(ctx, r, payload, msgID, "typed by hand"); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}

	if got := lastQuestion(t, msgs); got != "typed by hand" {
		t.Errorf("question = %q, want the caller-supplied text", got)
	}
}

func TestSubmitInput_MissingMessageStillDeposits(t *testing.T) {
	c, s, _, r := newInputFixture(t)
	ctx := context.Background()

	payload := mailbox.Payload{"node-1": {"dialog": "hello"}}
	if err := c.SubmitInput(ctx, r, payload, "msg_nonexistent", ""); err != nil {
		t.Fatalf("SubmitInput: %v", err)
	}

	got, err := s.Withdraw(ctx, r.Token)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if got.Node("node-1")["dialog"] != "hello" {
		t.Errorf("mailbox payload = %v, want the submitted value", got)
	}
}

func TestInputKindOf_RejectsPlainOutput(t *testing.T) {
	msg := &chat.Message{
		Category: event.CategoryOutputMsg,
		Payload:  json.RawMessage(`{}`),
	}
	if _, err := inputKindOf(msg); err == nil {
		t.Error("expected an error for a category that accepts no input")
	}
}

func TestFileBaseName(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"https://files.example.com/a/b/report.pdf?sig=x", "report.pdf"},
		{"/uploads/notes.txt", "notes.txt"},
		{"plain.csv", "plain.csv"},
	}
	for _, tt := range tests {
		if got := fileBaseName(tt.ref); got != tt.want {
			t.Errorf("fileBaseName(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

// lastQuestion returns the Msg of the most recently created question
// message.
func lastQuestion(t *testing.T, msgs *chat.MemoryStore) string {
	t.Helper()
	all := msgs.Messages()
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Category != event.CategoryQuestion {
			continue
		}
		var data event.QuestionData
		if err := json.Unmarshal(all[i].Payload, &data); err != nil {
			t.Fatalf("decode question: %v", err)
		}
		return data.Msg
	}
	t.Fatal("no question message was persisted")
	return ""
}
