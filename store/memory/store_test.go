package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/beclab/flowrelay"
	"github.com/beclab/flowrelay/event"
	"github.com/beclab/flowrelay/id"
	"github.com/beclab/flowrelay/mailbox"
	"github.com/beclab/flowrelay/run"
	"github.com/beclab/flowrelay/store/memory"
)

func TestStatusRoundTrip(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	token := id.NewRunID()

	if _, err := s.GetStatus(ctx, token); !errors.Is(err, flowrelay.ErrStatusNotFound) {
		t.Fatalf("expected ErrStatusNotFound, got %v", err)
	}

	if err := s.SetStatus(ctx, token, run.StatusWaiting, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	rec, err := s.GetStatus(ctx, token)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if rec.Status != run.StatusWaiting {
		t.Errorf("Status = %q, want %q", rec.Status, run.StatusWaiting)
	}
	if rec.ObservedAt.IsZero() {
		t.Error("expected ObservedAt to be stamped")
	}
}

func TestTerminalStatusDeletesDataAndInput(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	token := id.NewRunID()

	if err := s.SetData(ctx, token, []byte(`{"nodes":{}}`)); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	if err := s.Deposit(ctx, token, mailbox.Payload{"node-1": {"k": "v"}}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	if err := s.SetStatus(ctx, token, run.StatusSuccess, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	data, err := s.GetData(ctx, token)
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if data != nil {
		t.Errorf("expected data deleted on terminal status, got %q", data)
	}

	payload, err := s.Withdraw(ctx, token)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if payload != nil {
		t.Errorf("expected mailbox deleted on terminal status, got %v", payload)
	}

	// Status survives terminal cleanup.
	if _, err := s.GetStatus(ctx, token); err != nil {
		t.Fatalf("GetStatus after terminal: %v", err)
	}
}

func TestEventFIFO(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	token := id.NewRunID()

	for i := 0; i < 5; i++ {
		evt := event.New(event.CategoryOutputMsg, event.OutputData{
			NodeID: "node-1",
			Msg:    fmt.Sprintf("msg-%d", i),
		})
		if err := s.PushEvent(ctx, token, evt); err != nil {
			t.Fatalf("PushEvent %d: %v", i, err)
		}
	}

	for i := 0; i < 5; i++ {
		evt, err := s.PopEvent(ctx, token)
		if err != nil {
			t.Fatalf("PopEvent %d: %v", i, err)
		}
		if evt == nil {
			t.Fatalf("PopEvent %d: unexpected empty queue", i)
		}
		want := fmt.Sprintf("msg-%d", i)
		var data event.OutputData
		decodePayload(t, evt, &data)
		if data.Msg != want {
			t.Errorf("event %d: Msg = %q, want %q", i, data.Msg, want)
		}
	}

	evt, err := s.PopEvent(ctx, token)
	if err != nil {
		t.Fatalf("PopEvent on empty: %v", err)
	}
	if evt != nil {
		t.Errorf("expected empty queue, got %+v", evt)
	}
}

func TestStopSuppressesQueuedEvents(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	token := id.NewRunID()

	evt := event.New(event.CategoryOutputMsg, event.OutputData{NodeID: "n", Msg: "burst"})
	if err := s.PushEvent(ctx, token, evt); err != nil {
		t.Fatalf("PushEvent: %v", err)
	}
	if err := s.RequestStop(ctx, token); err != nil {
		t.Fatalf("RequestStop: %v", err)
	}

	got, err := s.PopEvent(ctx, token)
	if err != nil {
		t.Fatalf("PopEvent: %v", err)
	}
	if got != nil {
		t.Errorf("expected stop to suppress queued events, got %+v", got)
	}
}

func TestWithdrawConsumesOnce(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	token := id.NewRunID()

	payload := mailbox.Payload{"node-1": {"field": "answer"}}
	if err := s.Deposit(ctx, token, payload); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	got, err := s.Withdraw(ctx, token)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if got.Node("node-1")["field"] != "answer" {
		t.Errorf("payload = %v, want field=answer", got)
	}

	second, err := s.Withdraw(ctx, token)
	if err != nil {
		t.Fatalf("second Withdraw: %v", err)
	}
	if second != nil {
		t.Errorf("expected single consumption, got %v", second)
	}
}

func TestClearRemovesStatus(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	token := id.NewRunID()

	if err := s.SetStatus(ctx, token, run.StatusInputOver, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := s.Clear(ctx, token); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := s.GetStatus(ctx, token); !errors.Is(err, flowrelay.ErrStatusNotFound) {
		t.Fatalf("expected ErrStatusNotFound after Clear, got %v", err)
	}
}

func TestTTLExpiry(t *testing.T) {
	cfg := flowrelay.DefaultConfig()
	cfg.RunTTL = 20 * time.Millisecond
	s := memory.New(memory.WithConfig(cfg))
	ctx := context.Background()
	token := id.NewRunID()

	if err := s.SetData(ctx, token, []byte("snapshot")); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	time.Sleep(40 * time.Millisecond)

	data, err := s.GetData(ctx, token)
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if data != nil {
		t.Errorf("expected data expired, got %q", data)
	}
}

func decodePayload(t *testing.T, evt *event.Event, dst any) {
	t.Helper()
	if err := json.Unmarshal(evt.Payload, dst); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
}
