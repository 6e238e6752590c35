package relay

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/beclab/flowrelay/chat"
	"github.com/beclab/flowrelay/event"
	"github.com/beclab/flowrelay/mailbox"
	"github.com/beclab/flowrelay/run"
	"github.com/beclab/flowrelay/store"
)

// Halter cooperatively stops the executing workflow's control flow. The
// workflow executor injects its own halt hook.
type Halter interface {
	Halt()
}

// Producer is the worker-side half of the coordination layer: it implements
// the executor callback contract, serializing each raised event into the
// run's event channel and persisting transcript messages. One Producer
// serves one run and is driven by a single executor goroutine.
//
// A failed store write is returned to the caller; the producer does not
// retry internally.
type Producer struct {
	store    store.Store
	messages chat.MessageStore
	sessions chat.SessionStore
	run      run.Run
	halter   Halter
	logger   *slog.Logger

	// sessionReady tracks the lazy session creation on first persisted
	// non-input message.
	sessionReady bool
}

// ProducerOption configures a Producer.
type ProducerOption func(*Producer)

// WithProducerLogger sets the structured logger.
func WithProducerLogger(l *slog.Logger) ProducerOption {
	return func(p *Producer) { p.logger = l }
}

// WithProducerMessageStore sets the chat message store. Without one, events
// are relayed without transcript persistence (message ids become synthetic).
func WithProducerMessageStore(s chat.MessageStore) ProducerOption {
	return func(p *Producer) { p.messages = s }
}

// WithProducerSessionStore sets the chat session store.
func WithProducerSessionStore(s chat.SessionStore) ProducerOption {
	return func(p *Producer) { p.sessions = s }
}

// WithHalter sets the executor halt hook invoked when a stop request is
// observed.
func WithHalter(h Halter) ProducerOption {
	return func(p *Producer) { p.halter = h }
}

// NewProducer creates the worker-side producer for one run.
func NewProducer(st store.Store, r run.Run, opts ...ProducerOption) *Producer {
	p := &Producer{
		store:  st,
		run:    r,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// SetStatus records the run status. Terminal statuses trigger the keyspace's
// terminal cleanup.
func (p *Producer) SetStatus(ctx context.Context, status run.Status, reason string) error {
	return p.store.SetStatus(ctx, p.run.Token, status, reason)
}

// Fail records a terminal FAILED status with a structured reason.
func (p *Producer) Fail(ctx context.Context, kind FailureKind, node, detail string) error {
	return p.SetStatus(ctx, run.StatusFailed, FormatReason(kind, node, detail))
}

// SetData stores the run's data snapshot.
func (p *Producer) SetData(ctx context.Context, data []byte) error {
	return p.store.SetData(ctx, p.run.Token, data)
}

// Data returns the run's data snapshot, or nil.
func (p *Producer) Data(ctx context.Context) ([]byte, error) {
	return p.store.GetData(ctx, p.run.Token)
}

// ConsumeInput withdraws the resumption payload, or returns nil when none
// has been deposited yet. A payload is consumed at most once.
func (p *Producer) ConsumeInput(ctx context.Context) (mailbox.Payload, error) {
	return p.store.Withdraw(ctx, p.run.Token)
}

// Stopped reports whether a stop has been requested for the run.
func (p *Producer) Stopped(ctx context.Context) (bool, error) {
	return p.store.Stopped(ctx, p.run.Token)
}

// ──────────────────────────────────────────────────
// Executor callback contract
// ──────────────────────────────────────────────────

// OnNodeStart relays a node start. Node events are not persisted to the
// transcript.
func (p *Producer) OnNodeStart(ctx context.Context, data event.NodeData) error {
	p.logger.Debug("node start", slog.String("node", data.NodeID))
	return p.send(ctx, p.newEvent(event.CategoryNodeStart, data))
}

// OnNodeEnd relays a node end.
func (p *Producer) OnNodeEnd(ctx context.Context, data event.NodeData) error {
	p.logger.Debug("node end", slog.String("node", data.NodeID))
	return p.send(ctx, p.newEvent(event.CategoryNodeEnd, data))
}

// OnUserInput relays an input request: the run pauses until the consumer
// submits a resumption payload. The persisted message id is stamped on the
// event so the consumer can patch the transcript on submission.
func (p *Producer) OnUserInput(ctx context.Context, data event.UserInputData) error {
	p.logger.Debug("user input requested", slog.String("node", data.NodeID))
	evt := p.newEvent(event.CategoryUserInput, data)
	if err := p.persist(ctx, evt); err != nil {
		return err
	}
	return p.send(ctx, evt)
}

// OnGuideWord relays a guide word.
func (p *Producer) OnGuideWord(ctx context.Context, data event.GuideData) error {
	evt := p.newEvent(event.CategoryGuideWord, data)
	if err := p.persist(ctx, evt); err != nil {
		return err
	}
	return p.send(ctx, evt)
}

// OnGuideQuestion relays a guide question.
func (p *Producer) OnGuideQuestion(ctx context.Context, data event.GuideData) error {
	evt := p.newEvent(event.CategoryGuideQuestion, data)
	if err := p.persist(ctx, evt); err != nil {
		return err
	}
	return p.send(ctx, evt)
}

// OnOutputMessage relays an output message.
func (p *Producer) OnOutputMessage(ctx context.Context, data event.OutputData) error {
	evt := p.newEvent(event.CategoryOutputMsg, data)
	evt.Files = data.Files
	if err := p.persist(ctx, evt); err != nil {
		return err
	}
	return p.send(ctx, evt)
}

// OnStreamChunk relays one streamed chunk. Chunks skip both transcript
// persistence and the stop check: polling the flag per chunk costs more
// than stopping mid-stream is worth, so streamed output may continue
// briefly after a stop request.
func (p *Producer) OnStreamChunk(ctx context.Context, data event.StreamChunkData) error {
	return p.store.PushEvent(ctx, p.run.Token, p.newEvent(event.CategoryStreamChunk, data))
}

// OnStreamEnd relays the end of a stream with the full text.
func (p *Producer) OnStreamEnd(ctx context.Context, data event.StreamEndData) error {
	evt := p.newEvent(event.CategoryStreamEnd, data)
	evt.Files = data.Files
	if err := p.persist(ctx, evt); err != nil {
		return err
	}
	return p.send(ctx, evt)
}

// OnOutputWithChoice relays an output message carrying selectable options.
func (p *Producer) OnOutputWithChoice(ctx context.Context, data event.ChoiceData) error {
	evt := p.newEvent(event.CategoryOutputWithChoice, data)
	if err := p.persist(ctx, evt); err != nil {
		return err
	}
	return p.send(ctx, evt)
}

// OnOutputWithInput relays an output message carrying an inline reply field.
func (p *Producer) OnOutputWithInput(ctx context.Context, data event.InputReplyData) error {
	evt := p.newEvent(event.CategoryOutputWithInput, data)
	if err := p.persist(ctx, evt); err != nil {
		return err
	}
	return p.send(ctx, evt)
}

// ──────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────

func (p *Producer) newEvent(category event.Category, payload any) *event.Event {
	evt := event.New(category, payload)
	evt.FlowID = p.run.FlowID.String()
	evt.ChatID = p.run.ChatID
	evt.UserID = p.run.UserID
	return evt
}

// send pushes the event and honors a pending stop request: after any
// non-stream emission the stop flag is read from the store, and the
// executor is halted if it has been raised.
func (p *Producer) send(ctx context.Context, evt *event.Event) error {
	if err := p.store.PushEvent(ctx, p.run.Token, evt); err != nil {
		return err
	}

	stopped, err := p.store.Stopped(ctx, p.run.Token)
	if err != nil {
		return err
	}
	if stopped && p.halter != nil {
		p.halter.Halt()
	}
	return nil
}

// persist saves the event as a transcript message and stamps the assigned
// message id on the event. Chat-less runs get a synthetic id so clients can
// still key message rendering.
func (p *Producer) persist(ctx context.Context, evt *event.Event) error {
	if p.run.ChatID == "" || p.messages == nil {
		evt.MessageID = uuid.NewString()
		return nil
	}

	if err := p.ensureSession(ctx, evt.Category); err != nil {
		return err
	}

	msg := &chat.Message{
		ChatID:   evt.ChatID,
		FlowID:   evt.FlowID,
		UserID:   evt.UserID,
		Category: evt.Category,
		Payload:  evt.Payload,
		Files:    evt.Files,
		Extra:    evt.Extra,
		IsBot:    true,
	}
	if err := p.messages.CreateMessage(ctx, msg); err != nil {
		return err
	}
	evt.MessageID = msg.ID
	return nil
}

// ensureSession lazily creates the chat session on the first persisted
// message. Input requests do not create sessions: a run that only ever
// asked for input was never visibly part of the conversation.
func (p *Producer) ensureSession(ctx context.Context, category event.Category) error {
	if p.sessionReady || p.sessions == nil || category == event.CategoryUserInput {
		return nil
	}
	_, err := p.sessions.GetOrCreateSession(ctx, p.run.ChatID, p.run.FlowID.String(), p.run.UserID)
	if err != nil {
		return err
	}
	p.sessionReady = true
	return nil
}
