package relay

import (
	"context"
	"errors"
	"iter"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/beclab/flowrelay"
	"github.com/beclab/flowrelay/chat"
	"github.com/beclab/flowrelay/event"
	"github.com/beclab/flowrelay/id"
	"github.com/beclab/flowrelay/mailbox"
	"github.com/beclab/flowrelay/observability"
	"github.com/beclab/flowrelay/run"
	"github.com/beclab/flowrelay/store"
	"github.com/beclab/flowrelay/taskqueue"
)

// tracerName is the instrumentation scope name for coordinator tracing.
const tracerName = "github.com/beclab/flowrelay"

// Coordinator is the consumer-facing side of the coordination layer. It is
// safe to use concurrently for independent run tokens; there is no
// cross-token interaction.
type Coordinator struct {
	store    store.Store
	messages chat.MessageStore
	sessions chat.SessionStore
	queue    taskqueue.Queue
	cfg      flowrelay.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConfig sets the timing knobs (poll interval, busy timeout, orphan
// ceiling).
func WithConfig(cfg flowrelay.Config) Option {
	return func(c *Coordinator) { c.cfg = cfg }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithMessageStore sets the chat message store used for transcript patching.
// Without one, SubmitInput skips message patching.
func WithMessageStore(s chat.MessageStore) Option {
	return func(c *Coordinator) { c.messages = s }
}

// WithSessionStore sets the chat session store.
func WithSessionStore(s chat.SessionStore) Option {
	return func(c *Coordinator) { c.sessions = s }
}

// WithTaskQueue sets the queue used to dispatch and terminate worker
// executions. Without one, Start and Stop only touch the keyspace.
func WithTaskQueue(q taskqueue.Queue) Option {
	return func(c *Coordinator) { c.queue = q }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// New creates a Coordinator on the given store.
func New(st store.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  st,
		cfg:    flowrelay.DefaultConfig(),
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start seeds the WAITING status record and dispatches the run to the worker
// host. The status is written first so a drain that begins before the worker
// picks the run up observes WAITING rather than missing state.
func (c *Coordinator) Start(ctx context.Context, r run.Run) error {
	if err := c.store.SetStatus(ctx, r.Token, run.StatusWaiting, ""); err != nil {
		return err
	}
	if c.queue == nil {
		return nil
	}
	return c.queue.Dispatch(ctx, c.request(r))
}

// Status returns the last-known status record for a run token.
func (c *Coordinator) Status(ctx context.Context, token id.RunID) (*run.Record, error) {
	return c.store.GetStatus(ctx, token)
}

// Clear deletes every key of the run's keyspace. Used when a consumer
// abandons a run so stale status is not reinterpreted on a later poll;
// tokens must not be reused while their status key is alive.
func (c *Coordinator) Clear(ctx context.Context, token id.RunID) error {
	return c.store.Clear(ctx, token)
}

// Stop raises the cooperative stop flag and asks the worker host to
// terminate the run's execution. Idempotent; repeated calls are harmless.
// Cancellation is cooperative, not preemptive: the consumer stops seeing
// events immediately, the worker halts when it next checks the flag.
func (c *Coordinator) Stop(ctx context.Context, r run.Run) error {
	if err := c.store.RequestStop(ctx, r.Token); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.StopRequested.Inc()
	}
	if c.queue == nil {
		return nil
	}
	return c.queue.RequestTermination(ctx, c.request(r))
}

// SubmitInput resumes a paused run: it patches the previously persisted
// "awaiting input" transcript message (when the run has a chat and a target
// message id) and deposits the payload in the run's mailbox for the worker
// to consume.
func (c *Coordinator) SubmitInput(ctx context.Context, r run.Run, payload mailbox.Payload, messageID, messageText string) error {
	if r.ChatID != "" && messageID != "" && c.messages != nil {
		if err := c.patchMessage(ctx, r, payload, messageID, messageText); err != nil {
			// A missing message means there is nothing to patch; the
			// deposit still has to happen.
			if !errors.Is(err, flowrelay.ErrMessageNotFound) {
				return err
			}
		}
	}
	if err := c.store.Deposit(ctx, r.Token, payload); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.InputSubmitted.Inc()
	}
	return nil
}

// Drain returns a finite, lazily produced sequence of outbound events for
// the run: queued events in push order, terminated by the run reaching a
// terminal or input-wait state. Every drain ends with either a normal
// completion, a silent stop, or exactly one trailing error event; the
// sequence itself never fails.
func (c *Coordinator) Drain(ctx context.Context, r run.Run) iter.Seq[*event.Event] {
	return func(yield func(*event.Event) bool) {
		ctx, span := c.tracer.Start(ctx, "flowrelay.drain",
			trace.WithAttributes(
				attribute.String("flowrelay.run.token", r.Token.String()),
				attribute.String("flowrelay.flow.id", r.FlowID.String()),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		if c.metrics != nil {
			c.metrics.DrainStarted.Inc()
			defer c.metrics.DrainCompleted.Inc()
		}

		limiter := rate.NewLimiter(rate.Every(c.cfg.PollInterval), 1)
		for {
			if ctx.Err() != nil {
				return
			}

			rec, err := c.store.GetStatus(ctx, r.Token)
			if errors.Is(err, flowrelay.ErrStatusNotFound) {
				// Never dispatched, or already expired.
				yield(c.errorEvent(r, FailureMissingState, "", ""))
				return
			}
			if err != nil {
				c.logger.Error("drain: read status",
					slog.String("token", r.Token.String()),
					slog.String("error", err.Error()),
				)
				yield(c.errorEvent(r, FailureOther, "", err.Error()))
				return
			}

			switch {
			case rec.Terminal():
				if !c.drainQueued(ctx, r, yield) {
					return
				}
				if rec.Status == run.StatusFailed {
					if evt := c.classifyFailure(r, rec.Reason); evt != nil {
						yield(evt)
					}
				}
				return

			case rec.Status == run.StatusInput:
				// Paused; the queued events include the input prompt.
				// Control returns to the consumer until SubmitInput.
				c.drainQueued(ctx, r, yield)
				return

			case (rec.Status == run.StatusWaiting || rec.Status == run.StatusInputOver) &&
				rec.Age() > c.cfg.BusyTimeout:
				// No status update inside the liveness window: the worker
				// never started, likely because its pool is saturated.
				if err := c.store.SetStatus(ctx, r.Token, run.StatusFailed, reasonBusy); err != nil {
					c.logger.Error("drain: mark busy", slog.String("error", err.Error()))
				}
				yield(c.errorEvent(r, FailureWorkerBusy, "", ""))
				return

			case rec.Age() > c.cfg.OrphanCeiling:
				yield(c.errorEvent(r, FailureOrphaned, "", ""))
				if err := c.store.SetStatus(ctx, r.Token, run.StatusFailed, reasonStale); err != nil {
					c.logger.Error("drain: mark orphaned", slog.String("error", err.Error()))
				}
				if err := c.Stop(ctx, r); err != nil {
					c.logger.Error("drain: stop orphaned run", slog.String("error", err.Error()))
				}
				return

			default:
				evt, err := c.store.PopEvent(ctx, r.Token)
				if err != nil {
					yield(c.errorEvent(r, FailureOther, "", err.Error()))
					return
				}
				if evt == nil {
					if err := limiter.Wait(ctx); err != nil {
						return
					}
					continue
				}
				if c.metrics != nil {
					c.metrics.EventRelayed.Inc()
				}
				if !yield(evt) {
					return
				}
			}
		}
	}
}

// drainQueued pops the event channel to empty, yielding every event in
// order. Returns false if the consumer stopped iterating or a store error
// was surfaced.
func (c *Coordinator) drainQueued(ctx context.Context, r run.Run, yield func(*event.Event) bool) bool {
	for {
		evt, err := c.store.PopEvent(ctx, r.Token)
		if err != nil {
			yield(c.errorEvent(r, FailureOther, "", err.Error()))
			return false
		}
		if evt == nil {
			return true
		}
		if c.metrics != nil {
			c.metrics.EventRelayed.Inc()
		}
		if !yield(evt) {
			return false
		}
	}
}

// classifyFailure maps a FAILED reason to the trailing error event, or nil
// for a user-initiated stop (silent termination).
func (c *Coordinator) classifyFailure(r run.Run, reason string) *event.Event {
	kind, node := classifyReason(reason)
	if kind == FailureUserStopped {
		return nil
	}
	return c.errorEvent(r, kind, node, reason)
}

// errorEvent builds the structured error event for a failure kind.
func (c *Coordinator) errorEvent(r run.Run, kind FailureKind, node, reason string) *event.Event {
	if c.metrics != nil {
		c.metrics.FailureEmitted.Inc()
	}
	evt := event.New(event.CategoryError, event.ErrorData{
		Kind: string(kind),
		Node: node,
		Msg:  failureMessage(kind, node, reason),
	})
	evt.FlowID = r.FlowID.String()
	evt.ChatID = r.ChatID
	evt.UserID = r.UserID
	return evt
}

func (c *Coordinator) request(r run.Run) taskqueue.Request {
	return taskqueue.Request{
		Token:  r.Token,
		FlowID: r.FlowID.String(),
		ChatID: r.ChatID,
		UserID: r.UserID,
	}
}
