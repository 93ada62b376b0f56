package audit

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"clubhouse/pkg/requestcontext"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByTarget(ctx context.Context, model, targetID string) ([]Event, error)
}

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 250 * time.Millisecond
)

// Publisher is the fire-and-forget audit sink. Record never blocks and never
// fails; a background loop drains the buffer into the store and only logs
// persistence errors.
type Publisher struct {
	store         Store
	buffer        *eventQueue
	logger        *slog.Logger
	metrics       *Metrics
	batchSize     int
	flushInterval time.Duration
	notify        chan struct{}
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func WithBufferSize(n int) Option {
	return func(p *Publisher) { p.buffer = newEventQueue(n) }
}

func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) { p.flushInterval = d }
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:         store,
		logger:        slog.Default(),
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		notify:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer == nil {
		p.buffer = newEventQueue(0)
	}
	return p
}

// Record enqueues an event. Timestamp and request ID are filled from ctx
// when missing.
func (p *Publisher) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	event.Metadata = withDefaults(event.Metadata, map[string]string{
		"client_ip": requestcontext.ClientIP(ctx),
		"device":    requestcontext.Device(ctx),
	})
	if p.buffer.push(event) {
		p.logger.WarnContext(ctx, "audit buffer full, dropped oldest event", "action", event.Action)
		p.metrics.incDropped()
	}
	p.metrics.incRecorded()
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Run drains the buffer until ctx is cancelled, then flushes what is left.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// Final drain runs on a fresh context so shutdown does not lose events.
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			p.Flush(flushCtx)
			cancel()
			return
		case <-p.notify:
			p.Flush(ctx)
		case <-ticker.C:
			p.Flush(ctx)
		}
	}
}

// Flush persists everything currently buffered.
func (p *Publisher) Flush(ctx context.Context) {
	for {
		batch := p.buffer.take(p.batchSize)
		if len(batch) == 0 {
			return
		}
		for _, event := range batch {
			if err := p.store.Append(ctx, event); err != nil {
				p.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", event.Action,
					"target_model", event.TargetModel,
					"target_id", event.TargetID,
					"error", err,
				)
				p.metrics.incPersistFailure()
			}
		}
	}
}

// Pending returns the number of buffered events.
func (p *Publisher) Pending() int {
	return p.buffer.pending()
}

// withDefaults returns a copy of metadata with every non-empty default the
// caller did not already supply. The caller's map is never written.
func withDefaults(metadata map[string]any, defaults map[string]string) map[string]any {
	out := maps.Clone(metadata)
	for key, value := range defaults {
		if value == "" {
			continue
		}
		if _, ok := out[key]; ok {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(defaults))
		}
		out[key] = value
	}
	return out
}
