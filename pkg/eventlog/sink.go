// Package eventlog records verification outcomes off the verification hot
// path. Recording is fire-and-forget: the verify service hands an outcome to
// a Recorder and moves on; persistence or reputation failures are logged and
// swallowed, never surfaced to the caller whose response is already built.
package eventlog

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/agentid-dev/agentid-core/pkg/reputation"
	"github.com/agentid-dev/agentid-core/pkg/store"
)

// Recorder accepts verification outcomes. Implementations must not block
// the caller.
type Recorder interface {
	Record(event store.VerificationEvent)
}

// Config tunes an AsyncRecorder.
type Config struct {
	// QueueSize bounds the in-flight outcome queue (default: 256). When the
	// queue is full new outcomes are dropped, not queued.
	QueueSize int
}

// DefaultQueueSize bounds the outcome queue when Config leaves it zero.
const DefaultQueueSize = 256

// AsyncRecorder queues outcomes to a single background worker that appends
// them to the verification log and drives reputation updates. A full queue
// drops the outcome: verification latency is never traded for bookkeeping.
type AsyncRecorder struct {
	events store.VerificationLog
	engine *reputation.Engine

	queue   chan store.VerificationEvent
	quit    chan struct{}
	wg      sync.WaitGroup
	dropped atomic.Int64
}

// NewAsyncRecorder starts the background worker. engine may be nil when
// reputation tracking is not wired.
func NewAsyncRecorder(events store.VerificationLog, engine *reputation.Engine, cfg Config) *AsyncRecorder {
	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}

	r := &AsyncRecorder{
		events: events,
		engine: engine,
		queue:  make(chan store.VerificationEvent, size),
		quit:   make(chan struct{}),
	}

	r.wg.Add(1)
	go r.loop()
	return r
}

// Record enqueues an outcome without blocking.
func (r *AsyncRecorder) Record(event store.VerificationEvent) {
	select {
	case r.queue <- event:
	default:
		r.dropped.Add(1)
		log.Printf("[eventlog] queue full, dropping outcome for credential %q", event.CredentialID)
	}
}

// Dropped reports how many outcomes were discarded on a full queue.
func (r *AsyncRecorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close drains the queue and stops the worker.
func (r *AsyncRecorder) Close() {
	close(r.quit)
	r.wg.Wait()
}

func (r *AsyncRecorder) loop() {
	defer r.wg.Done()
	for {
		select {
		case ev := <-r.queue:
			apply(r.events, r.engine, ev)
		case <-r.quit:
			for {
				select {
				case ev := <-r.queue:
					apply(r.events, r.engine, ev)
				default:
					return
				}
			}
		}
	}
}

// SyncRecorder applies outcomes inline. Short-lived processes use it where
// there is no lifecycle to flush a queue through.
type SyncRecorder struct {
	events store.VerificationLog
	engine *reputation.Engine
}

// NewSyncRecorder creates a SyncRecorder. engine may be nil.
func NewSyncRecorder(events store.VerificationLog, engine *reputation.Engine) *SyncRecorder {
	return &SyncRecorder{events: events, engine: engine}
}

// Record implements Recorder.
func (r *SyncRecorder) Record(event store.VerificationEvent) {
	apply(r.events, r.engine, event)
}

// apply persists one outcome and feeds the reputation engine. Every failure
// is logged and swallowed.
func apply(events store.VerificationLog, engine *reputation.Engine, ev store.VerificationEvent) {
	ctx := context.Background()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	if events != nil {
		if err := events.AppendEvent(ctx, &ev); err != nil {
			log.Printf("[eventlog] append failed for credential %q: %v", ev.CredentialID, err)
		}
	}

	if engine == nil || ev.CredentialID == "" {
		return
	}
	if err := engine.RecordVerification(ctx, ev.CredentialID, ev.Success); err != nil {
		// Outcomes for unknown credentials are expected (the lookup itself
		// failed); they carry no reputation to update.
		if !errors.Is(err, store.ErrCredentialNotFound) {
			log.Printf("[eventlog] reputation update failed for credential %q: %v", ev.CredentialID, err)
		}
	}
}
