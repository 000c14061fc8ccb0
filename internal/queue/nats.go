package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"embed-service/internal/embeddings"
)

const (
	defaultDrainTimeout = 10 * time.Second
	drainPollInterval   = 10 * time.Millisecond
)

// ErrDrainTimeout is returned by Serve when in-flight requests outlive the
// drain timeout.
var ErrDrainTimeout = errors.New("nats drain timed out")

// NewNATS constructs a request/reply responder on subject, load-balanced
// across instances through the queue group. On shutdown it stops taking
// new requests and answers the ones already received, waiting at most
// drainTimeout.
func NewNATS(log *slog.Logger, nc *nats.Conn, subject, group string, e embeddings.Embedder, timeout, drainTimeout time.Duration) Responder {
	if drainTimeout <= 0 {
		drainTimeout = defaultDrainTimeout
	}
	return &natsResponder{
		log:          log,
		nc:           nc,
		subject:      subject,
		group:        group,
		embedder:     e,
		timeout:      timeout,
		drainTimeout: drainTimeout,
	}
}

type natsResponder struct {
	log          *slog.Logger
	nc           *nats.Conn
	subject      string
	group        string
	embedder     embeddings.Embedder
	timeout      time.Duration
	drainTimeout time.Duration
	inflight     atomic.Int64
}

func (q *natsResponder) Serve(ctx context.Context) error {
	if q.subject == "" {
		return errors.New("nats subject required")
	}
	// Requests outlive ctx so that draining can still answer them.
	msgCtx := context.WithoutCancel(ctx)
	sub, err := q.nc.QueueSubscribe(q.subject, q.group, func(msg *nats.Msg) {
		q.inflight.Add(1)
		defer q.inflight.Add(-1)
		q.handleMessage(msgCtx, msg)
	})
	if err != nil {
		return err
	}
	q.log.Info("nats responder listening", "subject", q.subject, "group", q.group)
	<-ctx.Done()

	q.log.Info("draining nats responder", "subject", q.subject)
	if err := sub.Drain(); err != nil {
		return err
	}
	return q.waitDrained(sub)
}

// waitDrained blocks until the subscription is gone and no handler is running.
func (q *natsResponder) waitDrained(sub *nats.Subscription) error {
	deadline := time.Now().Add(q.drainTimeout)
	for sub.IsValid() || q.inflight.Load() > 0 {
		if time.Now().After(deadline) {
			q.log.Warn("nats drain timed out", "subject", q.subject, "inflight", q.inflight.Load())
			return ErrDrainTimeout
		}
		time.Sleep(drainPollInterval)
	}
	return nil
}

func (q *natsResponder) handleMessage(ctx context.Context, msg *nats.Msg) {
	if msg.Reply == "" {
		q.log.Warn("dropping embed request without reply subject", "subject", msg.Subject)
		return
	}
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	if err := msg.Respond(process(ctx, q.log, q.embedder, msg.Data)); err != nil {
		q.log.Error("failed to respond", "subject", msg.Subject, "err", err)
	}
}
