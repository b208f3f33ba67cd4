package relay

import (
	"context"
	"errors"
	"time"

	"nftloan-backend/internal/domain/event"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const maxRetryInterval = 30 * time.Second

type Recorder interface {
	EventsPublished(n int)
	PublishFailed()
}

type Options struct {
	PollInterval time.Duration
	BatchSize    int
	Clock        func() time.Time
}

// Relay moves committed events from the outbox to the sink. Delivery is
// at-least-once: a crash between publish and MarkDelivered republishes.
type Relay struct {
	outbox  event.OutboxRepository
	sink    event.Notifier
	metrics Recorder
	log     *zap.Logger
	opts    Options
	kick    chan struct{}
}

func New(outbox event.OutboxRepository, sink event.Notifier, metrics Recorder, log *zap.Logger, opts Options) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Relay{
		outbox:  outbox,
		sink:    sink,
		metrics: metrics,
		log:     log,
		opts:    opts,
		kick:    make(chan struct{}, 1),
	}
}

// Notify wakes the relay after a commit. The event is already in the outbox.
func (r *Relay) Notify(_ context.Context, _ event.Event) { r.Kick() }

func (r *Relay) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Run drains the outbox until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	retry := backoff.NewExponentialBackOff()
	retry.MaxInterval = maxRetryInterval

	for {
		n, err := r.Drain(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			sleep := retry.NextBackOff()
			if sleep == backoff.Stop {
				sleep = maxRetryInterval
			}
			r.log.Warn("outbox relay failed, backing off", zap.Error(err), zap.Duration("retry_in", sleep))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(sleep):
				continue
			}
		}
		retry.Reset()

		if n == r.opts.BatchSize {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-r.kick:
		}
	}
}

// Drain publishes one batch of pending events in commit order and returns
// how many were marked delivered. It stops at the first publish failure.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	pending, err := r.outbox.ListPending(ctx, r.opts.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	delivered := make([]uint64, 0, len(pending))
	var pubErr error
	for i := range pending {
		rec := &pending[i]
		e, err := rec.Event()
		if err != nil {
			// undecodable rows would block the queue forever
			r.log.Error("dropping malformed outbox record", zap.Uint64("id", rec.ID), zap.Error(err))
			delivered = append(delivered, rec.ID)
			continue
		}
		if err := r.sink.Publish(ctx, e); err != nil {
			if r.metrics != nil {
				r.metrics.PublishFailed()
			}
			pubErr = err
			break
		}
		delivered = append(delivered, rec.ID)
	}

	if err := r.outbox.MarkDelivered(ctx, delivered, r.opts.Clock().Unix()); err != nil {
		return 0, err
	}
	if r.metrics != nil && len(delivered) > 0 {
		r.metrics.EventsPublished(len(delivered))
	}
	if pubErr != nil {
		return len(delivered), pubErr
	}
	return len(delivered), nil
}
