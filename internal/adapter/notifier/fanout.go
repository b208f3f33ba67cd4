package notifier

import (
	"context"
	"errors"
	"fmt"

	"nftloan-backend/internal/domain/event"
)

type namedSink struct {
	name string
	n    event.Notifier
}

// Fanout publishes to every sink and joins their failures.
type Fanout struct {
	sinks []namedSink
}

func NewFanout() *Fanout { return &Fanout{} }

func (f *Fanout) Add(name string, n event.Notifier) *Fanout {
	if n != nil {
		f.sinks = append(f.sinks, namedSink{name: name, n: n})
	}
	return f
}

func (f *Fanout) Publish(ctx context.Context, e event.Event) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.n.Publish(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Len() int { return len(f.sinks) }
