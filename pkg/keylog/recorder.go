package keylog

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options controls recorder behaviour.
type Options struct {
	Source    Source
	Journal   *Journal
	Logger    *zap.Logger
	QueueSize int
	Clock     func() time.Time
}

// Stats counts what happened to the events a recorder received.
type Stats struct {
	Received int
	Recorded int
	Failed   int
}

// Recorder pipes events from a Source to a Journal through a bounded queue.
type Recorder struct {
	source    Source
	journal   *Journal
	logger    *zap.Logger
	queueSize int
	clock     func() time.Time
}

// NewRecorder validates options and constructs a recorder.
func NewRecorder(opts Options) (*Recorder, error) {
	if opts.Source == nil {
		return nil, errors.New("source must be provided")
	}
	if opts.Journal == nil {
		return nil, errors.New("journal must be provided")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger must be provided")
	}
	if opts.QueueSize <= 0 {
		return nil, errors.New("queue size must be positive")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Recorder{
		source:    opts.Source,
		journal:   opts.Journal,
		logger:    opts.Logger,
		queueSize: opts.QueueSize,
		clock:     clock,
	}, nil
}

// Run streams events until the source stops or ctx is cancelled. Every event accepted
// into the queue is written before Run returns. Journal failures are logged and counted
// but never stop the pipeline; only a source failure or cancellation ends the run.
func (r *Recorder) Run(ctx context.Context) (Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	queue := make(chan Event, r.queueSize)
	var stats Stats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer close(queue)
		defer func() {
			if rec := recover(); rec != nil {
				err = &PanicError{Value: rec, Stack: debug.Stack()}
			}
		}()
		err = r.source.Stream(gctx, func(event Event) error {
			select {
			case queue <- event:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("stream key events: %w", err)
		}
		return err
	})
	g.Go(func() error {
		for event := range queue {
			stats.Received++
			if r.record(event) {
				stats.Recorded++
			} else {
				stats.Failed++
			}
		}
		return nil
	})

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return stats, err
}

func (r *Recorder) record(event Event) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("recording key event panicked",
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			ok = false
		}
	}()

	ts := event.Time
	if ts.IsZero() {
		ts = r.clock()
	}
	if err := r.journal.Append(ts, FormatKeyLine(event)); err != nil {
		r.logger.Error("failed to append key event",
			zap.String("journal", r.journal.Path()),
			zap.String("key", event.Name),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// PanicError wraps a panic recovered from an event source.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("event source panicked: %v", e.Value)
}
