package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"workorder/internal/domain/entity"
	"workorder/pkg/utils"
)

// Notifier publishes domain events off the request path. Events are queued in
// a bounded buffer and published in order by a single goroutine; a full buffer
// drops the event with a warning.
type Notifier struct {
	Publisher   Publisher
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int

	queue  chan entity.Event
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

func NewNotifier(p Publisher, buffer int) *Notifier {
	if buffer <= 0 {
		buffer = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		Publisher:   p,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		MaxAttempts: 5,
		queue:       make(chan entity.Event, buffer),
		done:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	go n.run()
	return n
}

func (n *Notifier) Notify(e entity.Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.queue <- e:
	default:
		log.Warn().Str("event", string(e.Type)).Str("job_id", e.JobID).Msg("event queue full, dropping event")
	}
}

// Close stops accepting events and waits for the queue to drain. When ctx
// expires first, in-flight retries are abandoned.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		n.cancel()
		return nil
	case <-ctx.Done():
		n.cancel()
		<-n.done
		return ctx.Err()
	}
}

func (n *Notifier) run() {
	defer close(n.done)
	for e := range n.queue {
		body, err := utils.ToRawMessage(e)
		if err != nil {
			log.Error().Err(err).Str("event", string(e.Type)).Msg("encode event")
			continue
		}
		if err := n.publishWithRetry(n.ctx, string(e.Type), body); err != nil {
			log.Error().Err(err).Str("event", string(e.Type)).Str("job_id", e.JobID).Msg("publish event")
		}
	}
}

func (n *Notifier) publishWithRetry(ctx context.Context, routingKey string, msg []byte) error {
	var lastErr error

	for attempt := 1; attempt <= n.MaxAttempts; attempt++ {
		if err := n.Publisher.Publish(ctx, routingKey, msg); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == n.MaxAttempts {
			break
		}

		backoff := n.BaseDelay << (attempt - 1)
		if backoff > n.MaxDelay {
			backoff = n.MaxDelay
		}

		select {
		case <-time.After(backoff):

		case <-ctx.Done():
			return errors.New("publish canceled by context")
		}
	}

	return lastErr
}
