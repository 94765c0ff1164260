package bridge

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfbridge/internal/models"
	"github.com/desertthunder/shelfbridge/internal/shared"
)

// StreamRunner is implemented by [*Manager].
type StreamRunner interface {
	Run(ctx context.Context, sink EventSink) error
}

// EventTranslator is implemented by [*Translator].
type EventTranslator interface {
	Translate(ctx context.Context, ev models.RawProgressEvent) (*models.ResolvedUpdate, error)
}

// UpdatePublisher is implemented by [*Publisher].
type UpdatePublisher interface {
	Publish(ctx context.Context, u *models.ResolvedUpdate) PublishResult
}

// Stats counts events handled since the supervisor was created.
type Stats struct {
	Received  int64
	Published int64
	Dropped   int64
	LastEvent time.Time
}

// Supervisor runs the manager forever and pairs each event with translate and publish.
type Supervisor struct {
	manager    StreamRunner
	translator EventTranslator
	publisher  UpdatePublisher
	backoff    time.Duration
	updates    chan<- Update
	logger     *log.Logger
	sleep      func(ctx context.Context, d time.Duration) error

	running   atomic.Bool
	received  atomic.Int64
	published atomic.Int64
	dropped   atomic.Int64
	lastEvent atomic.Int64
}

func NewSupervisor(manager StreamRunner, translator EventTranslator, publisher UpdatePublisher, backoff time.Duration, logger *log.Logger) *Supervisor {
	if backoff <= 0 {
		backoff = shared.DefaultBackoff
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Supervisor{
		manager:    manager,
		translator: translator,
		publisher:  publisher,
		backoff:    backoff,
		logger:     logger,
		sleep:      sleep,
	}
}

// SetUpdates enables non-blocking per-event status updates.
func (s *Supervisor) SetUpdates(ch chan<- Update) {
	s.updates = ch
}

// Run restarts the manager after the fixed backoff whenever it returns or panics.
//
// Only one Run may be active; a second call returns [shared.ErrAlreadyRunning]. Run returns nil once ctx is done.
func (s *Supervisor) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return shared.ErrAlreadyRunning
	}
	defer s.running.Store(false)

	for {
		err := s.runManager(ctx)
		if ctx.Err() != nil {
			s.logger.Info("supervisor stopped")
			return nil
		}

		if err == nil {
			err = fmt.Errorf("connection manager exited")
		}
		s.logger.Error("restarting connection manager", "error", err, "restart_in", s.backoff)
		if err := s.sleep(ctx, s.backoff); err != nil {
			s.logger.Info("supervisor stopped")
			return nil
		}
	}
}

func (s *Supervisor) runManager(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("connection manager panic: %v", r)
		}
	}()
	return s.manager.Run(ctx, s.Handle)
}

// Handle translates and publishes one event. Every failure is logged and the event is dropped.
func (s *Supervisor) Handle(ctx context.Context, ev models.RawProgressEvent) {
	s.received.Add(1)
	s.lastEvent.Store(time.Now().UnixMilli())

	update, err := s.translator.Translate(ctx, ev)
	if err != nil {
		s.dropped.Add(1)
		s.logger.Warn("dropping progress event", "item", ev.SourceItemID, "error", err)
		sendUpdate(s.updates, droppedUpdate(ev.SourceItemID, "", err))
		return
	}

	result := s.publisher.Publish(ctx, update)
	if !result.OK {
		s.dropped.Add(1)
		sendUpdate(s.updates, droppedUpdate(ev.SourceItemID, update.ExternalID, result.Err))
		return
	}

	s.published.Add(1)
	sendUpdate(s.updates, publishedUpdate(update))
}

// Stats returns a snapshot of the event counters.
func (s *Supervisor) Stats() Stats {
	st := Stats{
		Received:  s.received.Load(),
		Published: s.published.Load(),
		Dropped:   s.dropped.Load(),
	}
	if ms := s.lastEvent.Load(); ms > 0 {
		st.LastEvent = time.UnixMilli(ms)
	}
	return st
}
