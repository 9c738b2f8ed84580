package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ServiceConfig tunes batching.
type ServiceConfig struct {
	// BatchSize flushes once this many events are pending.
	BatchSize int
	// FlushInterval flushes pending events at least this often.
	FlushInterval time.Duration
	// FlushTimeout bounds each Store.Record call.
	FlushTimeout time.Duration
}

// DefaultServiceConfig returns the stock batching parameters.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		BatchSize:     128,
		FlushInterval: time.Second,
		FlushTimeout:  5 * time.Second,
	}
}

// Service drains a Publisher into a Store in batches on its own goroutine.
// Store failures are logged and the batch is discarded.
type Service struct {
	pub    *Publisher
	store  Store
	cfg    ServiceConfig
	logger *zap.Logger

	stop chan struct{}
	done chan struct{}
}

// NewService wires pub to store.
//
// Precondition: pub and store are non-nil.
func NewService(pub *Publisher, store Store, cfg ServiceConfig, logger *zap.Logger) (*Service, error) {
	if pub == nil || store == nil {
		return nil, errors.New("journal.NewService: publisher and store are required")
	}
	def := DefaultServiceConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = def.FlushTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		pub:    pub,
		store:  store,
		cfg:    cfg,
		logger: logger.Named("journal"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Start drains events until Stop is called or the publisher is closed, then
// flushes whatever is pending. It blocks.
func (s *Service) Start() error {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, s.cfg.BatchSize)
	for {
		select {
		case e, ok := <-s.pub.Events():
			if !ok {
				s.flush(batch)
				return nil
			}
			batch = append(batch, e)
			if len(batch) >= s.cfg.BatchSize {
				batch = s.flush(batch)
			}
		case <-ticker.C:
			batch = s.flush(batch)
		case <-s.stop:
			batch = s.drain(batch)
			s.flush(batch)
			return nil
		}
	}
}

// Stop ends Start and waits for the final flush. Idempotent.
func (s *Service) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}

// drain moves every queued event into batch without blocking.
func (s *Service) drain(batch []Event) []Event {
	for {
		select {
		case e, ok := <-s.pub.Events():
			if !ok {
				return batch
			}
			batch = append(batch, e)
		default:
			return batch
		}
	}
}

func (s *Service) flush(batch []Event) []Event {
	if len(batch) == 0 {
		return batch
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FlushTimeout)
	defer cancel()
	if err := s.store.Record(ctx, batch); err != nil {
		s.logger.Error("journal flush failed",
			zap.Int("events", len(batch)),
			zap.Error(fmt.Errorf("recording batch: %w", err)),
		)
	} else {
		s.logger.Debug("journal flushed", zap.Int("events", len(batch)))
	}
	return batch[:0]
}
