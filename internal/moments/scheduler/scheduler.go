package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"hndld-backend/internal/moments/usecase"
	"hndld-backend/internal/task/domain"
	"hndld-backend/pkg/events"
)

// DefaultInterval is the period between two moments sweeps
const DefaultInterval = 24 * time.Hour

// Sweeper runs one moments sweep over all households
type Sweeper interface {
	RunMomentsAutomation(ctx context.Context) usecase.RunSummary
}

// Notifier is told about reminder tasks created by a sweep
type Notifier interface {
	NotifyTasksCreated(ctx context.Context, tasks []*domain.Task)
}

// Publisher receives the sweep summary event
type Publisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

// MomentsScheduler owns the periodic moments sweep. It runs once on Start
// and then every interval until Stop is called.
type MomentsScheduler struct {
	sweeper   Sweeper
	notifier  Notifier
	publisher Publisher
	interval  time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// NewMomentsScheduler creates a new scheduler; notifier and publisher may be nil
func NewMomentsScheduler(sweeper Sweeper, notifier Notifier, publisher Publisher, interval time.Duration) *MomentsScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &MomentsScheduler{
		sweeper:   sweeper,
		notifier:  notifier,
		publisher: publisher,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *MomentsScheduler) Start() {
	log.Printf("[MomentsScheduler] Starting moments scheduler (interval: %s)", s.interval)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Run immediately on start
		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runOnce(ctx)
			case <-s.stopChan:
				log.Println("[MomentsScheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop cancels an in-flight sweep and waits for the loop to exit
func (s *MomentsScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		if s.cancel != nil {
			s.cancel()
		}
	})
	s.wg.Wait()
}

func (s *MomentsScheduler) runOnce(ctx context.Context) {
	summary := s.sweeper.RunMomentsAutomation(ctx)

	if s.notifier != nil && len(summary.Created) > 0 {
		s.notifier.NotifyTasksCreated(ctx, summary.Created)
	}

	if s.publisher != nil {
		failed := make([]string, 0, len(summary.Failed))
		for id := range summary.Failed {
			failed = append(failed, id)
		}
		evt := events.Event{
			Type: events.TypeMomentsSwept,
			Payload: map[string]interface{}{
				"households":        summary.Households,
				"created":           len(summary.Created),
				"failed_households": failed,
			},
		}
		if err := s.publisher.Publish(ctx, evt); err != nil {
			log.Printf("[MomentsScheduler] Error publishing sweep event: %v", err)
		}
	}
}
