package tracker

import (
	"context"
	"log"
	"time"

	"github.com/courtside/tracker/internal/events"
)

// Scheduler drives automatic checkpoints: a fixed-interval ticker plus a
// short debounce after bursts of recorded events, so a quiet bench stretch
// does not leave minutes of unsaved stats. Checkpoints are idempotent, so an
// extra run costs one upsert and nothing else.
type Scheduler struct {
	tracker  *Tracker
	interval time.Duration
	debounce time.Duration

	poke   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler builds a scheduler from the tracker's configuration.
func NewScheduler(t *Tracker) (*Scheduler, error) {
	interval, err := t.cfg.CheckpointInterval()
	if err != nil {
		return nil, err
	}
	debounce, err := t.cfg.SnapshotDebounce()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		tracker:  t,
		interval: interval,
		debounce: debounce,
		poke:     make(chan struct{}, 1),
	}, nil
}

// Start launches the checkpoint loop. The scheduler also registers itself on
// the tracker's dispatcher so every recorded event arms the debounce timer.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	if s.tracker.dispatcher != nil {
		s.tracker.dispatcher.Register(&events.FuncObserver{
			ObserverName: "checkpoint-scheduler",
			Filter: func(eventType string) bool {
				return eventType == events.TypeEventRecorded || eventType == events.TypeEventDeleted
			},
			Handle: func(events.Event) error {
				select {
				case s.poke <- struct{}{}:
				default:
				}
				return nil
			},
		})
	}

	go s.run(ctx)
}

// Stop halts the loop and runs one final checkpoint.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.tracker.Checkpoint(ctx); err != nil {
		log.Printf("[scheduler] final checkpoint: %v", err)
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return
		case <-s.poke:
			// Restart the debounce window; only the last event of a burst
			// triggers the snapshot.
			if debounce == nil {
				debounce = time.NewTimer(s.debounce)
				fire = debounce.C
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(s.debounce)
			}
		case <-fire:
			debounce = nil
			fire = nil
			s.snapshot(ctx)
		case <-ticker.C:
			s.checkpoint(ctx)
		}
	}
}

func (s *Scheduler) snapshot(ctx context.Context) {
	if err := s.tracker.SaveSnapshot(ctx); err != nil {
		log.Printf("[scheduler] snapshot: %v", err)
	}
}

func (s *Scheduler) checkpoint(ctx context.Context) {
	if err := s.tracker.Checkpoint(ctx); err != nil {
		log.Printf("[scheduler] checkpoint: %v", err)
	}
}
