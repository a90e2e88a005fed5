package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTickInterval is the countdown resolution of an exam.
const DefaultTickInterval = time.Second

// TickFunc is called once per interval. Returning false ends the worker.
type TickFunc func() bool

// TickWorker drives an exam countdown from the wall clock. It can be stopped
// exactly once; a tick already in flight when Stop is called still runs, so
// TickFunc must tolerate arriving late.
type TickWorker struct {
	interval time.Duration
	tick     TickFunc
	log      zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewTickWorker creates a TickWorker. Call Start in a goroutine.
func NewTickWorker(interval time.Duration, tick TickFunc, log zerolog.Logger) *TickWorker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &TickWorker{
		interval: interval,
		tick:     tick,
		log:      log.With().Str("component", "tick_worker").Logger(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the tick loop until ctx is cancelled, Stop is called or the
// tick function asks to end.
func (w *TickWorker) Start(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Debug().Dur("interval", w.interval).Msg("Timer started")

	for {
		select {
		case <-ctx.Done():
			w.log.Debug().Msg("Timer cancelled by shutdown")
			return
		case <-w.stop:
			w.log.Debug().Msg("Timer stopped")
			return
		case <-ticker.C:
			// Stop may race with the ticker; prefer the stop signal.
			select {
			case <-w.stop:
				w.log.Debug().Msg("Timer stopped")
				return
			default:
			}
			if !w.tick() {
				w.log.Debug().Msg("Timer finished")
				return
			}
		}
	}
}

// Stop cancels the timer. Further calls are no-ops. It does not wait for
// the loop to exit; use Done for that.
func (w *TickWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// Done is closed once the loop has exited.
func (w *TickWorker) Done() <-chan struct{} {
	return w.done
}
